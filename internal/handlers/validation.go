package handlers

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tourdesk/booking-backend/internal/models"
)

// RegisterValidators adds the custom binding tags used by request models
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("booking_status", validateBookingStatus)
}

func validateBookingStatus(fl validator.FieldLevel) bool {
	_, err := models.ParseBookingStatus(fl.Field().String())
	return err == nil
}
