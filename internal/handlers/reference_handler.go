package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/models"
)

type referenceStore interface {
	List(ctx context.Context, kind models.ReferenceKind) ([]models.ReferenceItem, error)
	GetByID(ctx context.Context, kind models.ReferenceKind, id int64) (*models.ReferenceItem, error)
	Create(ctx context.Context, kind models.ReferenceKind, name string) (*models.ReferenceItem, error)
	Rename(ctx context.Context, kind models.ReferenceKind, id int64, name string) (*models.ReferenceItem, error)
	Delete(ctx context.Context, kind models.ReferenceKind, id int64) error
}

type tourLister interface {
	List(ctx context.Context) ([]models.Tour, error)
}

// ReferenceHandler serves CRUD for ships, locations, agents and booking agents
type ReferenceHandler struct {
	references referenceStore
	tours      tourLister
	logger     *logrus.Logger
}

// NewReferenceHandler creates a new ReferenceHandler
func NewReferenceHandler(references referenceStore, tours tourLister, logger *logrus.Logger) *ReferenceHandler {
	return &ReferenceHandler{references: references, tours: tours, logger: logger}
}

// Register mounts list/get/create/rename/delete for kind under group
func (h *ReferenceHandler) Register(group *gin.RouterGroup, kind models.ReferenceKind) {
	group.GET("", h.list(kind))
	group.GET("/:id", h.get(kind))
	group.POST("", h.create(kind))
	group.PUT("/:id", h.rename(kind))
	group.DELETE("/:id", h.delete(kind))
}

// ListTours handles GET /api/v1/tours
func (h *ReferenceHandler) ListTours(c *gin.Context) {
	tours, err := h.tours.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}
	respondOK(c, gin.H{"tours": tours})
}

func (h *ReferenceHandler) list(kind models.ReferenceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.references.List(c.Request.Context(), kind)
		if err != nil {
			respondServiceError(c, h.logger, err)
			return
		}
		respondOK(c, gin.H{"items": items})
	}
}

func (h *ReferenceHandler) get(kind models.ReferenceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		item, err := h.references.GetByID(c.Request.Context(), kind, id)
		if err != nil {
			respondServiceError(c, h.logger, err)
			return
		}
		respondOK(c, gin.H{"item": item})
	}
}

func (h *ReferenceHandler) create(kind models.ReferenceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := bindName(c)
		if !ok {
			return
		}
		item, err := h.references.Create(c.Request.Context(), kind, name)
		if err != nil {
			respondServiceError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
	}
}

func (h *ReferenceHandler) rename(kind models.ReferenceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		name, ok := bindName(c)
		if !ok {
			return
		}
		item, err := h.references.Rename(c.Request.Context(), kind, id, name)
		if err != nil {
			respondServiceError(c, h.logger, err)
			return
		}
		respondOK(c, gin.H{"item": item})
	}
}

func (h *ReferenceHandler) delete(kind models.ReferenceKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if err := h.references.Delete(c.Request.Context(), kind, id); err != nil {
			respondServiceError(c, h.logger, err)
			return
		}
		h.logger.WithFields(logrus.Fields{"kind": kind, "id": id}).Info("Reference deleted")
		respondOK(c, gin.H{"message": "Deleted"})
	}
}

func bindName(c *gin.Context) (string, bool) {
	var req models.ReferenceItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return "", false
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		respondError(c, http.StatusBadRequest, "validation_error", "name is required")
		return "", false
	}
	return name, true
}
