package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/tourdesk/booking-backend/internal/utils"
	"github.com/tourdesk/booking-backend/pkg/jwt"
)

func main() {
	userID := flag.Int64("token-user", 0, "mint dashboard tokens for this staff user id using JWT_SECRET/JWT_REFRESH_SECRET")
	email := flag.String("token-email", "", "email embedded in minted tokens")
	flag.Parse()

	if *userID > 0 {
		mintTokens(*userID, *email)
		return
	}

	fmt.Println("===========================================")
	fmt.Println("Secret Generator for the tour booking backend")
	fmt.Println("===========================================")
	fmt.Println()

	secrets, err := utils.GenerateSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file or deployment secrets:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secrets.JWTSecret)
	fmt.Printf("JWT_REFRESH_SECRET=%s\n", secrets.JWTRefreshSecret)
	fmt.Printf("PAYMENT_WEBHOOK_SECRET=%s\n", secrets.WebhookSecret)
	fmt.Println()
	fmt.Println("Keep these secrets safe and never commit them to version control.")
	fmt.Println("===========================================")
}

// mintTokens issues a dashboard token pair. There is no login endpoint, so this
// is how staff get their first refresh token.
func mintTokens(userID int64, email string) {
	_ = godotenv.Load()

	access, refresh := os.Getenv("JWT_SECRET"), os.Getenv("JWT_REFRESH_SECRET")
	if access == "" || refresh == "" {
		log.Fatal("JWT_SECRET and JWT_REFRESH_SECRET must be set to mint tokens")
	}

	service := jwt.NewService(access, refresh, time.Hour, 30*24*time.Hour)
	accessToken, err := service.GenerateAccessToken(userID, email)
	if err != nil {
		log.Fatalf("Failed to mint access token: %v", err)
	}
	refreshToken, err := service.GenerateRefreshToken(userID, email)
	if err != nil {
		log.Fatalf("Failed to mint refresh token: %v", err)
	}

	fmt.Printf("ACCESS_TOKEN=%s\n", accessToken)
	fmt.Printf("REFRESH_TOKEN=%s\n", refreshToken)
}
