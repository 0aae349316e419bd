package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID  `json:"id"`
	Email        *string    `json:"email"`
	PhoneNumber  *string    `json:"phone_number"`
	PasswordHash string     `json:"-"`
	DisplayName  string     `json:"display_name"`
	PhotoURL     *string    `json:"photo_url"`
	AuthProvider string     `json:"auth_provider"` // "password" | "phone" | "google"
	Plan         string     `json:"plan"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

type RegisterRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PhoneOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type PhoneVerifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

type GoogleLoginRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	IsAdmin      bool   `json:"is_admin"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
