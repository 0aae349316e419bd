package models

import (
	"time"

	"github.com/google/uuid"
)

type Plan struct {
	ID          string   `json:"id"` // "Free" | "Pro" | "Elite"
	Name        string   `json:"name"`
	PriceRupees int      `json:"price_rupees"`
	Features    []string `json:"features"`
}

type PaymentOrder struct {
	ID        string     `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Plan      string     `json:"plan"`
	Amount    int        `json:"amount"` // paise
	Currency  string     `json:"currency"`
	Receipt   string     `json:"receipt"`
	Status    string     `json:"status"` // "created" | "paid" | "failed"
	PaymentID *string    `json:"payment_id"`
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at"`
}

type CreateOrderRequest struct {
	Plan string `json:"plan"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}
