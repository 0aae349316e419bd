package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/models"
)

type paymentService interface {
	KeyID() string
	CreateOrder(ctx context.Context, userID uuid.UUID, req models.CreateOrderRequest) (*models.PaymentOrder, error)
	VerifyPayment(ctx context.Context, userID uuid.UUID, req models.VerifyPaymentRequest) (*models.PaymentOrder, error)
}

type SubscriptionHandler struct {
	payments paymentService
}

func NewSubscriptionHandler(payments paymentService) *SubscriptionHandler {
	return &SubscriptionHandler{payments: payments}
}

func (h *SubscriptionHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req models.CreateOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order":  order,
		"key_id": h.payments.KeyID(),
	})
}

func (h *SubscriptionHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyPaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.payments.VerifyPayment(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verified": true,
		"plan":     order.Plan,
		"order":    order,
	})
}
