package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"udan-bangla-backend/internal/middleware"
	"udan-bangla-backend/internal/models"
	"udan-bangla-backend/internal/services"
)

type stubPaymentService struct {
	err      error
	verified models.VerifyPaymentRequest
}

func (s *stubPaymentService) KeyID() string { return "rzp_test_key" }

func (s *stubPaymentService) CreateOrder(ctx context.Context, userID uuid.UUID, req models.CreateOrderRequest) (*models.PaymentOrder, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.PaymentOrder{ID: "order_1", UserID: userID, Plan: req.Plan, Amount: 49900, Currency: "INR"}, nil
}

func (s *stubPaymentService) VerifyPayment(ctx context.Context, userID uuid.UUID, req models.VerifyPaymentRequest) (*models.PaymentOrder, error) {
	s.verified = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.PaymentOrder{ID: req.OrderID, UserID: userID, Plan: "Pro", Status: "paid"}, nil
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.UserIDKey, uuid.New()))
}

func TestSubscriptionHandler_CreateOrder(t *testing.T) {
	rr := httptest.NewRecorder()
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/orders", strings.NewReader(`{"plan":"Pro"}`)))
	NewSubscriptionHandler(&stubPaymentService{}).CreateOrder(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	var resp struct {
		Order models.PaymentOrder `json:"order"`
		KeyID string              `json:"key_id"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.KeyID != "rzp_test_key" || resp.Order.Amount != 49900 {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestSubscriptionHandler_Verify(t *testing.T) {
	body := `{"razorpay_order_id":"order_1","razorpay_payment_id":"pay_1","razorpay_signature":"sig"}`

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"verified", nil, http.StatusOK},
		{"bad signature", &services.UnauthorizedError{Message: "Payment signature mismatch"}, http.StatusUnauthorized},
		{"someone else's order", &services.ForbiddenError{Message: "Order belongs to another user"}, http.StatusForbidden},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubPaymentService{err: tc.err}
			rr := httptest.NewRecorder()
			NewSubscriptionHandler(svc).Verify(rr, withUser(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))))

			if rr.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rr.Code)
			}
			if svc.verified.PaymentID != "pay_1" || svc.verified.Signature != "sig" {
				t.Errorf("request not passed through: %+v", svc.verified)
			}
		})
	}
}
