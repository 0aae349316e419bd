package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"udan-bangla-backend/internal/models"
)

var plans = []models.Plan{
	{ID: "Free", Name: "Free", PriceRupees: 0, Features: []string{"Daily practice quizzes", "Basic performance stats"}},
	{ID: "Pro", Name: "Pro", PriceRupees: 499, Features: []string{"Unlimited Class 11 & 12 Mocks", "Detailed Solutions"}},
	{ID: "Elite", Name: "Elite", PriceRupees: 999, Features: []string{"All Pro Features", "WBJEE Elite Mocks", "Priority Support"}},
}

// Plans returns the subscription catalogue.
func Plans() []models.Plan {
	out := make([]models.Plan, len(plans))
	copy(out, plans)
	return out
}

func lookupPlan(id string) (models.Plan, bool) {
	for _, p := range plans {
		if strings.EqualFold(p.ID, id) {
			return p, true
		}
	}
	return models.Plan{}, false
}

type orderStore interface {
	Create(ctx context.Context, o *models.PaymentOrder) error
	GetByID(ctx context.Context, id string) (*models.PaymentOrder, error)
	MarkPaid(ctx context.Context, orderID, paymentID string, userID uuid.UUID, plan string) (bool, error)
}

type PaymentService struct {
	orders    orderStore
	keyID     string
	keySecret string
}

func NewPaymentService(orders orderStore, keyID, keySecret string) *PaymentService {
	return &PaymentService{orders: orders, keyID: keyID, keySecret: keySecret}
}

// KeyID is the public gateway key the client checkout needs.
func (s *PaymentService) KeyID() string { return s.keyID }

func (s *PaymentService) CreateOrder(ctx context.Context, userID uuid.UUID, req models.CreateOrderRequest) (*models.PaymentOrder, error) {
	plan, ok := lookupPlan(req.Plan)
	if !ok || plan.PriceRupees == 0 {
		return nil, &ValidationError{Fields: map[string]string{"plan": "Choose a paid plan: Pro or Elite"}}
	}
	if s.keySecret == "" {
		return nil, &UpstreamError{Message: "Payments are not configured"}
	}

	orderSuffix, err := generateToken(7)
	if err != nil {
		return nil, err
	}
	receiptSuffix, err := generateToken(7)
	if err != nil {
		return nil, err
	}

	order := &models.PaymentOrder{
		ID:       "order_" + orderSuffix,
		UserID:   userID,
		Plan:     plan.ID,
		Amount:   plan.PriceRupees * 100,
		Currency: "INR",
		Receipt:  "receipt_" + receiptSuffix,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to store order: %w", err)
	}

	log.Printf("Created order %s for user %s (%s, %d paise)", order.ID, userID, order.Plan, order.Amount)
	return order, nil
}

// VerifyPayment checks the gateway signature over "order_id|payment_id" and
// settles the order. Verifying an already settled order with the same
// payment is a no-op.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID uuid.UUID, req models.VerifyPaymentRequest) (*models.PaymentOrder, error) {
	fields := make(map[string]string)
	if req.OrderID == "" {
		fields["razorpay_order_id"] = "Order ID is required"
	}
	if req.PaymentID == "" {
		fields["razorpay_payment_id"] = "Payment ID is required"
	}
	if req.Signature == "" {
		fields["razorpay_signature"] = "Signature is required"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	order, err := s.orders.GetByID(ctx, req.OrderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Order not found"}
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, &ForbiddenError{Message: "Order belongs to another user"}
	}

	if !s.validSignature(req.OrderID, req.PaymentID, req.Signature) {
		log.Printf("Payment signature mismatch for order %s", req.OrderID)
		return nil, &UnauthorizedError{Message: "Payment verification failed"}
	}

	if order.Status == "paid" {
		if order.PaymentID != nil && *order.PaymentID == req.PaymentID {
			return order, nil
		}
		return nil, &ConflictError{Message: "Order already settled"}
	}

	settled, err := s.orders.MarkPaid(ctx, order.ID, req.PaymentID, userID, order.Plan)
	if err != nil {
		return nil, fmt.Errorf("failed to settle order: %w", err)
	}
	if !settled {
		return nil, &ConflictError{Message: "Order already settled"}
	}

	log.Printf("Order %s paid by user %s, plan now %s", order.ID, userID, order.Plan)
	return s.orders.GetByID(ctx, order.ID)
}

func (s *PaymentService) validSignature(orderID, paymentID, signature string) bool {
	expected := Sign(s.keySecret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

// Sign computes the hex HMAC-SHA256 the gateway attaches to a successful
// checkout.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
