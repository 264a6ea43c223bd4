package purchase

import (
	"context"
	"fmt"
	"math"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
	"github.com/cassiomorais/checkout/internal/gateway"
)

// CreateRequest holds the terms of a new purchase. TargetUserID and
// RevenueRatio turn the purchase into a split marketplace payment: the
// platform keeps amount*ratio as its fee and the rest transfers to the
// seller's payable account.
type CreateRequest struct {
	UserID       string
	OrderID      string
	Amount       int64
	Currency     string
	Description  string
	Email        string
	TargetUserID string
	RevenueRatio float64
}

// Create opens a manual-capture payment intent for the order and persists a
// fresh Purchase Record with all flags false. The orderId doubles as the
// gateway idempotency key component, so a racing double-create yields the
// same intent instead of a second charge.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	if err := requireArg("userId", req.UserID); err != nil {
		return "", err
	}
	if err := requireArg("orderId", req.OrderID); err != nil {
		return "", err
	}
	if err := requireArg("currency", req.Currency); err != nil {
		return "", err
	}
	if req.Amount <= 0 {
		return "", domainErrors.New(domainErrors.KindInvalidArgument, "amount must be positive")
	}
	if req.TargetUserID != "" && (req.RevenueRatio < 0 || req.RevenueRatio >= 1) {
		return "", domainErrors.New(domainErrors.KindInvalidArgument, "revenueRatio must be in [0, 1)")
	}

	existing, err := s.records.Get(ctx, req.UserID, req.OrderID)
	if err != nil && !domainErrors.IsKind(err, domainErrors.KindNotFound) {
		return "", err
	}
	if existing != nil && existing.FlagSet() != (purchase.Flags{}) {
		return "", domainErrors.Newf(domainErrors.KindAlreadyExists, "order %s already has a purchase in progress", req.OrderID)
	}

	customerID, err := s.dir.EnsureBuyer(ctx, req.UserID, req.Email)
	if err != nil {
		return "", err
	}
	methodID, err := s.methods.ResolveDefault(ctx, req.UserID, customerID)
	if err != nil {
		return "", err
	}

	email := req.Email
	if email == "" {
		pm, err := s.gw.RetrievePaymentMethod(ctx, methodID)
		if err != nil {
			return "", err
		}
		email = pm.BillingEmail
	}
	if email == "" {
		return "", domainErrors.New(domainErrors.KindNotFound, "no buyer email could be resolved")
	}

	params := gateway.CreateIntentParams{
		CustomerID:     customerID,
		PaymentMethod:  methodID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    req.Description,
		ReceiptEmail:   email,
		IdempotencyKey: fmt.Sprintf("create:%s:%s", req.UserID, req.OrderID),
	}
	if req.TargetUserID != "" {
		destination, err := s.dir.SellerAccountID(ctx, req.TargetUserID)
		if err != nil {
			return "", err
		}
		params.TransferDestination = destination
		params.ApplicationFee = int64(math.Round(float64(req.Amount) * req.RevenueRatio))
	}

	intent, err := s.gw.CreateIntent(ctx, params)
	if err != nil {
		return "", err
	}

	rec := &purchase.Record{
		OrderID:             req.OrderID,
		PurchaseID:          intent.ID,
		PaymentMethod:       methodID,
		CustomerID:          customerID,
		Email:               email,
		Description:         req.Description,
		Amount:              req.Amount,
		Currency:            req.Currency,
		ApplicationFee:      params.ApplicationFee,
		TransferAmount:      req.Amount - params.ApplicationFee,
		TransferDestination: params.TransferDestination,
	}
	if err := s.records.Create(ctx, req.UserID, rec); err != nil {
		return "", err
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("order_id", req.OrderID).
		Str("purchase_id", intent.ID).
		Int64("amount", req.Amount).
		Msg("purchase created")
	return intent.ID, nil
}
