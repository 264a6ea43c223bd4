package purchase

import (
	"context"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/google/uuid"
)

// AuthorizeRequest validates that a card can be charged without creating a
// persisted purchase.
type AuthorizeRequest struct {
	UserID    string
	Amount    int64
	Currency  string
	Email     string
	ReturnURL string
}

// AuthorizeResult carries the held authorization's intent id and, when
// strong authentication is outstanding, the redirect the payer must follow.
type AuthorizeResult struct {
	PurchaseID     string
	RequiresAction bool
	URL            string
	ReturnURL      string
}

// Authorize opens and confirms a throwaway manual-capture intent as a
// pre-check of the buyer's default payment method. Nothing is written to the
// Purchase Record Store; the hold is released by ConfirmAuthorization.
func (s *Service) Authorize(ctx context.Context, req AuthorizeRequest) (*AuthorizeResult, error) {
	if err := requireArg("userId", req.UserID); err != nil {
		return nil, err
	}
	if err := requireArg("currency", req.Currency); err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, domainErrors.New(domainErrors.KindInvalidArgument, "amount must be positive")
	}

	customerID, err := s.dir.EnsureBuyer(ctx, req.UserID, req.Email)
	if err != nil {
		return nil, err
	}
	methodID, err := s.methods.ResolveDefault(ctx, req.UserID, customerID)
	if err != nil {
		return nil, err
	}

	intent, err := s.gw.CreateIntent(ctx, gateway.CreateIntentParams{
		CustomerID:     customerID,
		PaymentMethod:  methodID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Description:    "authorization pre-check",
		IdempotencyKey: "auth:" + uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	confirmed, err := s.gw.ConfirmIntent(ctx, intent.ID, req.ReturnURL)
	if err != nil {
		return nil, err
	}

	result := &AuthorizeResult{PurchaseID: confirmed.ID}
	if confirmed.RequiresAction() {
		result.RequiresAction = true
		result.URL = confirmed.NextActionURL
		result.ReturnURL = confirmed.NextActionReturnURL
	}
	return result, nil
}

// ConfirmAuthorization releases a held authorization once the caller's own
// verification completed, by cancelling the intent.
func (s *Service) ConfirmAuthorization(ctx context.Context, purchaseID string) error {
	if err := requireArg("purchaseId", purchaseID); err != nil {
		return err
	}
	_, err := s.gw.CancelIntent(ctx, purchaseID)
	return err
}
