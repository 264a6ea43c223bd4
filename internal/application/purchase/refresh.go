package purchase

import (
	"context"

	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
)

// RefreshRequest retries a purchase stuck in an error state with a new
// default payment method.
type RefreshRequest struct {
	UserID  string
	OrderID string
}

// Refresh re-resolves the default payment method and swaps it onto the
// intent, clearing the error state. A purchase without an error is a
// trivial success; one that already succeeded cannot be refreshed; a
// resolution yielding the method already on file is pointless and fails
// so the caller knows a retry would change nothing.
func (s *Service) Refresh(ctx context.Context, req RefreshRequest) error {
	if err := requireArg("userId", req.UserID); err != nil {
		return err
	}
	if err := requireArg("orderId", req.OrderID); err != nil {
		return err
	}

	rec, err := s.records.Get(ctx, req.UserID, req.OrderID)
	if err != nil {
		return err
	}
	if rec.Success {
		return domainErrors.New(domainErrors.KindAlreadyExists, "purchase already succeeded, nothing to refresh")
	}
	if !rec.Error {
		return nil
	}

	methodID, err := s.methods.ResolveDefault(ctx, req.UserID, rec.CustomerID)
	if err != nil {
		return err
	}
	if methodID == rec.PaymentMethod {
		return domainErrors.New(domainErrors.KindFailedPrecondition, "default payment method is unchanged, retry would fail the same way")
	}

	if _, err := s.gw.UpdateIntentMethod(ctx, rec.PurchaseID, methodID); err != nil {
		return err
	}

	err = s.applyGuarded(ctx, req.UserID, req.OrderID, rec, func(rec *purchase.Record) (document.Patch, error) {
		return document.Patch{
			purchase.FieldPaymentMethod: methodID,
			purchase.FieldError:         false,
			purchase.FieldErrorMessage:  document.Delete,
		}, nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("order_id", req.OrderID).
		Str("payment_method", methodID).
		Msg("purchase refreshed with new payment method")
	return nil
}
