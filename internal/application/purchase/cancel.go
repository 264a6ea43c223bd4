package purchase

import (
	"context"

	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
)

// CancelRequest cancels a purchase before capture.
type CancelRequest struct {
	UserID  string
	OrderID string
}

// Cancel releases an uncaptured purchase. Calling it again on an already
// cancelled purchase is an idempotent success; a captured purchase must be
// refunded instead.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) error {
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
	if rec.Cancel {
		return nil
	}
	if err := rec.CanCancel(); err != nil {
		return err
	}

	if _, err := s.gw.CancelIntent(ctx, rec.PurchaseID); err != nil {
		s.markError(ctx, req.UserID, req.OrderID, cancelFailedMessage)
		return err
	}

	err = s.applyGuarded(ctx, req.UserID, req.OrderID, rec, func(rec *purchase.Record) (document.Patch, error) {
		if rec.Cancel {
			return document.Patch{}, nil
		}
		if err := rec.CanCancel(); err != nil {
			return nil, err
		}
		return document.Patch{
			purchase.FieldCancel:       true,
			purchase.FieldError:        false,
			purchase.FieldErrorMessage: document.Delete,
			purchase.FieldNextAction:   document.Delete,
		}, nil
	})
	if err != nil {
		if domainErrors.IsKind(err, domainErrors.KindAlreadyExists) {
			return nil
		}
		return err
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("order_id", req.OrderID).
		Msg("purchase cancelled")
	return nil
}
