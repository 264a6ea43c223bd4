package purchase

import (
	"context"

	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
	"github.com/cassiomorais/checkout/internal/gateway"
)

// CaptureRequest captures a confirmed and verified purchase. Amount 0 means
// full capture; a partial amount must not exceed the authorized amount.
type CaptureRequest struct {
	UserID  string
	OrderID string
	Amount  int64
}

// Capture captures the funds of a confirmed purchase. The captured state is
// persisted immediately after the gateway reports success, before returning,
// since the Record drives every later precondition check.
func (s *Service) Capture(ctx context.Context, req CaptureRequest) (string, error) {
	if err := requireArg("userId", req.UserID); err != nil {
		return "", err
	}
	if err := requireArg("orderId", req.OrderID); err != nil {
		return "", err
	}

	rec, err := s.records.Get(ctx, req.UserID, req.OrderID)
	if err != nil {
		return "", err
	}
	if err := rec.CanCapture(req.Amount); err != nil {
		return "", err
	}

	intent, err := s.gw.CaptureIntent(ctx, rec.PurchaseID, req.Amount)
	if err != nil {
		s.markError(ctx, req.UserID, req.OrderID, captureFailedMessage)
		return "", err
	}
	if intent.Status != gateway.StatusSucceeded {
		return "", domainErrors.Newf(domainErrors.KindAborted, "capture did not succeed, intent status is %s", intent.Status)
	}

	err = s.applyGuarded(ctx, req.UserID, req.OrderID, rec, func(rec *purchase.Record) (document.Patch, error) {
		if rec.Capture && rec.Success {
			return document.Patch{}, nil
		}
		if err := rec.CanCapture(req.Amount); err != nil {
			return nil, err
		}
		return document.Patch{
			purchase.FieldCapture:      true,
			purchase.FieldSuccess:      true,
			purchase.FieldError:        false,
			purchase.FieldErrorMessage: document.Delete,
			purchase.FieldNextAction:   document.Delete,
		}, nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("order_id", req.OrderID).
		Int64("amount", req.Amount).
		Msg("purchase captured")
	return rec.PurchaseID, nil
}
