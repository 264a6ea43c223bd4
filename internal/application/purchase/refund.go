package purchase

import (
	"context"

	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
)

// RefundRequest refunds a captured purchase. Amount 0 refunds everything
// still remaining; partial refunds accumulate and may never exceed the
// original amount.
type RefundRequest struct {
	UserID  string
	OrderID string
	Amount  int64
}

// Refund refunds part or all of a captured purchase. The first refund also
// sets the cancel flag, marking the purchase terminal.
func (s *Service) Refund(ctx context.Context, req RefundRequest) error {
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
	if err := rec.CanRefund(req.Amount); err != nil {
		return err
	}

	amount := req.Amount
	if amount == 0 {
		amount = rec.Remaining()
	}

	refundID, err := s.gw.CreateRefund(ctx, rec.PurchaseID, amount)
	if err != nil {
		s.markError(ctx, req.UserID, req.OrderID, refundFailedMessage)
		return err
	}

	err = s.applyGuarded(ctx, req.UserID, req.OrderID, rec, func(rec *purchase.Record) (document.Patch, error) {
		if amount > rec.Remaining() {
			return nil, domainErrors.Newf(domainErrors.KindInvalidArgument, "refund amount %d exceeds remaining amount %d", amount, rec.Remaining())
		}
		return document.Patch{
			purchase.FieldRefund:         true,
			purchase.FieldCancel:         true,
			purchase.FieldRefundedAmount: rec.RefundedAmount + amount,
			purchase.FieldError:          false,
			purchase.FieldErrorMessage:   document.Delete,
		}, nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("order_id", req.OrderID).
		Str("refund_id", refundID).
		Int64("amount", amount).
		Msg("purchase refunded")
	return nil
}
