package purchase

import (
	"context"
	"errors"

	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/cassiomorais/checkout/internal/notify"
)

// ConfirmRequest advances a purchase through intent confirmation. Online
// false means the purchaser cannot follow a redirect right now; a pending
// authentication step is then delivered out of band instead.
type ConfirmRequest struct {
	UserID    string
	OrderID   string
	ReturnURL string
	Online    bool
}

// ConfirmResult reports either a completed confirmation or an outstanding
// redirect the purchaser must follow.
type ConfirmResult struct {
	PurchaseID     string
	RequiresAction bool
	URL            string
	ReturnURL      string
}

// Confirm confirms the purchase's intent. When the gateway reports an
// outstanding redirect the step is stored on the Record and, for offline
// purchasers, mailed through the configured provider; lacking any channel is
// a hard failure since strong authentication cannot be skipped. With no
// redirect pending the purchase becomes confirmed and verified.
func (s *Service) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if err := requireArg("userId", req.UserID); err != nil {
		return nil, err
	}
	if err := requireArg("orderId", req.OrderID); err != nil {
		return nil, err
	}

	rec, err := s.records.Get(ctx, req.UserID, req.OrderID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanConfirm(); err != nil {
		return nil, err
	}

	// A prior call may have confirmed the intent and then lost the network
	// response. Re-fetch instead of re-confirming in that case and
	// re-evaluate whether a redirect is still pending.
	var intent *gateway.Intent
	if rec.Confirm {
		intent, err = s.gw.RetrieveIntent(ctx, rec.PurchaseID)
	} else {
		intent, err = s.gw.ConfirmIntent(ctx, rec.PurchaseID, req.ReturnURL)
	}
	if err != nil {
		s.markError(ctx, req.UserID, req.OrderID, confirmFailedMessage)
		return nil, err
	}

	if intent.RequiresAction() {
		return s.handlePendingAction(ctx, req, rec, intent)
	}

	err = s.applyGuarded(ctx, req.UserID, req.OrderID, rec, func(rec *purchase.Record) (document.Patch, error) {
		if err := rec.CanConfirm(); err != nil {
			return nil, err
		}
		return document.Patch{
			purchase.FieldConfirm:    true,
			purchase.FieldVerify:     true,
			purchase.FieldNextAction: document.Delete,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", req.UserID).
		Str("order_id", req.OrderID).
		Msg("purchase confirmed and verified")
	return &ConfirmResult{PurchaseID: rec.PurchaseID}, nil
}

// handlePendingAction stores the outstanding redirect on the Record and, for
// offline purchasers, delivers it through the out-of-band channel.
func (s *Service) handlePendingAction(ctx context.Context, req ConfirmRequest, rec *purchase.Record, intent *gateway.Intent) (*ConfirmResult, error) {
	next := &purchase.NextAction{URL: intent.NextActionURL, ReturnURL: intent.NextActionReturnURL}

	err := s.applyGuarded(ctx, req.UserID, req.OrderID, rec, func(rec *purchase.Record) (document.Patch, error) {
		if err := rec.CanConfirm(); err != nil {
			return nil, err
		}
		return document.Patch{
			purchase.FieldConfirm: true,
			purchase.FieldNextAction: map[string]any{
				"url":       next.URL,
				"returnUrl": next.ReturnURL,
			},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if !req.Online {
		if err := s.sendAuthenticationLink(ctx, req.UserID, rec, next.URL); err != nil {
			return nil, err
		}
	}

	return &ConfirmResult{
		PurchaseID:     rec.PurchaseID,
		RequiresAction: true,
		URL:            next.URL,
		ReturnURL:      next.ReturnURL,
	}, nil
}

// sendAuthenticationLink mails the authentication URL using the email
// captured at creation. A missing channel and a failing provider are
// distinct failures; both persist an error on the Record and surface as
// unavailable because the authentication step must not be silently skipped.
func (s *Service) sendAuthenticationLink(ctx context.Context, userID string, rec *purchase.Record, authURL string) error {
	msg := notify.Message{
		From:  s.opts.NotifyFrom,
		To:    rec.Email,
		Title: s.opts.NotifyTitle,
		Body:  notify.RenderBody(s.opts.NotifyBody, authURL),
	}
	err := s.notifier.Send(ctx, msg)
	if err == nil {
		s.log.Info().
			Str("order_id", rec.OrderID).
			Str("provider", s.notifier.Name()).
			Msg("authentication link delivered out of band")
		return nil
	}

	if errors.Is(err, notify.ErrNotConfigured) {
		s.markError(ctx, userID, rec.OrderID, noChannelMessage)
		return domainErrors.Wrap(domainErrors.KindUnavailable, noChannelMessage, err)
	}
	s.markError(ctx, userID, rec.OrderID, sendFailedMessage)
	return domainErrors.Wrap(domainErrors.KindUnavailable, sendFailedMessage, err)
}
