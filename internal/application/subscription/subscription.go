package subscription

import (
	"context"

	"github.com/cassiomorais/checkout/internal/application/directory"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
)

// Config carries the Checkout redirect URLs for subscription sign-up.
type Config struct {
	SuccessURL string
	CancelURL  string
}

// Service is a thin pass-through to the gateway's subscription surface;
// subscription state itself lives at the gateway, not in the record store.
type Service struct {
	links directory.LinkStore
	gw    gateway.Gateway
	cfg   Config
}

func New(links directory.LinkStore, gw gateway.Gateway, cfg Config) *Service {
	return &Service{links: links, gw: gw, cfg: cfg}
}

// Begin starts a subscription-mode Checkout session for the given price.
func (s *Service) Begin(ctx context.Context, userID, priceID string) (string, error) {
	if priceID == "" {
		return "", domainErrors.New(domainErrors.KindInvalidArgument, "priceId is required")
	}
	link, err := s.links.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if link.CustomerID == "" {
		return "", domainErrors.Newf(domainErrors.KindNotFound, "user %s has no gateway customer", userID)
	}
	return s.gw.CheckoutSubscriptionSession(ctx, link.CustomerID, priceID, s.cfg.SuccessURL, s.cfg.CancelURL)
}

// CancelAtPeriodEnd flags a subscription for cancellation when the current
// billing period ends.
func (s *Service) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return domainErrors.New(domainErrors.KindInvalidArgument, "subscriptionId is required")
	}
	return s.gw.CancelSubscriptionAtPeriodEnd(ctx, subscriptionID)
}
