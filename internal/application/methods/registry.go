package methods

import (
	"context"

	"github.com/cassiomorais/checkout/internal/application/directory"
	"github.com/cassiomorais/checkout/internal/domain/account"
	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
)

// MethodStore is the saved payment method sub-collection port.
type MethodStore interface {
	ListMethods(ctx context.Context, userID string) ([]account.Method, error)
	GetMethod(ctx context.Context, userID, methodID string) (*account.Method, error)
	DeleteMethod(ctx context.Context, userID, methodID string) error
}

// Config carries the Checkout redirect URLs for attaching a method.
type Config struct {
	AttachSuccessURL string
	AttachCancelURL  string
}

// Registry resolves and maintains a user's default payment method.
type Registry struct {
	links   directory.LinkStore
	methods MethodStore
	gw      gateway.Gateway
	cfg     Config
}

func New(links directory.LinkStore, methods MethodStore, gw gateway.Gateway, cfg Config) *Registry {
	return &Registry{links: links, methods: methods, gw: gw, cfg: cfg}
}

// ResolveDefault finds the user's default method in precedence order:
// cached default on the Account Link, the gateway's invoice default, then
// the first saved method. Whichever source wins is cached back onto the
// link so future lookups are a single point-read.
func (r *Registry) ResolveDefault(ctx context.Context, userID, customerID string) (string, error) {
	link, err := r.links.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if link.DefaultPaymentMethod != "" {
		return link.DefaultPaymentMethod, nil
	}

	cus, err := r.gw.RetrieveCustomer(ctx, customerID)
	if err != nil {
		return "", err
	}
	methodID := cus.InvoiceDefaultMethod

	if methodID == "" {
		saved, err := r.methods.ListMethods(ctx, userID)
		if err != nil {
			return "", err
		}
		if len(saved) > 0 {
			methodID = saved[0].MethodID
		}
	}
	if methodID == "" {
		return "", domainErrors.Newf(domainErrors.KindNotFound, "user %s has no payment method", userID)
	}

	if err := r.links.Merge(ctx, userID, document.Patch{account.FieldDefaultPaymentMethod: methodID}); err != nil {
		return "", err
	}
	return methodID, nil
}

// SetDefault validates ownership, pushes the default to the gateway and
// updates the cache only when it actually changed.
func (r *Registry) SetDefault(ctx context.Context, userID, methodID string) error {
	if _, err := r.methods.GetMethod(ctx, userID, methodID); err != nil {
		return err
	}
	link, err := r.links.Get(ctx, userID)
	if err != nil {
		return err
	}
	if link.CustomerID == "" {
		return domainErrors.Newf(domainErrors.KindNotFound, "user %s has no gateway customer", userID)
	}
	if err := r.gw.SetCustomerDefaultMethod(ctx, link.CustomerID, methodID); err != nil {
		return err
	}
	if link.DefaultPaymentMethod == methodID {
		return nil
	}
	return r.links.Merge(ctx, userID, document.Patch{account.FieldDefaultPaymentMethod: methodID})
}

// Detach removes a method at the gateway and from the sub-collection. When
// it was the cached default the cache is cleared; no replacement is chosen,
// the next resolution re-runs the precedence search.
func (r *Registry) Detach(ctx context.Context, userID, methodID string) error {
	if _, err := r.methods.GetMethod(ctx, userID, methodID); err != nil {
		return err
	}
	if err := r.gw.DetachPaymentMethod(ctx, methodID); err != nil {
		return err
	}
	if err := r.methods.DeleteMethod(ctx, userID, methodID); err != nil {
		return err
	}
	link, err := r.links.Get(ctx, userID)
	if err != nil {
		return err
	}
	if link.DefaultPaymentMethod == methodID {
		return r.links.Merge(ctx, userID, document.Patch{account.FieldDefaultPaymentMethod: document.Delete})
	}
	return nil
}

// BeginAttach starts a setup-mode Checkout session so the user can save a
// new card. The method lands in the sub-collection out of band once the
// session completes.
func (r *Registry) BeginAttach(ctx context.Context, userID string) (string, error) {
	link, err := r.links.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if link.CustomerID == "" {
		return "", domainErrors.Newf(domainErrors.KindNotFound, "user %s has no gateway customer", userID)
	}
	return r.gw.CheckoutSetupSession(ctx, link.CustomerID, r.cfg.AttachSuccessURL, r.cfg.AttachCancelURL)
}
