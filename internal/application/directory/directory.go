package directory

import (
	"context"
	"fmt"

	"github.com/cassiomorais/checkout/internal/domain/account"
	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/rs/zerolog"
)

// LinkStore is the Account Link persistence port.
type LinkStore interface {
	Get(ctx context.Context, userID string) (*account.Link, error)
	Merge(ctx context.Context, userID string, patch document.Patch) error
}

// Config carries the URLs a seller is sent through during onboarding.
// Both are format strings receiving the locale.
type Config struct {
	OnboardingRefreshURL string
	OnboardingReturnURL  string
}

// SellerStatus is the outcome of EnsureSeller: either onboarding is still
// outstanding (OnboardingURL set) or the payable account is fully active
// (Complete true).
type SellerStatus struct {
	AccountID     string
	OnboardingURL string
	Complete      bool
}

// Directory maps internal users to the gateway's customer and payable
// account objects.
type Directory struct {
	links LinkStore
	gw    gateway.Gateway
	cfg   Config
	log   zerolog.Logger
}

func New(links LinkStore, gw gateway.Gateway, cfg Config, log zerolog.Logger) *Directory {
	return &Directory{links: links, gw: gw, cfg: cfg, log: log}
}

// EnsureBuyer returns the gateway customer id for a user, creating the
// customer on first use. Two near-simultaneous first-time calls may both
// create a customer; last-writer-wins on the merge is acceptable since the
// losing object stays unreferenced.
func (d *Directory) EnsureBuyer(ctx context.Context, userID, email string) (string, error) {
	link, err := d.links.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if link.CustomerID != "" {
		return link.CustomerID, nil
	}

	cus, err := d.gw.CreateCustomer(ctx, email)
	if err != nil {
		return "", err
	}
	if err := d.links.Merge(ctx, userID, document.Patch{account.FieldCustomerID: cus.ID}); err != nil {
		return "", err
	}
	d.log.Info().Str("user_id", userID).Str("customer_id", cus.ID).Msg("created gateway customer")
	return cus.ID, nil
}

// EnsureSeller returns the payable account status for a user. The account is
// created on first call; while the transfers capability is inactive a fresh
// onboarding link is issued (links expire). Once the gateway reports the
// capability active that fact is cached and the call completes with no
// further action needed.
func (d *Directory) EnsureSeller(ctx context.Context, userID, locale string) (*SellerStatus, error) {
	link, err := d.links.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	accountID := link.AccountID
	if accountID == "" {
		acct, err := d.gw.CreateAccount(ctx, "")
		if err != nil {
			return nil, err
		}
		accountID = acct.ID
		if err := d.links.Merge(ctx, userID, document.Patch{account.FieldAccountID: accountID}); err != nil {
			return nil, err
		}
		d.log.Info().Str("user_id", userID).Str("account_id", accountID).Msg("created payable account")
	} else if link.TransfersActive {
		return &SellerStatus{AccountID: accountID, Complete: true}, nil
	}

	acct, err := d.gw.RetrieveAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct.TransfersActive {
		if err := d.links.Merge(ctx, userID, document.Patch{account.FieldTransfersActive: true}); err != nil {
			return nil, err
		}
		return &SellerStatus{AccountID: accountID, Complete: true}, nil
	}

	url, err := d.gw.AccountOnboardingLink(ctx, accountID,
		fmt.Sprintf(d.cfg.OnboardingRefreshURL, locale),
		fmt.Sprintf(d.cfg.OnboardingReturnURL, locale),
	)
	if err != nil {
		return nil, err
	}
	return &SellerStatus{AccountID: accountID, OnboardingURL: url}, nil
}

// SellerAccountID resolves the active payable account for a transfer
// destination.
func (d *Directory) SellerAccountID(ctx context.Context, userID string) (string, error) {
	link, err := d.links.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if link.AccountID == "" {
		return "", domainErrors.Newf(domainErrors.KindNotFound, "user %s has no payable account", userID)
	}
	if !link.TransfersActive {
		return "", domainErrors.Newf(domainErrors.KindFailedPrecondition, "payable account for user %s is not active yet", userID)
	}
	return link.AccountID, nil
}

// DashboardLink issues a gateway dashboard login link for a seller.
func (d *Directory) DashboardLink(ctx context.Context, userID string) (string, error) {
	link, err := d.links.Get(ctx, userID)
	if err != nil {
		return "", err
	}
	if link.AccountID == "" {
		return "", domainErrors.Newf(domainErrors.KindNotFound, "user %s has no payable account", userID)
	}
	return d.gw.LoginLink(ctx, link.AccountID)
}

// DeleteSeller deletes the gateway account and clears the link fields. The
// document itself is never deleted.
func (d *Directory) DeleteSeller(ctx context.Context, userID string) error {
	link, err := d.links.Get(ctx, userID)
	if err != nil {
		return err
	}
	if link.AccountID == "" {
		return domainErrors.Newf(domainErrors.KindNotFound, "user %s has no payable account", userID)
	}
	if err := d.gw.DeleteAccount(ctx, link.AccountID); err != nil {
		return err
	}
	return d.links.Merge(ctx, userID, document.Patch{
		account.FieldAccountID:       document.Delete,
		account.FieldTransfersActive: document.Delete,
	})
}

// DeleteBuyer deletes the gateway customer and clears the link fields,
// including the cached default payment method.
func (d *Directory) DeleteBuyer(ctx context.Context, userID string) error {
	link, err := d.links.Get(ctx, userID)
	if err != nil {
		return err
	}
	if link.CustomerID == "" {
		return domainErrors.Newf(domainErrors.KindNotFound, "user %s has no gateway customer", userID)
	}
	if err := d.gw.DeleteCustomer(ctx, link.CustomerID); err != nil {
		return err
	}
	return d.links.Merge(ctx, userID, document.Patch{
		account.FieldCustomerID:           document.Delete,
		account.FieldDefaultPaymentMethod: document.Delete,
	})
}
