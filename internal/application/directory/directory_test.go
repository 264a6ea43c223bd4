package directory_test

import (
	"context"
	"testing"

	"github.com/cassiomorais/checkout/internal/application/directory"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCfg = directory.Config{
	OnboardingRefreshURL: "https://shop.test/%s/onboarding/refresh",
	OnboardingReturnURL:  "https://shop.test/%s/onboarding/return",
}

func newDirectory(links *testutil.MockLinkStore, gw *testutil.MockGateway) *directory.Directory {
	return directory.New(links, gw, testCfg, zerolog.Nop())
}

func TestEnsureBuyer_CreatesOnce(t *testing.T) {
	ctx := context.Background()
	links := testutil.NewMockLinkStore()
	creates := 0
	gw := &testutil.MockGateway{
		CreateCustomerFunc: func(_ context.Context, email string) (*gateway.Customer, error) {
			creates++
			return &gateway.Customer{ID: "cus_new", Email: email}, nil
		},
	}
	d := newDirectory(links, gw)

	id, err := d.EnsureBuyer(ctx, "user-1", "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", id)
	assert.Equal(t, "cus_new", links.Link("user-1").CustomerID)

	// Second call reads the cached id.
	id, err = d.EnsureBuyer(ctx, "user-1", "buyer@example.com")
	require.NoError(t, err)
	assert.Equal(t, "cus_new", id)
	assert.Equal(t, 1, creates)
}

func TestEnsureSeller_FirstCallIssuesOnboarding(t *testing.T) {
	ctx := context.Background()
	links := testutil.NewMockLinkStore()
	gw := &testutil.MockGateway{
		RetrieveAccountFunc: func(_ context.Context, accountID string) (*gateway.Account, error) {
			return &gateway.Account{ID: accountID, TransfersActive: false}, nil
		},
		AccountOnboardingLinkFunc: func(_ context.Context, _, refreshURL, returnURL string) (string, error) {
			assert.Equal(t, "https://shop.test/en/onboarding/refresh", refreshURL)
			assert.Equal(t, "https://shop.test/en/onboarding/return", returnURL)
			return "https://onboarding.test/start", nil
		},
	}
	d := newDirectory(links, gw)

	status, err := d.EnsureSeller(ctx, "seller-1", "en")
	require.NoError(t, err)
	assert.False(t, status.Complete)
	assert.Equal(t, "https://onboarding.test/start", status.OnboardingURL)
	assert.Equal(t, "acct_test", links.Link("seller-1").AccountID)
}

func TestEnsureSeller_CapabilityTurnsActive(t *testing.T) {
	ctx := context.Background()
	links := testutil.NewMockLinkStore()
	link := testutil.NewTestLink("seller-1")
	link.AccountID = "acct_1"
	links.AddLink(link)

	gw := &testutil.MockGateway{
		RetrieveAccountFunc: func(_ context.Context, accountID string) (*gateway.Account, error) {
			return &gateway.Account{ID: accountID, TransfersActive: true}, nil
		},
	}
	d := newDirectory(links, gw)

	status, err := d.EnsureSeller(ctx, "seller-1", "en")
	require.NoError(t, err)
	assert.True(t, status.Complete)
	assert.True(t, links.Link("seller-1").TransfersActive)
}

func TestEnsureSeller_ActiveCachedSkipsGateway(t *testing.T) {
	ctx := context.Background()
	links := testutil.NewMockLinkStore()
	link := testutil.NewTestLink("seller-1")
	link.AccountID = "acct_1"
	link.TransfersActive = true
	links.AddLink(link)

	retrieves := 0
	gw := &testutil.MockGateway{
		RetrieveAccountFunc: func(_ context.Context, accountID string) (*gateway.Account, error) {
			retrieves++
			return &gateway.Account{ID: accountID, TransfersActive: true}, nil
		},
	}
	d := newDirectory(links, gw)

	status, err := d.EnsureSeller(ctx, "seller-1", "en")
	require.NoError(t, err)
	assert.True(t, status.Complete)
	assert.Equal(t, 0, retrieves)
}

func TestSellerAccountID(t *testing.T) {
	ctx := context.Background()
	links := testutil.NewMockLinkStore()
	d := newDirectory(links, &testutil.MockGateway{})

	t.Run("no account", func(t *testing.T) {
		_, err := d.SellerAccountID(ctx, "seller-1")
		assert.Equal(t, domainErrors.KindNotFound, domainErrors.KindOf(err))
	})

	t.Run("onboarding incomplete", func(t *testing.T) {
		link := testutil.NewTestLink("seller-2")
		link.AccountID = "acct_2"
		links.AddLink(link)
		_, err := d.SellerAccountID(ctx, "seller-2")
		assert.Equal(t, domainErrors.KindFailedPrecondition, domainErrors.KindOf(err))
	})

	t.Run("active", func(t *testing.T) {
		link := testutil.NewTestLink("seller-3")
		link.AccountID = "acct_3"
		link.TransfersActive = true
		links.AddLink(link)
		id, err := d.SellerAccountID(ctx, "seller-3")
		require.NoError(t, err)
		assert.Equal(t, "acct_3", id)
	})
}

func TestDeleteSeller_ClearsFieldsOnly(t *testing.T) {
	ctx := context.Background()
	links := testutil.NewMockLinkStore()
	link := testutil.NewTestLink("seller-1")
	link.AccountID = "acct_1"
	link.TransfersActive = true
	links.AddLink(link)
	d := newDirectory(links, &testutil.MockGateway{})

	require.NoError(t, d.DeleteSeller(ctx, "seller-1"))

	stored := links.Link("seller-1")
	require.NotNil(t, stored)
	assert.Empty(t, stored.AccountID)
	assert.False(t, stored.TransfersActive)
	// The buyer side of the link survives.
	assert.Equal(t, "cus_test", stored.CustomerID)
}

func TestDeleteBuyer_ClearsCustomerAndDefaultMethod(t *testing.T) {
	ctx := context.Background()
	links := testutil.NewMockLinkStore()
	link := testutil.NewTestLink("user-1")
	link.DefaultPaymentMethod = "pm_1"
	links.AddLink(link)
	d := newDirectory(links, &testutil.MockGateway{})

	require.NoError(t, d.DeleteBuyer(ctx, "user-1"))

	stored := links.Link("user-1")
	require.NotNil(t, stored)
	assert.Empty(t, stored.CustomerID)
	assert.Empty(t, stored.DefaultPaymentMethod)
}

func TestDashboardLink_RequiresAccount(t *testing.T) {
	ctx := context.Background()
	d := newDirectory(testutil.NewMockLinkStore(), &testutil.MockGateway{})

	_, err := d.DashboardLink(ctx, "user-1")
	assert.Equal(t, domainErrors.KindNotFound, domainErrors.KindOf(err))
}
