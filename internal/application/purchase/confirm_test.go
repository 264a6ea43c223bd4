package purchase_test

import (
	"context"
	"errors"
	"testing"

	purchaseApp "github.com/cassiomorais/checkout/internal/application/purchase"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/cassiomorais/checkout/internal/notify"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirm_Success(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))
	svc := newService(records, &testutil.MockGateway{}, nil)

	res, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{UserID: "user-1", OrderID: "order-1", Online: true})
	require.NoError(t, err)
	assert.False(t, res.RequiresAction)

	rec := records.Record("user-1", "order-1")
	assert.True(t, rec.Confirm)
	assert.True(t, rec.Verify)
	assert.Nil(t, rec.NextAction)
}

func TestConfirm_RequiresAction_Online(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))
	gw := &testutil.MockGateway{
		ConfirmIntentFunc: func(_ context.Context, intentID, returnURL string) (*gateway.Intent, error) {
			return &gateway.Intent{
				ID:                  intentID,
				Status:              gateway.StatusRequiresAction,
				NextActionURL:       "https://auth.test/3ds",
				NextActionReturnURL: returnURL,
			}, nil
		},
	}
	notifier := &testutil.MockNotifier{}
	svc := newService(records, gw, notifier)

	res, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{
		UserID:    "user-1",
		OrderID:   "order-1",
		ReturnURL: "https://shop.test/return",
		Online:    true,
	})
	require.NoError(t, err)
	assert.True(t, res.RequiresAction)
	assert.Equal(t, "https://auth.test/3ds", res.URL)

	rec := records.Record("user-1", "order-1")
	assert.True(t, rec.Confirm)
	assert.False(t, rec.Verify)
	require.NotNil(t, rec.NextAction)
	assert.Equal(t, "https://auth.test/3ds", rec.NextAction.URL)

	// An online purchaser follows the redirect themselves.
	assert.Empty(t, notifier.Sent())
}

func TestConfirm_RequiresAction_OfflineDelivered(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))
	gw := &testutil.MockGateway{
		ConfirmIntentFunc: func(_ context.Context, intentID, _ string) (*gateway.Intent, error) {
			return &gateway.Intent{ID: intentID, Status: gateway.StatusRequiresAction, NextActionURL: "https://auth.test/3ds"}, nil
		},
	}
	notifier := &testutil.MockNotifier{}
	svc := newService(records, gw, notifier)

	res, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{UserID: "user-1", OrderID: "order-1", Online: false})
	require.NoError(t, err)
	assert.True(t, res.RequiresAction)

	sent := notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "buyer@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "https://auth.test/3ds")
}

func TestConfirm_RequiresAction_OfflineNoChannel(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))
	gw := &testutil.MockGateway{
		ConfirmIntentFunc: func(_ context.Context, intentID, _ string) (*gateway.Intent, error) {
			return &gateway.Intent{ID: intentID, Status: gateway.StatusRequiresAction, NextActionURL: "https://auth.test/3ds"}, nil
		},
	}
	svc := newService(records, gw, nil) // Disabled notifier

	_, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{UserID: "user-1", OrderID: "order-1", Online: false})
	assert.Equal(t, domainErrors.KindUnavailable, domainErrors.KindOf(err))

	rec := records.Record("user-1", "order-1")
	assert.True(t, rec.Error)
	assert.NotEmpty(t, rec.ErrorMessage)
}

func TestConfirm_RequiresAction_OfflineSendFails(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))
	gw := &testutil.MockGateway{
		ConfirmIntentFunc: func(_ context.Context, intentID, _ string) (*gateway.Intent, error) {
			return &gateway.Intent{ID: intentID, Status: gateway.StatusRequiresAction, NextActionURL: "https://auth.test/3ds"}, nil
		},
	}
	notifier := &testutil.MockNotifier{
		SendFunc: func(context.Context, notify.Message) error {
			return errors.New("smtp: connection refused")
		},
	}
	svc := newService(records, gw, notifier)

	_, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{UserID: "user-1", OrderID: "order-1", Online: false})
	assert.Equal(t, domainErrors.KindUnavailable, domainErrors.KindOf(err))
	assert.True(t, records.Record("user-1", "order-1").Error)
}

func TestConfirm_GatewayFailureMarksError(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))
	gw := &testutil.MockGateway{
		ConfirmIntentFunc: func(context.Context, string, string) (*gateway.Intent, error) {
			return nil, domainErrors.New(domainErrors.KindUnknown, "gateway error: card declined")
		},
	}
	svc := newService(records, gw, nil)

	_, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{UserID: "user-1", OrderID: "order-1", Online: true})
	require.Error(t, err)

	rec := records.Record("user-1", "order-1")
	assert.True(t, rec.Error)
	assert.False(t, rec.Confirm)
}

func TestConfirm_RetryAfterLostResponse(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	rec := testutil.NewTestRecord("order-1", 1000)
	rec.Confirm = true
	records.AddRecord("user-1", rec)

	confirmCalled := false
	gw := &testutil.MockGateway{
		ConfirmIntentFunc: func(context.Context, string, string) (*gateway.Intent, error) {
			confirmCalled = true
			return nil, errors.New("must not re-confirm")
		},
	}
	svc := newService(records, gw, nil)

	// The intent was already confirmed, so the service re-fetches its state
	// instead of confirming again.
	_, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{UserID: "user-1", OrderID: "order-1", Online: true})
	require.NoError(t, err)
	assert.False(t, confirmCalled)
	assert.True(t, records.Record("user-1", "order-1").Verify)
}

func TestConfirm_CancelledPurchase(t *testing.T) {
	ctx := context.Background()
	records := testutil.NewMockRecordStore()
	rec := testutil.NewTestRecord("order-1", 1000)
	rec.Cancel = true
	records.AddRecord("user-1", rec)
	svc := newService(records, &testutil.MockGateway{}, nil)

	_, err := svc.Confirm(ctx, purchaseApp.ConfirmRequest{UserID: "user-1", OrderID: "order-1", Online: true})
	assert.Equal(t, domainErrors.KindCancelled, domainErrors.KindOf(err))
}
