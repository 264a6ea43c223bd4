package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cassiomorais/checkout/internal/application/directory"
	"github.com/cassiomorais/checkout/internal/application/methods"
	purchaseApp "github.com/cassiomorais/checkout/internal/application/purchase"
	"github.com/cassiomorais/checkout/internal/application/subscription"
	"github.com/cassiomorais/checkout/internal/dispatch"
	"github.com/cassiomorais/checkout/internal/interfaces/http/handlers"
	"github.com/cassiomorais/checkout/internal/notify"
	"github.com/cassiomorais/checkout/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler *handlers.CallHandler
	records *testutil.MockRecordStore
	links   *testutil.MockLinkStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	records := testutil.NewMockRecordStore()
	links := testutil.NewMockLinkStore()
	store := testutil.NewMockMethodStore()
	gw := &testutil.MockGateway{}
	log := zerolog.Nop()

	dir := directory.New(links, gw, directory.Config{
		OnboardingRefreshURL: "https://shop.test/%s/refresh",
		OnboardingReturnURL:  "https://shop.test/%s/return",
	}, log)
	registry := methods.New(links, store, gw, methods.Config{})
	purchases := purchaseApp.NewService(records, dir, registry, gw, notify.Disabled{}, purchaseApp.Options{}, log)
	subs := subscription.New(links, gw, subscription.Config{})

	fanout := dispatch.NewFanout([]dispatch.Backend{{
		DatabaseID:    "(default)",
		Directory:     dir,
		Methods:       registry,
		Purchases:     purchases,
		Subscriptions: subs,
	}}, nil, log)

	return &fixture{
		handler: handlers.NewCallHandler(fanout, nil),
		records: records,
		links:   links,
	}
}

func (f *fixture) call(t *testing.T, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/call", &buf)
	rr := httptest.NewRecorder()
	f.handler.Call(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestCall_InvalidJSON(t *testing.T) {
	f := newFixture(t)
	rr := f.call(t, "{not json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid-argument", decodeBody(t, rr)["code"])
}

func TestCall_MissingMode(t *testing.T) {
	f := newFixture(t)
	rr := f.call(t, map[string]any{"userId": "user-1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCall_UnknownMode(t *testing.T) {
	f := newFixture(t)
	rr := f.call(t, map[string]any{"mode": "explode_purchase"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid-argument", decodeBody(t, rr)["code"])
}

func TestCall_CreatePurchase(t *testing.T) {
	f := newFixture(t)
	f.links.AddLink(testutil.NewTestLink("user-1"))
	f.links.Merge(context.Background(), "user-1", map[string]any{"defaultPaymentMethod": "pm_test"})

	rr := f.call(t, map[string]any{
		"mode":     "create_purchase",
		"userId":   "user-1",
		"orderId":  "order-1",
		"amount":   1000,
		"currency": "usd",
		"email":    "buyer@example.com",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "pi_test", decodeBody(t, rr)["purchaseId"])
	assert.NotNil(t, f.records.Record("user-1", "order-1"))
}

func TestCall_CaptureBeforeConfirm(t *testing.T) {
	f := newFixture(t)
	f.records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))

	rr := f.call(t, map[string]any{
		"mode":    "capture_purchase",
		"userId":  "user-1",
		"orderId": "order-1",
	})
	assert.Equal(t, http.StatusPreconditionFailed, rr.Code)
	assert.Equal(t, "failed-precondition", decodeBody(t, rr)["code"])
}

func TestCall_UnknownOrder(t *testing.T) {
	f := newFixture(t)
	rr := f.call(t, map[string]any{
		"mode":    "cancel_purchase",
		"userId":  "user-1",
		"orderId": "missing",
	})
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not-found", decodeBody(t, rr)["code"])
}

func TestCall_ConfirmThenCapture(t *testing.T) {
	f := newFixture(t)
	f.records.AddRecord("user-1", testutil.NewTestRecord("order-1", 1000))

	rr := f.call(t, map[string]any{
		"mode":    "confirm_purchase",
		"userId":  "user-1",
		"orderId": "order-1",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rr = f.call(t, map[string]any{
		"mode":    "capture_purchase",
		"userId":  "user-1",
		"orderId": "order-1",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	rec := f.records.Record("user-1", "order-1")
	assert.True(t, rec.Capture)
	assert.True(t, rec.Success)
}

func TestCall_CreateCustomer(t *testing.T) {
	f := newFixture(t)
	rr := f.call(t, map[string]any{
		"mode":   "create_customer",
		"userId": "user-1",
		"email":  "buyer@example.com",
	})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cus_test", decodeBody(t, rr)["customerId"])
}
