package testutil

import (
	"time"

	"github.com/cassiomorais/checkout/internal/domain/account"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
)

func NewTestRecord(orderID string, amountCents int64) *purchase.Record {
	now := time.Now()
	return &purchase.Record{
		OrderID:       orderID,
		PurchaseID:    "pi_" + orderID,
		PaymentMethod: "pm_test",
		CustomerID:    "cus_test",
		Email:         "buyer@example.com",
		Amount:        amountCents,
		Currency:      "usd",
		CreatedTime:   now,
		UpdatedTime:   now,
	}
}

// NewConfirmedRecord is a record past confirm and verify, ready for capture.
func NewConfirmedRecord(orderID string, amountCents int64) *purchase.Record {
	rec := NewTestRecord(orderID, amountCents)
	rec.Confirm = true
	rec.Verify = true
	return rec
}

// NewCapturedRecord is a fully captured record, ready for refund.
func NewCapturedRecord(orderID string, amountCents int64) *purchase.Record {
	rec := NewConfirmedRecord(orderID, amountCents)
	rec.Capture = true
	rec.Success = true
	return rec
}

func NewTestLink(userID string) *account.Link {
	return &account.Link{
		UserID:      userID,
		CustomerID:  "cus_test",
		UpdatedTime: time.Now(),
	}
}
