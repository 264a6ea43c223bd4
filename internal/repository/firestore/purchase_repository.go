package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// PurchaseRepository persists Purchase Records. Guarded updates run inside a
// Firestore transaction comparing the stored flag set against the one the
// caller read, which is the compare-and-set contract every transition relies
// on.
type PurchaseRepository struct {
	c *Client
}

func NewPurchaseRepository(c *Client) *PurchaseRepository {
	return &PurchaseRepository{c: c}
}

func (r *PurchaseRepository) Get(ctx context.Context, userID, orderID string) (*purchase.Record, error) {
	snap, err := r.c.purchaseDoc(userID, orderID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domainErrors.Newf(domainErrors.KindNotFound, "purchase record %s not found", orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("get purchase record: %w", err)
	}
	var rec purchase.Record
	if err := snap.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("decode purchase record: %w", err)
	}
	rec.OrderID = orderID
	return &rec, nil
}

// Create writes a fresh Record under merge semantics. Two racing creates for
// the same order are harmless: the gateway-level idempotency key guarantees
// both carry the same intent.
func (r *PurchaseRepository) Create(ctx context.Context, userID string, rec *purchase.Record) error {
	now := time.Now()
	rec.CreatedTime = now
	rec.UpdatedTime = now
	if _, err := r.c.purchaseDoc(userID, rec.OrderID).Set(ctx, rec); err != nil {
		return fmt.Errorf("create purchase record: %w", err)
	}
	return nil
}

// Merge applies an unconditional merge-write, used for transient error
// marking where last-writer-wins is acceptable.
func (r *PurchaseRepository) Merge(ctx context.Context, userID, orderID string, patch document.Patch) error {
	data := translatePatch(patch)
	data[purchase.FieldUpdatedTime] = time.Now()
	if _, err := r.c.purchaseDoc(userID, orderID).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge purchase record: %w", err)
	}
	return nil
}

// Update applies patch only while the stored flags still equal guard.
// A mismatch surfaces as an aborted error so the caller can re-read and
// retry the transition.
func (r *PurchaseRepository) Update(ctx context.Context, userID, orderID string, guard purchase.Flags, patch document.Patch) error {
	doc := r.c.purchaseDoc(userID, orderID)
	err := r.c.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(doc)
		if status.Code(err) == codes.NotFound {
			return domainErrors.Newf(domainErrors.KindNotFound, "purchase record %s not found", orderID)
		}
		if err != nil {
			return err
		}
		var rec purchase.Record
		if err := snap.DataTo(&rec); err != nil {
			return err
		}
		if rec.FlagSet() != guard {
			return domainErrors.New(domainErrors.KindAborted, "purchase record changed concurrently")
		}
		data := translatePatch(patch)
		data[purchase.FieldUpdatedTime] = time.Now()
		return tx.Set(doc, data, firestore.MergeAll)
	})
	if err != nil {
		var de *domainErrors.DomainError
		if errors.As(err, &de) {
			return de
		}
		return fmt.Errorf("update purchase record: %w", err)
	}
	return nil
}
