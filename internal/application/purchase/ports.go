package purchase

import (
	"context"

	"github.com/cassiomorais/checkout/internal/domain/document"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
)

// RecordStore is the Purchase Record persistence port. Update is the
// compare-and-set write: it applies only while the stored flags still equal
// the guard, surfacing an aborted error otherwise. Merge is unconditional
// and reserved for transient error marking.
type RecordStore interface {
	Get(ctx context.Context, userID, orderID string) (*purchase.Record, error)
	Create(ctx context.Context, userID string, rec *purchase.Record) error
	Merge(ctx context.Context, userID, orderID string, patch document.Patch) error
	Update(ctx context.Context, userID, orderID string, guard purchase.Flags, patch document.Patch) error
}

// AccountDirectory resolves the gateway objects a purchase needs.
type AccountDirectory interface {
	EnsureBuyer(ctx context.Context, userID, email string) (string, error)
	SellerAccountID(ctx context.Context, userID string) (string, error)
}

// MethodResolver finds the default payment method for a buyer.
type MethodResolver interface {
	ResolveDefault(ctx context.Context, userID, customerID string) (string, error)
}
