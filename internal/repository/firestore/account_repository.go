package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/cassiomorais/checkout/internal/domain/account"
	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AccountRepository persists Account Link documents and the saved payment
// method sub-collection.
type AccountRepository struct {
	c *Client
}

func NewAccountRepository(c *Client) *AccountRepository {
	return &AccountRepository{c: c}
}

// Get returns the Account Link for a user. A missing document yields an
// empty link so first-time callers can merge into it.
func (r *AccountRepository) Get(ctx context.Context, userID string) (*account.Link, error) {
	snap, err := r.c.userDoc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return &account.Link{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account link: %w", err)
	}
	var link account.Link
	if err := snap.DataTo(&link); err != nil {
		return nil, fmt.Errorf("decode account link: %w", err)
	}
	link.UserID = userID
	return &link, nil
}

// Merge applies a merge-write to the Account Link. Fields not present in the
// patch are untouched; the delete marker clears a field without touching the
// document.
func (r *AccountRepository) Merge(ctx context.Context, userID string, patch document.Patch) error {
	data := translatePatch(patch)
	data[account.FieldUserID] = userID
	data[account.FieldUpdatedTime] = time.Now()
	if _, err := r.c.userDoc(userID).Set(ctx, data, firestore.MergeAll); err != nil {
		return fmt.Errorf("merge account link: %w", err)
	}
	return nil
}

func (r *AccountRepository) ListMethods(ctx context.Context, userID string) ([]account.Method, error) {
	snaps, err := r.c.methodCol(userID).OrderBy("addedAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}
	methods := make([]account.Method, 0, len(snaps))
	for _, snap := range snaps {
		var m account.Method
		if err := snap.DataTo(&m); err != nil {
			return nil, fmt.Errorf("decode payment method: %w", err)
		}
		if m.MethodID == "" {
			m.MethodID = snap.Ref.ID
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func (r *AccountRepository) GetMethod(ctx context.Context, userID, methodID string) (*account.Method, error) {
	snap, err := r.c.methodCol(userID).Doc(methodID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domainErrors.Newf(domainErrors.KindNotFound, "payment method %s not found", methodID)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment method: %w", err)
	}
	var m account.Method
	if err := snap.DataTo(&m); err != nil {
		return nil, fmt.Errorf("decode payment method: %w", err)
	}
	if m.MethodID == "" {
		m.MethodID = snap.Ref.ID
	}
	return &m, nil
}

func (r *AccountRepository) AddMethod(ctx context.Context, userID string, m account.Method) error {
	if _, err := r.c.methodCol(userID).Doc(m.MethodID).Set(ctx, m); err != nil {
		return fmt.Errorf("add payment method: %w", err)
	}
	return nil
}

func (r *AccountRepository) DeleteMethod(ctx context.Context, userID, methodID string) error {
	if _, err := r.c.methodCol(userID).Doc(methodID).Delete(ctx); err != nil {
		return fmt.Errorf("delete payment method: %w", err)
	}
	return nil
}
