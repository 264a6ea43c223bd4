package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/cassiomorais/checkout/internal/domain/document"
	"google.golang.org/api/option"
)

// Paths holds the configurable path segments of the document layout:
// {base}/{userId} for the Account Link, {base}/{userId}/{payments}/{methodId}
// for saved methods and {base}/{userId}/{purchases}/{orderId} for Purchase
// Records.
type Paths struct {
	Base      string
	Purchases string
	Payments  string
}

// Client wraps one logical Firestore database. Multi-tenant deployments hold
// several Clients and fan out across them in order.
type Client struct {
	fs         *firestore.Client
	databaseID string
	paths      Paths
}

func NewClient(ctx context.Context, projectID, databaseID string, paths Paths, opts ...option.ClientOption) (*Client, error) {
	fs, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client for database %q: %w", databaseID, err)
	}
	return &Client{fs: fs, databaseID: databaseID, paths: paths}, nil
}

func (c *Client) DatabaseID() string { return c.databaseID }

func (c *Client) Close() error { return c.fs.Close() }

func (c *Client) userDoc(userID string) *firestore.DocumentRef {
	return c.fs.Collection(c.paths.Base).Doc(userID)
}

func (c *Client) purchaseDoc(userID, orderID string) *firestore.DocumentRef {
	return c.userDoc(userID).Collection(c.paths.Purchases).Doc(orderID)
}

func (c *Client) methodCol(userID string) *firestore.CollectionRef {
	return c.userDoc(userID).Collection(c.paths.Payments)
}

// translatePatch converts the storage-neutral delete marker into Firestore's
// field-deletion sentinel.
func translatePatch(patch document.Patch) map[string]any {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		if document.IsDelete(v) {
			out[k] = firestore.Delete
			continue
		}
		out[k] = v
	}
	return out
}
