package account

import "time"

// Field names used by merge patches on the Account Link document.
const (
	FieldUserID               = "userId"
	FieldCustomerID           = "customerId"
	FieldAccountID            = "accountId"
	FieldDefaultPaymentMethod = "defaultPaymentMethod"
	FieldTransfersActive      = "transfersActive"
	FieldUpdatedTime          = "updatedTime"
)

// Link maps an internal user to the gateway's objects: the buyer customer,
// the seller payable account and the cached default payment method. The
// document is created lazily and its fields are cleared (never the document
// itself) when the gateway objects are deleted.
type Link struct {
	UserID               string    `firestore:"userId"`
	CustomerID           string    `firestore:"customerId,omitempty"`
	AccountID            string    `firestore:"accountId,omitempty"`
	DefaultPaymentMethod string    `firestore:"defaultPaymentMethod,omitempty"`
	TransfersActive      bool      `firestore:"transfersActive"`
	UpdatedTime          time.Time `firestore:"updatedTime"`
}

// Method is one saved payment method in the user's sub-collection.
type Method struct {
	MethodID string    `firestore:"methodId"`
	AddedAt  time.Time `firestore:"addedAt"`
}
