package purchase

import (
	"time"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
)

// Field names used by merge patches. They must stay in sync with the
// firestore tags on Record.
const (
	FieldOrderID             = "orderId"
	FieldPurchaseID          = "purchaseId"
	FieldPaymentMethod       = "paymentMethod"
	FieldCustomerID          = "customerId"
	FieldEmail               = "email"
	FieldDescription         = "description"
	FieldAmount              = "amount"
	FieldCurrency            = "currency"
	FieldApplicationFee      = "applicationFee"
	FieldTransferAmount      = "transferAmount"
	FieldTransferDestination = "transferDestination"
	FieldConfirm             = "confirm"
	FieldVerify              = "verify"
	FieldCapture             = "capture"
	FieldSuccess             = "success"
	FieldCancel              = "cancel"
	FieldRefund              = "refund"
	FieldRefundedAmount      = "refundedAmount"
	FieldError               = "error"
	FieldErrorMessage        = "errorMessage"
	FieldNextAction          = "nextAction"
	FieldCreatedTime         = "createdTime"
	FieldUpdatedTime         = "updatedTime"
)

// Flags is the monotonic progress flag set of a purchase. It doubles as the
// compare-and-set guard: a guarded write only applies while the stored flags
// still equal the set the caller read.
type Flags struct {
	Confirm bool
	Verify  bool
	Capture bool
	Success bool
	Cancel  bool
	Refund  bool
}

// NextAction describes an outstanding redirect-based authentication step.
type NextAction struct {
	URL       string `firestore:"url" json:"url"`
	ReturnURL string `firestore:"returnUrl" json:"returnUrl"`
}

// Record is the durable state-machine document for one order. It is the
// single source of truth: every transition reads it, validates preconditions
// against it and writes the next state back under a flag guard.
type Record struct {
	OrderID             string      `firestore:"orderId"`
	PurchaseID          string      `firestore:"purchaseId"`
	PaymentMethod       string      `firestore:"paymentMethod"`
	CustomerID          string      `firestore:"customerId"`
	Email               string      `firestore:"email,omitempty"`
	Description         string      `firestore:"description,omitempty"`
	Amount              int64       `firestore:"amount"`
	Currency            string      `firestore:"currency"`
	ApplicationFee      int64       `firestore:"applicationFee,omitempty"`
	TransferAmount      int64       `firestore:"transferAmount,omitempty"`
	TransferDestination string      `firestore:"transferDestination,omitempty"`
	Confirm             bool        `firestore:"confirm"`
	Verify              bool        `firestore:"verify"`
	Capture             bool        `firestore:"capture"`
	Success             bool        `firestore:"success"`
	Cancel              bool        `firestore:"cancel"`
	Refund              bool        `firestore:"refund"`
	RefundedAmount      int64       `firestore:"refundedAmount,omitempty"`
	Error               bool        `firestore:"error"`
	ErrorMessage        string      `firestore:"errorMessage,omitempty"`
	NextAction          *NextAction `firestore:"nextAction,omitempty"`
	CreatedTime         time.Time   `firestore:"createdTime"`
	UpdatedTime         time.Time   `firestore:"updatedTime"`
}

// FlagSet returns the current progress flags, used as a CAS guard.
func (r *Record) FlagSet() Flags {
	return Flags{
		Confirm: r.Confirm,
		Verify:  r.Verify,
		Capture: r.Capture,
		Success: r.Success,
		Cancel:  r.Cancel,
		Refund:  r.Refund,
	}
}

// Remaining is the refundable amount still left on the purchase.
func (r *Record) Remaining() int64 {
	return r.Amount - r.RefundedAmount
}

// CanConfirm validates that a confirm transition is allowed.
func (r *Record) CanConfirm() error {
	if r.PurchaseID == "" {
		return domainErrors.New(domainErrors.KindNotFound, "purchase has not been created")
	}
	if r.Cancel {
		return domainErrors.New(domainErrors.KindCancelled, "purchase has been cancelled")
	}
	if r.Error {
		return domainErrors.New(domainErrors.KindFailedPrecondition, "purchase is in an error state, refresh it first")
	}
	return nil
}

// CanCapture validates that a capture transition is allowed for the given
// amount (0 means full capture).
func (r *Record) CanCapture(amount int64) error {
	if r.PurchaseID == "" {
		return domainErrors.New(domainErrors.KindNotFound, "purchase has not been created")
	}
	if r.Cancel {
		return domainErrors.New(domainErrors.KindCancelled, "purchase has been cancelled")
	}
	if r.Capture {
		return domainErrors.New(domainErrors.KindAlreadyExists, "purchase has already been captured")
	}
	if !r.Confirm || !r.Verify {
		return domainErrors.New(domainErrors.KindFailedPrecondition, "purchase must be confirmed and verified before capture")
	}
	if amount < 0 || amount > r.Amount {
		return domainErrors.Newf(domainErrors.KindInvalidArgument, "capture amount %d exceeds authorized amount %d", amount, r.Amount)
	}
	return nil
}

// CanCancel validates that a cancel transition is allowed. A purchase that
// already carries cancel=true is reported via already-exists so callers can
// treat the call as an idempotent success.
func (r *Record) CanCancel() error {
	if r.PurchaseID == "" {
		return domainErrors.New(domainErrors.KindNotFound, "purchase has not been created")
	}
	if r.Cancel {
		return domainErrors.New(domainErrors.KindAlreadyExists, "purchase is already cancelled")
	}
	if r.Capture || r.Success {
		return domainErrors.New(domainErrors.KindFailedPrecondition, "purchase has been captured, use refund instead")
	}
	return nil
}

// CanRefund validates that a refund of the given amount is allowed
// (0 means refund everything still remaining).
func (r *Record) CanRefund(amount int64) error {
	if r.PurchaseID == "" {
		return domainErrors.New(domainErrors.KindNotFound, "purchase has not been created")
	}
	if !r.Capture || !r.Success {
		return domainErrors.New(domainErrors.KindFailedPrecondition, "purchase has not been captured")
	}
	if amount < 0 || amount > r.Remaining() {
		return domainErrors.Newf(domainErrors.KindInvalidArgument, "refund amount %d exceeds remaining amount %d", amount, r.Remaining())
	}
	return nil
}
