package gateway

import (
	"context"
)

// IntentStatus is the gateway-side lifecycle status of a payment intent.
type IntentStatus string

const (
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusRequiresConfirmation  IntentStatus = "requires_confirmation"
	StatusRequiresAction        IntentStatus = "requires_action"
	StatusProcessing            IntentStatus = "processing"
	StatusRequiresCapture       IntentStatus = "requires_capture"
	StatusSucceeded             IntentStatus = "succeeded"
	StatusCanceled              IntentStatus = "canceled"
)

// Intent is the gateway's view of a single authorize/capture attempt.
// NextActionURL is set while a redirect-based authentication step is
// outstanding.
type Intent struct {
	ID                  string
	Status              IntentStatus
	Amount              int64
	Currency            string
	CustomerID          string
	PaymentMethod       string
	ApplicationFee      int64
	TransferDestination string
	NextActionURL       string
	NextActionReturnURL string
}

// RequiresAction reports whether the payer still has a redirect step to
// complete before the intent can be captured.
func (i *Intent) RequiresAction() bool {
	return i.Status == StatusRequiresAction && i.NextActionURL != ""
}

// Customer is the gateway's buyer object.
type Customer struct {
	ID                   string
	Email                string
	InvoiceDefaultMethod string
}

// Account is the gateway's connected payable (seller) account.
type Account struct {
	ID              string
	TransfersActive bool
}

// PaymentMethod is a saved card with its billing contact.
type PaymentMethod struct {
	ID           string
	BillingEmail string
}

// CreateIntentParams are the terms of a new manual-capture intent. When
// TransferDestination is set the intent is a split marketplace payment with
// ApplicationFee retained by the platform. IdempotencyKey guards against a
// retried create charging twice.
type CreateIntentParams struct {
	CustomerID          string
	PaymentMethod       string
	Amount              int64
	Currency            string
	Description         string
	ReceiptEmail        string
	ApplicationFee      int64
	TransferDestination string
	IdempotencyKey      string
}

// Gateway is the payment gateway boundary. All amounts are integers in the
// gateway's minor currency unit.
type Gateway interface {
	CreateCustomer(ctx context.Context, email string) (*Customer, error)
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)
	SetCustomerDefaultMethod(ctx context.Context, customerID, methodID string) error
	DeleteCustomer(ctx context.Context, customerID string) error

	CreateAccount(ctx context.Context, email string) (*Account, error)
	RetrieveAccount(ctx context.Context, accountID string) (*Account, error)
	AccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	LoginLink(ctx context.Context, accountID string) (string, error)
	DeleteAccount(ctx context.Context, accountID string) error

	RetrievePaymentMethod(ctx context.Context, methodID string) (*PaymentMethod, error)
	DetachPaymentMethod(ctx context.Context, methodID string) error

	CheckoutSetupSession(ctx context.Context, customerID, successURL, cancelURL string) (string, error)
	CheckoutSubscriptionSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) error

	CreateIntent(ctx context.Context, params CreateIntentParams) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
	ConfirmIntent(ctx context.Context, intentID, returnURL string) (*Intent, error)
	CaptureIntent(ctx context.Context, intentID string, amount int64) (*Intent, error)
	CancelIntent(ctx context.Context, intentID string) (*Intent, error)
	UpdateIntentMethod(ctx context.Context, intentID, methodID string) (*Intent, error)
	CreateRefund(ctx context.Context, intentID string, amount int64) (string, error)
}
