package stripegw

import (
	"context"
	"errors"
	"net/http"
	"time"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/sony/gobreaker/v2"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
)

// Gateway is the Stripe-backed implementation of gateway.Gateway. Every call
// runs through a shared circuit breaker so a misbehaving gateway fails fast
// instead of tying up invocations.
type Gateway struct {
	api     *client.API
	breaker *gobreaker.CircuitBreaker[any]
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a Gateway using the given secret API key.
func New(apiKey string) *Gateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return newWithAPI(api)
}

func newWithAPI(api *client.API) *Gateway {
	return &Gateway{
		api: api,
		breaker: gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        "stripe",
			MaxRequests: 10,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests >= 10 && failureRatio >= 0.6
			},
		}),
	}
}

// execute runs fn through the breaker and normalizes Stripe errors into the
// domain error taxonomy.
func execute[T any](g *Gateway, fn func() (T, error)) (T, error) {
	var zero T
	res, err := g.breaker.Execute(func() (any, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, domainErrors.Wrap(domainErrors.KindUnavailable, "payment gateway unavailable", err)
		}
		return zero, wrapStripeError(err)
	}
	v, ok := res.(T)
	if !ok {
		return zero, domainErrors.New(domainErrors.KindUnknown, "unexpected gateway response type")
	}
	return v, nil
}

func wrapStripeError(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		if se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing {
			return domainErrors.Wrap(domainErrors.KindNotFound, "gateway object not found", err)
		}
		return domainErrors.Wrap(domainErrors.KindUnknown, "gateway error: "+se.Msg, err)
	}
	return domainErrors.Wrap(domainErrors.KindUnknown, "gateway error", err)
}

func customerFromStripe(c *stripe.Customer) *gateway.Customer {
	out := &gateway.Customer{ID: c.ID, Email: c.Email}
	if c.InvoiceSettings != nil && c.InvoiceSettings.DefaultPaymentMethod != nil {
		out.InvoiceDefaultMethod = c.InvoiceSettings.DefaultPaymentMethod.ID
	}
	return out
}

func accountFromStripe(a *stripe.Account) *gateway.Account {
	out := &gateway.Account{ID: a.ID}
	if a.Capabilities != nil {
		out.TransfersActive = a.Capabilities.Transfers == stripe.AccountCapabilityStatusActive
	}
	return out
}

func intentFromStripe(pi *stripe.PaymentIntent) *gateway.Intent {
	out := &gateway.Intent{
		ID:             pi.ID,
		Status:         gateway.IntentStatus(pi.Status),
		Amount:         pi.Amount,
		Currency:       string(pi.Currency),
		ApplicationFee: pi.ApplicationFeeAmount,
	}
	if pi.Customer != nil {
		out.CustomerID = pi.Customer.ID
	}
	if pi.PaymentMethod != nil {
		out.PaymentMethod = pi.PaymentMethod.ID
	}
	if pi.TransferData != nil && pi.TransferData.Destination != nil {
		out.TransferDestination = pi.TransferData.Destination.ID
	}
	if pi.NextAction != nil && pi.NextAction.RedirectToURL != nil {
		out.NextActionURL = pi.NextAction.RedirectToURL.URL
		out.NextActionReturnURL = pi.NextAction.RedirectToURL.ReturnURL
	}
	return out
}

func (g *Gateway) CreateCustomer(ctx context.Context, email string) (*gateway.Customer, error) {
	return execute(g, func() (*gateway.Customer, error) {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		if email != "" {
			params.Email = stripe.String(email)
		}
		c, err := g.api.Customers.New(params)
		if err != nil {
			return nil, err
		}
		return customerFromStripe(c), nil
	})
}

func (g *Gateway) RetrieveCustomer(ctx context.Context, customerID string) (*gateway.Customer, error) {
	return execute(g, func() (*gateway.Customer, error) {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		c, err := g.api.Customers.Get(customerID, params)
		if err != nil {
			return nil, err
		}
		return customerFromStripe(c), nil
	})
}

func (g *Gateway) SetCustomerDefaultMethod(ctx context.Context, customerID, methodID string) error {
	_, err := execute(g, func() (*gateway.Customer, error) {
		params := &stripe.CustomerParams{
			InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
				DefaultPaymentMethod: stripe.String(methodID),
			},
		}
		params.Context = ctx
		c, err := g.api.Customers.Update(customerID, params)
		if err != nil {
			return nil, err
		}
		return customerFromStripe(c), nil
	})
	return err
}

func (g *Gateway) DeleteCustomer(ctx context.Context, customerID string) error {
	_, err := execute(g, func() (struct{}, error) {
		params := &stripe.CustomerParams{}
		params.Context = ctx
		_, err := g.api.Customers.Del(customerID, params)
		return struct{}{}, err
	})
	return err
}

func (g *Gateway) CreateAccount(ctx context.Context, email string) (*gateway.Account, error) {
	return execute(g, func() (*gateway.Account, error) {
		params := &stripe.AccountParams{
			Type: stripe.String(string(stripe.AccountTypeExpress)),
			Capabilities: &stripe.AccountCapabilitiesParams{
				Transfers: &stripe.AccountCapabilitiesTransfersParams{
					Requested: stripe.Bool(true),
				},
			},
		}
		params.Context = ctx
		if email != "" {
			params.Email = stripe.String(email)
		}
		a, err := g.api.Accounts.New(params)
		if err != nil {
			return nil, err
		}
		return accountFromStripe(a), nil
	})
}

func (g *Gateway) RetrieveAccount(ctx context.Context, accountID string) (*gateway.Account, error) {
	return execute(g, func() (*gateway.Account, error) {
		params := &stripe.AccountParams{}
		params.Context = ctx
		a, err := g.api.Accounts.GetByID(accountID, params)
		if err != nil {
			return nil, err
		}
		return accountFromStripe(a), nil
	})
}

func (g *Gateway) AccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	return execute(g, func() (string, error) {
		params := &stripe.AccountLinkParams{
			Account:    stripe.String(accountID),
			RefreshURL: stripe.String(refreshURL),
			ReturnURL:  stripe.String(returnURL),
			Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
		}
		params.Context = ctx
		l, err := g.api.AccountLinks.New(params)
		if err != nil {
			return "", err
		}
		return l.URL, nil
	})
}

func (g *Gateway) LoginLink(ctx context.Context, accountID string) (string, error) {
	return execute(g, func() (string, error) {
		params := &stripe.LoginLinkParams{Account: stripe.String(accountID)}
		params.Context = ctx
		l, err := g.api.LoginLinks.New(params)
		if err != nil {
			return "", err
		}
		return l.URL, nil
	})
}

func (g *Gateway) DeleteAccount(ctx context.Context, accountID string) error {
	_, err := execute(g, func() (struct{}, error) {
		params := &stripe.AccountParams{}
		params.Context = ctx
		_, err := g.api.Accounts.Del(accountID, params)
		return struct{}{}, err
	})
	return err
}

func (g *Gateway) RetrievePaymentMethod(ctx context.Context, methodID string) (*gateway.PaymentMethod, error) {
	return execute(g, func() (*gateway.PaymentMethod, error) {
		params := &stripe.PaymentMethodParams{}
		params.Context = ctx
		pm, err := g.api.PaymentMethods.Get(methodID, params)
		if err != nil {
			return nil, err
		}
		out := &gateway.PaymentMethod{ID: pm.ID}
		if pm.BillingDetails != nil {
			out.BillingEmail = pm.BillingDetails.Email
		}
		return out, nil
	})
}

func (g *Gateway) DetachPaymentMethod(ctx context.Context, methodID string) error {
	_, err := execute(g, func() (struct{}, error) {
		params := &stripe.PaymentMethodDetachParams{}
		params.Context = ctx
		_, err := g.api.PaymentMethods.Detach(methodID, params)
		return struct{}{}, err
	})
	return err
}

func (g *Gateway) CheckoutSetupSession(ctx context.Context, customerID, successURL, cancelURL string) (string, error) {
	return execute(g, func() (string, error) {
		params := &stripe.CheckoutSessionParams{
			Mode:               stripe.String(string(stripe.CheckoutSessionModeSetup)),
			Customer:           stripe.String(customerID),
			SuccessURL:         stripe.String(successURL),
			CancelURL:          stripe.String(cancelURL),
			PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		}
		params.Context = ctx
		s, err := g.api.CheckoutSessions.New(params)
		if err != nil {
			return "", err
		}
		return s.URL, nil
	})
}

func (g *Gateway) CheckoutSubscriptionSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	return execute(g, func() (string, error) {
		params := &stripe.CheckoutSessionParams{
			Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
			Customer:   stripe.String(customerID),
			SuccessURL: stripe.String(successURL),
			CancelURL:  stripe.String(cancelURL),
			LineItems: []*stripe.CheckoutSessionLineItemParams{
				{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
			},
		}
		params.Context = ctx
		s, err := g.api.CheckoutSessions.New(params)
		if err != nil {
			return "", err
		}
		return s.URL, nil
	})
}

func (g *Gateway) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	_, err := execute(g, func() (struct{}, error) {
		params := &stripe.SubscriptionParams{
			CancelAtPeriodEnd: stripe.Bool(true),
		}
		params.Context = ctx
		_, err := g.api.Subscriptions.Update(subscriptionID, params)
		return struct{}{}, err
	})
	return err
}

func (g *Gateway) CreateIntent(ctx context.Context, p gateway.CreateIntentParams) (*gateway.Intent, error) {
	return execute(g, func() (*gateway.Intent, error) {
		params := &stripe.PaymentIntentParams{
			Amount:           stripe.Int64(p.Amount),
			Currency:         stripe.String(p.Currency),
			Customer:         stripe.String(p.CustomerID),
			PaymentMethod:    stripe.String(p.PaymentMethod),
			CaptureMethod:    stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
			SetupFutureUsage: stripe.String(string(stripe.PaymentIntentSetupFutureUsageOffSession)),
		}
		params.Context = ctx
		if p.Description != "" {
			params.Description = stripe.String(p.Description)
		}
		if p.ReceiptEmail != "" {
			params.ReceiptEmail = stripe.String(p.ReceiptEmail)
		}
		if p.TransferDestination != "" {
			params.TransferData = &stripe.PaymentIntentTransferDataParams{
				Destination: stripe.String(p.TransferDestination),
			}
			params.ApplicationFeeAmount = stripe.Int64(p.ApplicationFee)
		}
		if p.IdempotencyKey != "" {
			params.SetIdempotencyKey(p.IdempotencyKey)
		}
		pi, err := g.api.PaymentIntents.New(params)
		if err != nil {
			return nil, err
		}
		return intentFromStripe(pi), nil
	})
}

func (g *Gateway) RetrieveIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	return execute(g, func() (*gateway.Intent, error) {
		params := &stripe.PaymentIntentParams{}
		params.Context = ctx
		pi, err := g.api.PaymentIntents.Get(intentID, params)
		if err != nil {
			return nil, err
		}
		return intentFromStripe(pi), nil
	})
}

func (g *Gateway) ConfirmIntent(ctx context.Context, intentID, returnURL string) (*gateway.Intent, error) {
	return execute(g, func() (*gateway.Intent, error) {
		params := &stripe.PaymentIntentConfirmParams{}
		params.Context = ctx
		if returnURL != "" {
			params.ReturnURL = stripe.String(returnURL)
		}
		pi, err := g.api.PaymentIntents.Confirm(intentID, params)
		if err != nil {
			return nil, err
		}
		return intentFromStripe(pi), nil
	})
}

func (g *Gateway) CaptureIntent(ctx context.Context, intentID string, amount int64) (*gateway.Intent, error) {
	return execute(g, func() (*gateway.Intent, error) {
		params := &stripe.PaymentIntentCaptureParams{}
		params.Context = ctx
		if amount > 0 {
			params.AmountToCapture = stripe.Int64(amount)
		}
		pi, err := g.api.PaymentIntents.Capture(intentID, params)
		if err != nil {
			return nil, err
		}
		return intentFromStripe(pi), nil
	})
}

func (g *Gateway) CancelIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	return execute(g, func() (*gateway.Intent, error) {
		params := &stripe.PaymentIntentCancelParams{}
		params.Context = ctx
		pi, err := g.api.PaymentIntents.Cancel(intentID, params)
		if err != nil {
			return nil, err
		}
		return intentFromStripe(pi), nil
	})
}

func (g *Gateway) UpdateIntentMethod(ctx context.Context, intentID, methodID string) (*gateway.Intent, error) {
	return execute(g, func() (*gateway.Intent, error) {
		params := &stripe.PaymentIntentParams{
			PaymentMethod: stripe.String(methodID),
		}
		params.Context = ctx
		pi, err := g.api.PaymentIntents.Update(intentID, params)
		if err != nil {
			return nil, err
		}
		return intentFromStripe(pi), nil
	})
}

func (g *Gateway) CreateRefund(ctx context.Context, intentID string, amount int64) (string, error) {
	return execute(g, func() (string, error) {
		params := &stripe.RefundParams{
			PaymentIntent: stripe.String(intentID),
		}
		params.Context = ctx
		if amount > 0 {
			params.Amount = stripe.Int64(amount)
		}
		r, err := g.api.Refunds.New(params)
		if err != nil {
			return "", err
		}
		return r.ID, nil
	})
}
