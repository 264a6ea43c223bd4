package stripegw

import (
	"errors"
	"net/http"
	"testing"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/gateway"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stretchr/testify/assert"
)

func TestWrapStripeError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected domainErrors.Kind
	}{
		{
			name:     "http 404",
			err:      &stripe.Error{HTTPStatusCode: http.StatusNotFound, Msg: "No such payment_intent"},
			expected: domainErrors.KindNotFound,
		},
		{
			name:     "resource missing code",
			err:      &stripe.Error{Code: stripe.ErrorCodeResourceMissing, Msg: "No such customer"},
			expected: domainErrors.KindNotFound,
		},
		{
			name:     "card declined",
			err:      &stripe.Error{HTTPStatusCode: http.StatusPaymentRequired, Msg: "Your card was declined."},
			expected: domainErrors.KindUnknown,
		},
		{
			name:     "plain error",
			err:      errors.New("connection reset"),
			expected: domainErrors.KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := wrapStripeError(tt.err)
			assert.Equal(t, tt.expected, domainErrors.KindOf(wrapped))
			assert.True(t, errors.Is(wrapped, tt.err))
		})
	}
}

func TestIntentFromStripe(t *testing.T) {
	pi := &stripe.PaymentIntent{
		ID:       "pi_1",
		Status:   stripe.PaymentIntentStatusRequiresAction,
		Amount:   1000,
		Currency: stripe.CurrencyUSD,
		NextAction: &stripe.PaymentIntentNextAction{
			RedirectToURL: &stripe.PaymentIntentNextActionRedirectToURL{
				URL:       "https://auth.test/3ds",
				ReturnURL: "https://shop.test/return",
			},
		},
	}

	intent := intentFromStripe(pi)
	assert.Equal(t, gateway.StatusRequiresAction, intent.Status)
	assert.Equal(t, "https://auth.test/3ds", intent.NextActionURL)
	assert.True(t, intent.RequiresAction())
}

func TestIntentFromStripe_NoRedirect(t *testing.T) {
	pi := &stripe.PaymentIntent{
		ID:     "pi_1",
		Status: stripe.PaymentIntentStatusRequiresCapture,
		Amount: 1000,
	}

	intent := intentFromStripe(pi)
	assert.Equal(t, gateway.StatusRequiresCapture, intent.Status)
	assert.False(t, intent.RequiresAction())
}

func TestAccountFromStripe(t *testing.T) {
	acct := accountFromStripe(&stripe.Account{
		ID: "acct_1",
		Capabilities: &stripe.AccountCapabilities{
			Transfers: stripe.AccountCapabilityStatusActive,
		},
	})
	assert.True(t, acct.TransfersActive)

	acct = accountFromStripe(&stripe.Account{ID: "acct_2"})
	assert.False(t, acct.TransfersActive)
}

func TestExecute_BreakerOpenMapsToUnavailable(t *testing.T) {
	g := New("sk_test_key")

	// Trip the breaker with enough consecutive failures.
	for i := 0; i < 15; i++ {
		_, _ = execute(g, func() (struct{}, error) {
			return struct{}{}, errors.New("boom")
		})
	}

	_, err := execute(g, func() (struct{}, error) {
		return struct{}{}, nil
	})
	assert.Equal(t, domainErrors.KindUnavailable, domainErrors.KindOf(err))
}
