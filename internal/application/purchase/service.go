package purchase

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/cassiomorais/checkout/internal/notify"
	"github.com/rs/zerolog"
)

// Remediation messages persisted on the Record when a gateway call fails.
// The Record is the only durable signal that a caller-initiated refresh is
// needed, so the message must say what to do next.
const (
	confirmFailedMessage = "confirming the purchase failed, update the default payment method and refresh the purchase"
	captureFailedMessage = "capturing the purchase failed, update the default payment method and refresh the purchase"
	cancelFailedMessage  = "cancelling the purchase failed, retry the cancellation"
	refundFailedMessage  = "refunding the purchase failed, retry the refund"
	noChannelMessage     = "strong authentication is required but no notification channel is configured"
	sendFailedMessage    = "strong authentication is required but the notification could not be delivered"
)

const casAttempts = 3

// Options carries the out-of-band notification template. Body contains the
// {url} placeholder substituted with the authentication URL.
type Options struct {
	NotifyFrom  string
	NotifyTitle string
	NotifyBody  string
}

// Service drives the purchase state machine: create, confirm, capture,
// refresh, cancel, refund, plus the unpersisted authorization pre-check.
type Service struct {
	records  RecordStore
	dir      AccountDirectory
	methods  MethodResolver
	gw       gateway.Gateway
	notifier notify.Notifier
	opts     Options
	log      zerolog.Logger
}

func NewService(
	records RecordStore,
	dir AccountDirectory,
	methods MethodResolver,
	gw gateway.Gateway,
	notifier notify.Notifier,
	opts Options,
	log zerolog.Logger,
) *Service {
	return &Service{
		records:  records,
		dir:      dir,
		methods:  methods,
		gw:       gw,
		notifier: notifier,
		opts:     opts,
		log:      log,
	}
}

// applyGuarded writes a transition under the CAS contract. transition
// derives the patch from the current record (revalidating preconditions);
// on contention the record is re-read and the transition recomputed, bounded
// by casAttempts.
func (s *Service) applyGuarded(
	ctx context.Context,
	userID, orderID string,
	rec *purchase.Record,
	transition func(rec *purchase.Record) (document.Patch, error),
) error {
	return retry.Do(
		func() error {
			patch, err := transition(rec)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			err = s.records.Update(ctx, userID, orderID, rec.FlagSet(), patch)
			if err == nil {
				return nil
			}
			if !domainErrors.IsKind(err, domainErrors.KindAborted) {
				return retry.Unrecoverable(err)
			}
			fresh, getErr := s.records.Get(ctx, userID, orderID)
			if getErr != nil {
				return retry.Unrecoverable(getErr)
			}
			rec = fresh
			return err
		},
		retry.Context(ctx),
		retry.Attempts(casAttempts),
		retry.Delay(20*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// markError records a transient gateway failure on the Record. The write is
// an unconditional merge: the error flag never changes the progress flags
// and last-writer-wins is acceptable for it.
func (s *Service) markError(ctx context.Context, userID, orderID, message string) {
	err := s.records.Merge(ctx, userID, orderID, document.Patch{
		purchase.FieldError:        true,
		purchase.FieldErrorMessage: message,
	})
	if err != nil {
		s.log.Error().Err(err).
			Str("user_id", userID).
			Str("order_id", orderID).
			Msg("failed to persist error state on purchase record")
	}
}

func requireArg(name, value string) error {
	if value == "" {
		return domainErrors.Newf(domainErrors.KindInvalidArgument, "%s is required", name)
	}
	return nil
}
