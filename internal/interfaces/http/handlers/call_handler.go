package handlers

import (
	"context"
	"net/http"
	"time"

	purchaseApp "github.com/cassiomorais/checkout/internal/application/purchase"
	"github.com/cassiomorais/checkout/internal/dispatch"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/infrastructure/observability"
	"github.com/cassiomorais/checkout/internal/interfaces/http/dto"
)

// Mode names accepted by the invocation surface.
const (
	ModeCreatePurchase       = "create_purchase"
	ModeConfirmPurchase      = "confirm_purchase"
	ModeCapturePurchase      = "capture_purchase"
	ModeRefreshPurchase      = "refresh_purchase"
	ModeCancelPurchase       = "cancel_purchase"
	ModeRefundPurchase       = "refund_purchase"
	ModeAuthorization        = "authorization"
	ModeConfirmAuthorization = "confirm_authorization"
	ModeCreateAccount        = "create_account"
	ModeDeleteAccount        = "delete_account"
	ModeAccountDashboard     = "account_dashboard"
	ModeCreateCustomer       = "create_customer"
	ModeDeleteCustomer       = "delete_customer"
	ModeAttachMethod         = "attach_payment_method"
	ModeSetDefaultMethod     = "set_default_payment_method"
	ModeDetachMethod         = "detach_payment_method"
	ModeBeginSubscription    = "begin_subscription"
	ModeCancelSubscription   = "cancel_subscription"
)

// CallHandler multiplexes the single invocation entry point by mode and
// fans the call out across the configured database backends.
type CallHandler struct {
	fanout  *dispatch.Fanout
	metrics *observability.Metrics
}

func NewCallHandler(fanout *dispatch.Fanout, metrics *observability.Metrics) *CallHandler {
	return &CallHandler{fanout: fanout, metrics: metrics}
}

// Call handles POST /v1/call
func (h *CallHandler) Call(w http.ResponseWriter, r *http.Request) {
	var req dto.CallRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	start := time.Now()
	out, err := h.dispatch(r.Context(), req)

	if h.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = string(domainErrors.KindOf(err))
		}
		h.metrics.TransitionsTotal.WithLabelValues(req.Mode, outcome).Inc()
		h.metrics.TransitionDuration.WithLabelValues(req.Mode).Observe(time.Since(start).Seconds())
	}

	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *CallHandler) dispatch(ctx context.Context, req dto.CallRequest) (any, error) {
	return h.fanout.Do(ctx, req.Mode, func(ctx context.Context, b dispatch.Backend) (any, error) {
		switch req.Mode {
		case ModeCreatePurchase:
			purchaseID, err := b.Purchases.Create(ctx, purchaseApp.CreateRequest{
				UserID:       req.UserID,
				OrderID:      req.OrderID,
				Amount:       req.Amount,
				Currency:     req.Currency,
				Description:  req.Description,
				Email:        req.Email,
				TargetUserID: req.TargetUserID,
				RevenueRatio: req.RevenueRatio,
			})
			if err != nil {
				return nil, err
			}
			return dto.PurchaseResponse{PurchaseID: purchaseID}, nil

		case ModeConfirmPurchase:
			res, err := b.Purchases.Confirm(ctx, purchaseApp.ConfirmRequest{
				UserID:    req.UserID,
				OrderID:   req.OrderID,
				ReturnURL: req.ReturnURL,
				Online:    req.IsOnline(),
			})
			if err != nil {
				return nil, err
			}
			if res.RequiresAction {
				return dto.RedirectResponse{URL: res.URL, ReturnURL: res.ReturnURL, PurchaseID: res.PurchaseID}, nil
			}
			return dto.PurchaseResponse{PurchaseID: res.PurchaseID}, nil

		case ModeCapturePurchase:
			purchaseID, err := b.Purchases.Capture(ctx, purchaseApp.CaptureRequest{
				UserID:  req.UserID,
				OrderID: req.OrderID,
				Amount:  req.Amount,
			})
			if err != nil {
				return nil, err
			}
			return dto.PurchaseResponse{PurchaseID: purchaseID}, nil

		case ModeRefreshPurchase:
			err := b.Purchases.Refresh(ctx, purchaseApp.RefreshRequest{UserID: req.UserID, OrderID: req.OrderID})
			if err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeCancelPurchase:
			err := b.Purchases.Cancel(ctx, purchaseApp.CancelRequest{UserID: req.UserID, OrderID: req.OrderID})
			if err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeRefundPurchase:
			err := b.Purchases.Refund(ctx, purchaseApp.RefundRequest{
				UserID:  req.UserID,
				OrderID: req.OrderID,
				Amount:  req.Amount,
			})
			if err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeAuthorization:
			res, err := b.Purchases.Authorize(ctx, purchaseApp.AuthorizeRequest{
				UserID:    req.UserID,
				Amount:    req.Amount,
				Currency:  req.Currency,
				Email:     req.Email,
				ReturnURL: req.ReturnURL,
			})
			if err != nil {
				return nil, err
			}
			if res.RequiresAction {
				return dto.RedirectResponse{URL: res.URL, ReturnURL: res.ReturnURL, PurchaseID: res.PurchaseID}, nil
			}
			return dto.PurchaseResponse{PurchaseID: res.PurchaseID}, nil

		case ModeConfirmAuthorization:
			if err := b.Purchases.ConfirmAuthorization(ctx, req.PurchaseID); err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeCreateAccount:
			status, err := b.Directory.EnsureSeller(ctx, req.UserID, req.Locale)
			if err != nil {
				return nil, err
			}
			return dto.AccountResponse{AccountID: status.AccountID, URL: status.OnboardingURL, Complete: status.Complete}, nil

		case ModeDeleteAccount:
			if err := b.Directory.DeleteSeller(ctx, req.UserID); err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeAccountDashboard:
			url, err := b.Directory.DashboardLink(ctx, req.UserID)
			if err != nil {
				return nil, err
			}
			return dto.LinkResponse{URL: url}, nil

		case ModeCreateCustomer:
			customerID, err := b.Directory.EnsureBuyer(ctx, req.UserID, req.Email)
			if err != nil {
				return nil, err
			}
			return dto.CustomerResponse{CustomerID: customerID}, nil

		case ModeDeleteCustomer:
			if err := b.Directory.DeleteBuyer(ctx, req.UserID); err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeAttachMethod:
			url, err := b.Methods.BeginAttach(ctx, req.UserID)
			if err != nil {
				return nil, err
			}
			return dto.LinkResponse{URL: url}, nil

		case ModeSetDefaultMethod:
			if err := b.Methods.SetDefault(ctx, req.UserID, req.MethodID); err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeDetachMethod:
			if err := b.Methods.Detach(ctx, req.UserID, req.MethodID); err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		case ModeBeginSubscription:
			url, err := b.Subscriptions.Begin(ctx, req.UserID, req.PriceID)
			if err != nil {
				return nil, err
			}
			return dto.LinkResponse{URL: url}, nil

		case ModeCancelSubscription:
			if err := b.Subscriptions.CancelAtPeriodEnd(ctx, req.Subscription); err != nil {
				return nil, err
			}
			return dto.SuccessResponse{Success: true}, nil

		default:
			return nil, domainErrors.Newf(domainErrors.KindInvalidArgument, "unknown mode %q", req.Mode)
		}
	})
}
