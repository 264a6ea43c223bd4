package testutil

import (
	"context"
	"sync"

	"github.com/cassiomorais/checkout/internal/domain/account"
	"github.com/cassiomorais/checkout/internal/domain/document"
	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/cassiomorais/checkout/internal/domain/purchase"
	"github.com/cassiomorais/checkout/internal/gateway"
	"github.com/cassiomorais/checkout/internal/notify"
)

// --- Purchase Record Store Mock ---

// MockRecordStore is an in-memory RecordStore honoring the same
// compare-and-set contract as the Firestore implementation, so transition
// tests exercise real guard behavior.
type MockRecordStore struct {
	mu      sync.Mutex
	records map[string]*purchase.Record

	GetFunc    func(ctx context.Context, userID, orderID string) (*purchase.Record, error)
	CreateFunc func(ctx context.Context, userID string, rec *purchase.Record) error
	MergeFunc  func(ctx context.Context, userID, orderID string, patch document.Patch) error
	UpdateFunc func(ctx context.Context, userID, orderID string, guard purchase.Flags, patch document.Patch) error
}

func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{records: make(map[string]*purchase.Record)}
}

func recordKey(userID, orderID string) string { return userID + "/" + orderID }

// AddRecord pre-populates the store with a record.
func (m *MockRecordStore) AddRecord(userID string, rec *purchase.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[recordKey(userID, rec.OrderID)] = &cp
}

// Record returns the stored record (test helper, no context needed).
func (m *MockRecordStore) Record(userID, orderID string) *purchase.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey(userID, orderID)]
	if !ok {
		return nil
	}
	cp := *rec
	return &cp
}

func (m *MockRecordStore) Get(ctx context.Context, userID, orderID string) (*purchase.Record, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, orderID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey(userID, orderID)]
	if !ok {
		return nil, domainErrors.Newf(domainErrors.KindNotFound, "purchase record %s not found", orderID)
	}
	cp := *rec
	return &cp, nil
}

func (m *MockRecordStore) Create(ctx context.Context, userID string, rec *purchase.Record) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, rec)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[recordKey(userID, rec.OrderID)] = &cp
	return nil
}

func (m *MockRecordStore) Merge(ctx context.Context, userID, orderID string, patch document.Patch) error {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, userID, orderID, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey(userID, orderID)]
	if !ok {
		rec = &purchase.Record{OrderID: orderID}
		m.records[recordKey(userID, orderID)] = rec
	}
	applyRecordPatch(rec, patch)
	return nil
}

func (m *MockRecordStore) Update(ctx context.Context, userID, orderID string, guard purchase.Flags, patch document.Patch) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, userID, orderID, guard, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[recordKey(userID, orderID)]
	if !ok {
		return domainErrors.Newf(domainErrors.KindNotFound, "purchase record %s not found", orderID)
	}
	if rec.FlagSet() != guard {
		return domainErrors.New(domainErrors.KindAborted, "purchase record changed concurrently")
	}
	applyRecordPatch(rec, patch)
	return nil
}

func applyRecordPatch(rec *purchase.Record, patch document.Patch) {
	for field, v := range patch {
		del := document.IsDelete(v)
		switch field {
		case purchase.FieldConfirm:
			rec.Confirm = !del && v.(bool)
		case purchase.FieldVerify:
			rec.Verify = !del && v.(bool)
		case purchase.FieldCapture:
			rec.Capture = !del && v.(bool)
		case purchase.FieldSuccess:
			rec.Success = !del && v.(bool)
		case purchase.FieldCancel:
			rec.Cancel = !del && v.(bool)
		case purchase.FieldRefund:
			rec.Refund = !del && v.(bool)
		case purchase.FieldError:
			rec.Error = !del && v.(bool)
		case purchase.FieldErrorMessage:
			if del {
				rec.ErrorMessage = ""
			} else {
				rec.ErrorMessage = v.(string)
			}
		case purchase.FieldRefundedAmount:
			if del {
				rec.RefundedAmount = 0
			} else {
				rec.RefundedAmount = v.(int64)
			}
		case purchase.FieldPaymentMethod:
			if del {
				rec.PaymentMethod = ""
			} else {
				rec.PaymentMethod = v.(string)
			}
		case purchase.FieldNextAction:
			if del {
				rec.NextAction = nil
			} else if next, ok := v.(map[string]any); ok {
				rec.NextAction = &purchase.NextAction{
					URL:       next["url"].(string),
					ReturnURL: next["returnUrl"].(string),
				}
			}
		}
	}
}

// --- Account Link Store Mock ---

// MockLinkStore is an in-memory LinkStore with merge semantics matching the
// Firestore implementation: a missing document reads as an empty link.
type MockLinkStore struct {
	mu    sync.Mutex
	links map[string]*account.Link

	GetFunc   func(ctx context.Context, userID string) (*account.Link, error)
	MergeFunc func(ctx context.Context, userID string, patch document.Patch) error
}

func NewMockLinkStore() *MockLinkStore {
	return &MockLinkStore{links: make(map[string]*account.Link)}
}

// AddLink pre-populates the store with a link.
func (m *MockLinkStore) AddLink(link *account.Link) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *link
	m.links[link.UserID] = &cp
}

// Link returns the stored link (test helper, no context needed).
func (m *MockLinkStore) Link(userID string) *account.Link {
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[userID]
	if !ok {
		return nil
	}
	cp := *link
	return &cp
}

func (m *MockLinkStore) Get(ctx context.Context, userID string) (*account.Link, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[userID]
	if !ok {
		return &account.Link{UserID: userID}, nil
	}
	cp := *link
	return &cp, nil
}

func (m *MockLinkStore) Merge(ctx context.Context, userID string, patch document.Patch) error {
	if m.MergeFunc != nil {
		return m.MergeFunc(ctx, userID, patch)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[userID]
	if !ok {
		link = &account.Link{UserID: userID}
		m.links[userID] = link
	}
	for field, v := range patch {
		del := document.IsDelete(v)
		switch field {
		case account.FieldCustomerID:
			if del {
				link.CustomerID = ""
			} else {
				link.CustomerID = v.(string)
			}
		case account.FieldAccountID:
			if del {
				link.AccountID = ""
			} else {
				link.AccountID = v.(string)
			}
		case account.FieldDefaultPaymentMethod:
			if del {
				link.DefaultPaymentMethod = ""
			} else {
				link.DefaultPaymentMethod = v.(string)
			}
		case account.FieldTransfersActive:
			link.TransfersActive = !del && v.(bool)
		}
	}
	return nil
}

// --- Payment Method Store Mock ---

// MockMethodStore is an in-memory saved payment method sub-collection.
type MockMethodStore struct {
	mu      sync.Mutex
	methods map[string][]account.Method

	ListMethodsFunc  func(ctx context.Context, userID string) ([]account.Method, error)
	GetMethodFunc    func(ctx context.Context, userID, methodID string) (*account.Method, error)
	DeleteMethodFunc func(ctx context.Context, userID, methodID string) error
}

func NewMockMethodStore() *MockMethodStore {
	return &MockMethodStore{methods: make(map[string][]account.Method)}
}

// AddMethod pre-populates the sub-collection, preserving insertion order.
func (m *MockMethodStore) AddMethod(userID string, method account.Method) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.methods[userID] = append(m.methods[userID], method)
}

func (m *MockMethodStore) ListMethods(ctx context.Context, userID string) ([]account.Method, error) {
	if m.ListMethodsFunc != nil {
		return m.ListMethodsFunc(ctx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]account.Method(nil), m.methods[userID]...), nil
}

func (m *MockMethodStore) GetMethod(ctx context.Context, userID, methodID string) (*account.Method, error) {
	if m.GetMethodFunc != nil {
		return m.GetMethodFunc(ctx, userID, methodID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, method := range m.methods[userID] {
		if method.MethodID == methodID {
			cp := method
			return &cp, nil
		}
	}
	return nil, domainErrors.Newf(domainErrors.KindNotFound, "payment method %s not found", methodID)
}

func (m *MockMethodStore) DeleteMethod(ctx context.Context, userID, methodID string) error {
	if m.DeleteMethodFunc != nil {
		return m.DeleteMethodFunc(ctx, userID, methodID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.methods[userID][:0]
	for _, method := range m.methods[userID] {
		if method.MethodID != methodID {
			kept = append(kept, method)
		}
	}
	m.methods[userID] = kept
	return nil
}

// --- Gateway Mock ---

// MockGateway is a mock implementation of gateway.Gateway. Unset func fields
// return canned happy-path objects so tests only stub what they assert on.
type MockGateway struct {
	CreateCustomerFunc           func(ctx context.Context, email string) (*gateway.Customer, error)
	RetrieveCustomerFunc         func(ctx context.Context, customerID string) (*gateway.Customer, error)
	SetCustomerDefaultMethodFunc func(ctx context.Context, customerID, methodID string) error
	DeleteCustomerFunc           func(ctx context.Context, customerID string) error

	CreateAccountFunc         func(ctx context.Context, email string) (*gateway.Account, error)
	RetrieveAccountFunc       func(ctx context.Context, accountID string) (*gateway.Account, error)
	AccountOnboardingLinkFunc func(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	LoginLinkFunc             func(ctx context.Context, accountID string) (string, error)
	DeleteAccountFunc         func(ctx context.Context, accountID string) error

	RetrievePaymentMethodFunc func(ctx context.Context, methodID string) (*gateway.PaymentMethod, error)
	DetachPaymentMethodFunc   func(ctx context.Context, methodID string) error

	CheckoutSetupSessionFunc          func(ctx context.Context, customerID, successURL, cancelURL string) (string, error)
	CheckoutSubscriptionSessionFunc   func(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error)
	CancelSubscriptionAtPeriodEndFunc func(ctx context.Context, subscriptionID string) error

	CreateIntentFunc       func(ctx context.Context, params gateway.CreateIntentParams) (*gateway.Intent, error)
	RetrieveIntentFunc     func(ctx context.Context, intentID string) (*gateway.Intent, error)
	ConfirmIntentFunc      func(ctx context.Context, intentID, returnURL string) (*gateway.Intent, error)
	CaptureIntentFunc      func(ctx context.Context, intentID string, amount int64) (*gateway.Intent, error)
	CancelIntentFunc       func(ctx context.Context, intentID string) (*gateway.Intent, error)
	UpdateIntentMethodFunc func(ctx context.Context, intentID, methodID string) (*gateway.Intent, error)
	CreateRefundFunc       func(ctx context.Context, intentID string, amount int64) (string, error)
}

var _ gateway.Gateway = (*MockGateway)(nil)

func (m *MockGateway) CreateCustomer(ctx context.Context, email string) (*gateway.Customer, error) {
	if m.CreateCustomerFunc != nil {
		return m.CreateCustomerFunc(ctx, email)
	}
	return &gateway.Customer{ID: "cus_test", Email: email}, nil
}

func (m *MockGateway) RetrieveCustomer(ctx context.Context, customerID string) (*gateway.Customer, error) {
	if m.RetrieveCustomerFunc != nil {
		return m.RetrieveCustomerFunc(ctx, customerID)
	}
	return &gateway.Customer{ID: customerID}, nil
}

func (m *MockGateway) SetCustomerDefaultMethod(ctx context.Context, customerID, methodID string) error {
	if m.SetCustomerDefaultMethodFunc != nil {
		return m.SetCustomerDefaultMethodFunc(ctx, customerID, methodID)
	}
	return nil
}

func (m *MockGateway) DeleteCustomer(ctx context.Context, customerID string) error {
	if m.DeleteCustomerFunc != nil {
		return m.DeleteCustomerFunc(ctx, customerID)
	}
	return nil
}

func (m *MockGateway) CreateAccount(ctx context.Context, email string) (*gateway.Account, error) {
	if m.CreateAccountFunc != nil {
		return m.CreateAccountFunc(ctx, email)
	}
	return &gateway.Account{ID: "acct_test"}, nil
}

func (m *MockGateway) RetrieveAccount(ctx context.Context, accountID string) (*gateway.Account, error) {
	if m.RetrieveAccountFunc != nil {
		return m.RetrieveAccountFunc(ctx, accountID)
	}
	return &gateway.Account{ID: accountID}, nil
}

func (m *MockGateway) AccountOnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	if m.AccountOnboardingLinkFunc != nil {
		return m.AccountOnboardingLinkFunc(ctx, accountID, refreshURL, returnURL)
	}
	return "https://onboarding.test/" + accountID, nil
}

func (m *MockGateway) LoginLink(ctx context.Context, accountID string) (string, error) {
	if m.LoginLinkFunc != nil {
		return m.LoginLinkFunc(ctx, accountID)
	}
	return "https://dashboard.test/" + accountID, nil
}

func (m *MockGateway) DeleteAccount(ctx context.Context, accountID string) error {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, accountID)
	}
	return nil
}

func (m *MockGateway) RetrievePaymentMethod(ctx context.Context, methodID string) (*gateway.PaymentMethod, error) {
	if m.RetrievePaymentMethodFunc != nil {
		return m.RetrievePaymentMethodFunc(ctx, methodID)
	}
	return &gateway.PaymentMethod{ID: methodID, BillingEmail: "billing@example.com"}, nil
}

func (m *MockGateway) DetachPaymentMethod(ctx context.Context, methodID string) error {
	if m.DetachPaymentMethodFunc != nil {
		return m.DetachPaymentMethodFunc(ctx, methodID)
	}
	return nil
}

func (m *MockGateway) CheckoutSetupSession(ctx context.Context, customerID, successURL, cancelURL string) (string, error) {
	if m.CheckoutSetupSessionFunc != nil {
		return m.CheckoutSetupSessionFunc(ctx, customerID, successURL, cancelURL)
	}
	return "https://checkout.test/setup", nil
}

func (m *MockGateway) CheckoutSubscriptionSession(ctx context.Context, customerID, priceID, successURL, cancelURL string) (string, error) {
	if m.CheckoutSubscriptionSessionFunc != nil {
		return m.CheckoutSubscriptionSessionFunc(ctx, customerID, priceID, successURL, cancelURL)
	}
	return "https://checkout.test/subscribe", nil
}

func (m *MockGateway) CancelSubscriptionAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	if m.CancelSubscriptionAtPeriodEndFunc != nil {
		return m.CancelSubscriptionAtPeriodEndFunc(ctx, subscriptionID)
	}
	return nil
}

func (m *MockGateway) CreateIntent(ctx context.Context, params gateway.CreateIntentParams) (*gateway.Intent, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, params)
	}
	return &gateway.Intent{
		ID:            "pi_test",
		Status:        gateway.StatusRequiresConfirmation,
		Amount:        params.Amount,
		Currency:      params.Currency,
		CustomerID:    params.CustomerID,
		PaymentMethod: params.PaymentMethod,
	}, nil
}

func (m *MockGateway) RetrieveIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	if m.RetrieveIntentFunc != nil {
		return m.RetrieveIntentFunc(ctx, intentID)
	}
	return &gateway.Intent{ID: intentID, Status: gateway.StatusRequiresCapture}, nil
}

func (m *MockGateway) ConfirmIntent(ctx context.Context, intentID, returnURL string) (*gateway.Intent, error) {
	if m.ConfirmIntentFunc != nil {
		return m.ConfirmIntentFunc(ctx, intentID, returnURL)
	}
	return &gateway.Intent{ID: intentID, Status: gateway.StatusRequiresCapture}, nil
}

func (m *MockGateway) CaptureIntent(ctx context.Context, intentID string, amount int64) (*gateway.Intent, error) {
	if m.CaptureIntentFunc != nil {
		return m.CaptureIntentFunc(ctx, intentID, amount)
	}
	return &gateway.Intent{ID: intentID, Status: gateway.StatusSucceeded}, nil
}

func (m *MockGateway) CancelIntent(ctx context.Context, intentID string) (*gateway.Intent, error) {
	if m.CancelIntentFunc != nil {
		return m.CancelIntentFunc(ctx, intentID)
	}
	return &gateway.Intent{ID: intentID, Status: gateway.StatusCanceled}, nil
}

func (m *MockGateway) UpdateIntentMethod(ctx context.Context, intentID, methodID string) (*gateway.Intent, error) {
	if m.UpdateIntentMethodFunc != nil {
		return m.UpdateIntentMethodFunc(ctx, intentID, methodID)
	}
	return &gateway.Intent{ID: intentID, Status: gateway.StatusRequiresConfirmation, PaymentMethod: methodID}, nil
}

func (m *MockGateway) CreateRefund(ctx context.Context, intentID string, amount int64) (string, error) {
	if m.CreateRefundFunc != nil {
		return m.CreateRefundFunc(ctx, intentID, amount)
	}
	return "re_test", nil
}

// --- Notifier Mock ---

// MockNotifier records sent messages; SendFunc overrides the default
// accept-everything behavior.
type MockNotifier struct {
	mu   sync.Mutex
	sent []notify.Message

	NameVal  string
	SendFunc func(ctx context.Context, msg notify.Message) error
}

func (m *MockNotifier) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, msg)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns the recorded messages.
func (m *MockNotifier) Sent() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

// --- Purchase service collaborator mocks ---

// MockDirectory stubs the account resolution the purchase service needs.
type MockDirectory struct {
	EnsureBuyerFunc     func(ctx context.Context, userID, email string) (string, error)
	SellerAccountIDFunc func(ctx context.Context, userID string) (string, error)
}

func (m *MockDirectory) EnsureBuyer(ctx context.Context, userID, email string) (string, error) {
	if m.EnsureBuyerFunc != nil {
		return m.EnsureBuyerFunc(ctx, userID, email)
	}
	return "cus_test", nil
}

func (m *MockDirectory) SellerAccountID(ctx context.Context, userID string) (string, error) {
	if m.SellerAccountIDFunc != nil {
		return m.SellerAccountIDFunc(ctx, userID)
	}
	return "acct_test", nil
}

// MockResolver stubs default payment method resolution.
type MockResolver struct {
	ResolveDefaultFunc func(ctx context.Context, userID, customerID string) (string, error)
}

func (m *MockResolver) ResolveDefault(ctx context.Context, userID, customerID string) (string, error) {
	if m.ResolveDefaultFunc != nil {
		return m.ResolveDefaultFunc(ctx, userID, customerID)
	}
	return "pm_test", nil
}
