package dto

// SuccessResponse acknowledges an operation with no payload.
type SuccessResponse struct {
	Success bool `json:"success"`
}

// PurchaseResponse returns the gateway intent id of a purchase.
type PurchaseResponse struct {
	PurchaseID string `json:"purchaseId"`
}

// RedirectResponse is returned while a redirect-based authentication step is
// outstanding.
type RedirectResponse struct {
	URL        string `json:"url"`
	ReturnURL  string `json:"returnUrl,omitempty"`
	PurchaseID string `json:"purchaseId"`
}

// LinkResponse carries a one-off URL (onboarding, dashboard, checkout).
type LinkResponse struct {
	URL string `json:"url"`
}

// AccountResponse reports seller onboarding progress: either Complete with
// the payable account id, or the onboarding URL still to be followed.
type AccountResponse struct {
	AccountID string `json:"accountId"`
	URL       string `json:"url,omitempty"`
	Complete  bool   `json:"complete"`
}

// CustomerResponse returns the gateway customer id of a buyer.
type CustomerResponse struct {
	CustomerID string `json:"customerId"`
}

// ErrorResponse is the structured error envelope. Code carries the error
// kind tag.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
