package dto

// CallRequest is the single multiplexed invocation envelope. Mode selects
// the operation; the remaining fields are read per mode and validated by
// the application layer.
type CallRequest struct {
	Mode string `json:"mode" validate:"required"`

	UserID       string  `json:"userId,omitempty"`
	OrderID      string  `json:"orderId,omitempty"`
	Amount       int64   `json:"amount,omitempty"`
	Currency     string  `json:"currency,omitempty"`
	Description  string  `json:"description,omitempty"`
	Email        string  `json:"email,omitempty"`
	TargetUserID string  `json:"targetUserId,omitempty"`
	RevenueRatio float64 `json:"revenueRatio,omitempty"`
	ReturnURL    string  `json:"returnUrl,omitempty"`
	Online       *bool   `json:"online,omitempty"`
	MethodID     string  `json:"methodId,omitempty"`
	Locale       string  `json:"locale,omitempty"`
	PurchaseID   string  `json:"purchaseId,omitempty"`
	PriceID      string  `json:"priceId,omitempty"`
	Subscription string  `json:"subscriptionId,omitempty"`
}

// IsOnline defaults the online flag to true when the caller omits it.
func (r *CallRequest) IsOnline() bool {
	if r.Online == nil {
		return true
	}
	return *r.Online
}
