package payment

import (
	"context"
	"errors"
)

// Request is what a provider needs to charge a customer.
type Request struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
	Email   string  `json:"email,omitempty"`
	Phone   string  `json:"phone,omitempty"`
}

// Outcome is a provider's verdict on an attempt, whether it arrives from a
// gateway webhook or a simulator timer.
type Outcome struct {
	AttemptID string `json:"attemptId"`
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Callback delivers an Outcome back to the tracker.
type Callback func(Outcome)

// Provider is one payment method. Initiate starts the charge and returns;
// the result is reported later through notify.
type Provider interface {
	Name() string
	Validate(req Request) error
	Initiate(ctx context.Context, attemptID string, req Request, notify Callback) error
}

// Stopper is implemented by providers holding background work.
type Stopper interface {
	Stop()
}

var ErrPhoneRequired = errors.New("payment: a phone number of at least 10 digits is required")
