package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrResumeNotFound      = errors.New("resume not found")
	ErrTemplateNotFound    = errors.New("template not found")
	ErrNoTemplateAvailable = errors.New("no active template available")
)

// TemplateEvalError marks a template content defect (malformed directives
// or unknown helper references). It carries the template identity so an
// operator can find the broken template; the HTTP layer sanitizes it
// before it reaches end users.
type TemplateEvalError struct {
	TemplateID   uuid.UUID
	TemplateName string
	Err          error
}

func (e *TemplateEvalError) Error() string {
	return fmt.Sprintf("template %q (%s) failed to evaluate: %v", e.TemplateName, e.TemplateID, e.Err)
}

func (e *TemplateEvalError) Unwrap() error { return e.Err }

// RenderEngineError marks a rasterization failure (engine launch, timeout,
// crash or invalid output). The export request is the unit of work: the
// caller may retry the whole request, no partial state is left behind.
type RenderEngineError struct {
	Err error
}

func (e *RenderEngineError) Error() string {
	return fmt.Sprintf("render engine failure: %v", e.Err)
}

func (e *RenderEngineError) Unwrap() error { return e.Err }

// PaymentOption is one machine-readable way to unlock a premium export.
type PaymentOption struct {
	Type     string  `json:"type"`
	Label    string  `json:"label"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// DefaultPaymentOptions enumerates the catalog prices offered alongside a
// payment-required refusal.
func DefaultPaymentOptions() []PaymentOption {
	return []PaymentOption{
		{Type: "single", Label: "Export unique", Amount: 2.99, Currency: "EUR"},
		{Type: "monthly", Label: "Abonnement mensuel", Amount: 9.99, Currency: "EUR"},
		{Type: "yearly", Label: "Abonnement annuel", Amount: 59.99, Currency: "EUR"},
	}
}

// PaymentRequiredError is a first-class decision outcome, not a failure:
// the requested export needs payment, and Options enumerates the ways to
// pay for it.
type PaymentRequiredError struct {
	ResumeID uuid.UUID
	Reason   string
	Options  []PaymentOption
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment required to export resume %s (%s)", e.ResumeID, e.Reason)
}
