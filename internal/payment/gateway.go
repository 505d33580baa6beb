package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"visaflow/internal/domain"
)

// Rejection codes.
const (
	CodeDeclined      = "PAYMENT_DECLINED"
	CodeNotCaptured   = "PAYMENT_NOT_CAPTURED"
	CodeInvalidMethod = "INVALID_PAYMENT_METHOD"
)

type ChargeRequest struct {
	OrderID  string
	UserID   string
	Method   string
	Amount   decimal.Decimal
	Currency string
	Data     map[string]any
}

// ChargeResult is the collaborator's answer. A declined charge is a result
// with Approved false and a Rejection; an unreachable provider is an error.
type ChargeResult struct {
	Approved       bool
	PaymentID      string
	ProviderStatus string
	Rejection      *domain.Rejection
}

type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

func rejected(code, reason, providerStatus string) *ChargeResult {
	return &ChargeResult{
		ProviderStatus: providerStatus,
		Rejection:      &domain.Rejection{Code: code, Reason: reason},
	}
}
