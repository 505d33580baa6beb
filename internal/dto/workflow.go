package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"visaflow/internal/domain"
)

type StartEvaluationInput struct {
	UserID        string
	Category      string
	Kind          string
	Detailed      bool
	ApplicantData map[string]any
	Options       domain.ServiceOptions
}

type StartEvaluationResult struct {
	OrderID       string
	Evaluation    *domain.EvaluationResult
	NextStatus    domain.OrderStatus
	EstimatedCost domain.Pricing
}

type MatchResult struct {
	OrderID    string
	Match      *domain.Match
	TotalCost  decimal.Decimal
	NextStatus domain.OrderStatus
}

// PaymentResult carries either an accepted charge or a Rejection. A rejected
// payment leaves the order in PAYMENT_PENDING.
type PaymentResult struct {
	OrderID           string
	PaymentID         string
	NextStatus        domain.OrderStatus
	RequiredDocuments []string
	Rejection         *domain.Rejection
}

type DocumentSubmissionResult struct {
	OrderID                 string
	Success                 bool
	NextStatus              domain.OrderStatus
	SubmissionID            string
	EstimatedCompletionDate *time.Time
	Missing                 []string
	Invalid                 []string
	Recommendations         []string
}

type ProgressResult struct {
	OrderID            string
	Status             domain.OrderStatus
	ProgressPercentage int
	DaysInProgress     int
	Timeline           domain.Timeline
	Pricing            domain.Pricing
	MatchID            *string
	PaymentID          *string
}

type CancelResult struct {
	OrderID     string
	Status      domain.OrderStatus
	CancelledAt *time.Time
}

type CompleteResult struct {
	OrderID string
	Status  domain.OrderStatus
}
