package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"visaflow/internal/domain"
)

type StartEvaluationResponse struct {
	TraceID          string                   `json:"traceId"`
	OrderID          string                   `json:"orderId"`
	EvaluationResult *domain.EvaluationResult `json:"evaluationResult"`
	NextStatus       domain.OrderStatus       `json:"nextStatus"`
	EstimatedCost    domain.Pricing           `json:"estimatedCost"`
	Timestamp        time.Time                `json:"timestamp"`
}

type MatchResponse struct {
	TraceID    string             `json:"traceId"`
	OrderID    string             `json:"orderId"`
	Match      *domain.Match      `json:"match"`
	TotalCost  decimal.Decimal    `json:"totalCost"`
	NextStatus domain.OrderStatus `json:"nextStatus"`
	Timestamp  time.Time          `json:"timestamp"`
}

type PaymentResponse struct {
	TraceID           string             `json:"traceId"`
	OrderID           string             `json:"orderId"`
	Success           bool               `json:"success"`
	PaymentID         string             `json:"paymentId,omitempty"`
	NextStatus        domain.OrderStatus `json:"nextStatus"`
	RequiredDocuments []string           `json:"requiredDocuments,omitempty"`
	Rejection         *domain.Rejection  `json:"rejection,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
}

type DocumentSubmissionResponse struct {
	TraceID                 string             `json:"traceId"`
	OrderID                 string             `json:"orderId"`
	Success                 bool               `json:"success"`
	NextStatus              domain.OrderStatus `json:"nextStatus"`
	SubmissionID            string             `json:"submissionId,omitempty"`
	EstimatedCompletionDate *time.Time         `json:"estimatedCompletionDate,omitempty"`
	Missing                 []string           `json:"missing"`
	Invalid                 []string           `json:"invalid"`
	Recommendations         []string           `json:"recommendations"`
	Timestamp               time.Time          `json:"timestamp"`
}

type ProgressResponse struct {
	TraceID            string             `json:"traceId"`
	OrderID            string             `json:"orderId"`
	Status             domain.OrderStatus `json:"status"`
	ProgressPercentage int                `json:"progressPercentage"`
	DaysInProgress     int                `json:"daysInProgress"`
	Timeline           domain.Timeline    `json:"timeline"`
	Pricing            domain.Pricing     `json:"pricing"`
	MatchID            *string            `json:"matchId,omitempty"`
	PaymentID          *string            `json:"paymentId,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
}

type StatusResponse struct {
	TraceID     string             `json:"traceId"`
	OrderID     string             `json:"orderId"`
	Status      domain.OrderStatus `json:"status"`
	CancelledAt *time.Time         `json:"cancelledAt,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}

type EvaluationResponse struct {
	TraceID          string                   `json:"traceId"`
	OrderID          string                   `json:"orderId"`
	EvaluationResult *domain.EvaluationResult `json:"evaluationResult"`
	Timestamp        time.Time                `json:"timestamp"`
}

type MatchFeedbackResponse struct {
	TraceID   string        `json:"traceId"`
	Match     *domain.Match `json:"match"`
	Timestamp time.Time     `json:"timestamp"`
}

type ErrorResponse struct {
	TraceID   string         `json:"traceId"`
	Status    int            `json:"status"`
	Message   string         `json:"message"`
	Code      string         `json:"code"`
	OrderID   string         `json:"orderId,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
