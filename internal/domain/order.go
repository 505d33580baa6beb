package domain

import (
	"math"
	"time"

	apperrors "visaflow/internal/errors"
)

type ServiceOptions struct {
	IncludeLegalMatching  bool `json:"includeLegalMatching"`
	IncludeDocumentReview bool `json:"includeDocumentReview"`
	UrgentProcessing      bool `json:"urgentProcessing"`
	ConsultationIncluded  bool `json:"consultationIncluded"`
}

type ProbabilityLabel string

const (
	ProbabilityHigh    ProbabilityLabel = "HIGH"
	ProbabilityMedium  ProbabilityLabel = "MEDIUM"
	ProbabilityLow     ProbabilityLabel = "LOW"
	ProbabilityVeryLow ProbabilityLabel = "VERY_LOW"
)

// ProbabilityForScore maps a 0-100 score onto the qualitative label.
func ProbabilityForScore(score float64) ProbabilityLabel {
	switch {
	case score >= 80:
		return ProbabilityHigh
	case score >= 60:
		return ProbabilityMedium
	case score >= 40:
		return ProbabilityLow
	default:
		return ProbabilityVeryLow
	}
}

// EvaluationResult is the snapshot written by one evaluation pass. A
// re-evaluation replaces it as a whole.
type EvaluationResult struct {
	Score           float64            `json:"score"`
	Probability     ProbabilityLabel   `json:"probability"`
	CategoryScores  map[string]float64 `json:"categoryScores,omitempty"`
	Strengths       []string           `json:"strengths"`
	Weaknesses      []string           `json:"weaknesses"`
	Recommendations []string           `json:"recommendations"`
	EvaluatedAt     time.Time          `json:"evaluatedAt"`
	EvaluatorRunID  string             `json:"evaluatorRunId"`
	Evaluator       string             `json:"evaluator"`
	UsedFallback    bool               `json:"usedFallback"`
	FailureReason   string             `json:"failureReason,omitempty"`
}

// Timeline maps stage names to the time they happened. Entries are never
// rewritten once set.
type Timeline map[string]time.Time

// Stamp records key at t unless it is already set.
func (tl Timeline) Stamp(key string, t time.Time) bool {
	if _, ok := tl[key]; ok {
		return false
	}
	tl[key] = t
	return true
}

type Order struct {
	ID                   string            `json:"id"`
	UserID               string            `json:"userId"`
	VisaCategory         VisaCategory      `json:"visaCategory"`
	ApplicationKind      ApplicationKind   `json:"applicationKind"`
	Status               OrderStatus       `json:"status"`
	Evaluation           *EvaluationResult `json:"evaluationResult,omitempty"`
	MatchID              *string           `json:"matchId,omitempty"`
	PaymentID            *string           `json:"paymentId,omitempty"`
	DocumentSubmissionID *string           `json:"documentSubmissionId,omitempty"`
	ServiceOptions       ServiceOptions    `json:"serviceOptions"`
	Pricing              Pricing           `json:"pricing"`
	Timeline             Timeline          `json:"timeline"`
	CancellationReason   string            `json:"cancellationReason,omitempty"`
	CancelledAt          *time.Time        `json:"cancelledAt,omitempty"`
	FailureReason        string            `json:"failureReason,omitempty"`
	Version              int64             `json:"version"`
	CreatedAt            time.Time         `json:"createdAt"`
	UpdatedAt            time.Time         `json:"updatedAt"`
}

func NewOrder(id, userID string, category VisaCategory, kind ApplicationKind, opts ServiceOptions, pricing Pricing, now time.Time) *Order {
	pricing.Recompute()
	o := &Order{
		ID:              id,
		UserID:          userID,
		VisaCategory:    category,
		ApplicationKind: kind,
		Status:          OrderStatusEvaluation,
		ServiceOptions:  opts,
		Pricing:         pricing,
		Timeline:        Timeline{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	o.Timeline.Stamp(TimelineEvaluationStarted, now)
	return o
}

func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// CanAdvance reports whether the current status has a successor.
func (o *Order) CanAdvance() bool {
	_, ok := o.Status.Successor()
	return ok
}

// Advance moves the order to the next stage and stamps that transition's
// timeline entries, and nothing else.
func (o *Order) Advance(now time.Time) (OrderStatus, error) {
	next, ok := o.Status.Successor()
	if !ok {
		return o.Status, apperrors.NewTerminalStateError(string(o.Status))
	}
	if o.Timeline == nil {
		o.Timeline = Timeline{}
	}
	for _, key := range o.Status.TransitionStamps() {
		o.Timeline.Stamp(key, now)
	}
	o.Status = next
	o.UpdatedAt = now
	return next, nil
}

// RequireStatus fails with InvalidStageTransitionError unless the order is in want.
func (o *Order) RequireStatus(operation string, want OrderStatus) error {
	if o.Status != want {
		return apperrors.NewInvalidStageTransitionError(operation, string(o.Status), string(want))
	}
	return nil
}

// Cancel moves a non-terminal order to CANCELLED. COMPLETED, CANCELLED and
// FAILED orders stay where they are.
func (o *Order) Cancel(reason string, now time.Time) error {
	if o.IsTerminal() {
		return apperrors.NewInvalidStageTransitionError("cancel", string(o.Status), "")
	}
	if o.Timeline == nil {
		o.Timeline = Timeline{}
	}
	o.Status = OrderStatusCancelled
	o.CancellationReason = reason
	if o.CancelledAt == nil {
		at := now
		o.CancelledAt = &at
	}
	o.Timeline.Stamp(TimelineCancelled, now)
	o.UpdatedAt = now
	return nil
}

// Fail moves a non-terminal order to FAILED.
func (o *Order) Fail(reason string, now time.Time) error {
	if o.IsTerminal() {
		return apperrors.NewInvalidStageTransitionError("fail", string(o.Status), "")
	}
	if o.Timeline == nil {
		o.Timeline = Timeline{}
	}
	o.Status = OrderStatusFailed
	o.FailureReason = reason
	o.Timeline.Stamp(TimelineFailed, now)
	o.UpdatedAt = now
	return nil
}

// RecordEvaluation overwrites the evaluation snapshot in place. Status is
// never moved by a (re-)evaluation.
func (o *Order) RecordEvaluation(result EvaluationResult, now time.Time) error {
	if o.IsTerminal() {
		return apperrors.NewInvalidStageTransitionError("record evaluation", string(o.Status), "")
	}
	o.Evaluation = &result
	o.UpdatedAt = now
	return nil
}

func (o *Order) AttachMatch(matchID string, now time.Time) error {
	if err := o.RequireStatus("attach match", OrderStatusMatching); err != nil {
		return err
	}
	if !o.ServiceOptions.IncludeLegalMatching {
		return apperrors.NewInvalidStageTransitionError("attach match", string(o.Status), "legal matching enabled")
	}
	o.MatchID = &matchID
	o.UpdatedAt = now
	return nil
}

func (o *Order) AttachPayment(paymentID string, now time.Time) error {
	if err := o.RequireStatus("attach payment", OrderStatusPaymentPending); err != nil {
		return err
	}
	o.PaymentID = &paymentID
	o.UpdatedAt = now
	return nil
}

func (o *Order) AttachDocumentSubmission(submissionID string, now time.Time) error {
	if err := o.RequireStatus("attach document submission", OrderStatusDocumentsPending); err != nil {
		return err
	}
	o.DocumentSubmissionID = &submissionID
	o.UpdatedAt = now
	return nil
}

func (o *Order) ProgressPercentage() int {
	return o.Status.ProgressPercentage()
}

// DaysInProgress counts whole days since creation, up to completion or
// cancellation when the order has ended.
func (o *Order) DaysInProgress(now time.Time) int {
	end := now
	if o.Status.IsTerminal() && !o.UpdatedAt.IsZero() {
		end = o.UpdatedAt
	}
	days := end.Sub(o.CreatedAt).Hours() / 24
	if days < 0 {
		return 0
	}
	return int(math.Floor(days))
}

// Clone returns a deep copy that shares no maps, slices or pointers with o.
func (o *Order) Clone() *Order {
	c := *o
	if o.Evaluation != nil {
		ev := o.Evaluation.clone()
		c.Evaluation = &ev
	}
	c.MatchID = cloneString(o.MatchID)
	c.PaymentID = cloneString(o.PaymentID)
	c.DocumentSubmissionID = cloneString(o.DocumentSubmissionID)
	if o.CancelledAt != nil {
		at := *o.CancelledAt
		c.CancelledAt = &at
	}
	if o.Timeline != nil {
		c.Timeline = make(Timeline, len(o.Timeline))
		for k, v := range o.Timeline {
			c.Timeline[k] = v
		}
	}
	return &c
}

func (r EvaluationResult) clone() EvaluationResult {
	c := r
	if r.CategoryScores != nil {
		c.CategoryScores = make(map[string]float64, len(r.CategoryScores))
		for k, v := range r.CategoryScores {
			c.CategoryScores[k] = v
		}
	}
	c.Strengths = append([]string(nil), r.Strengths...)
	c.Weaknesses = append([]string(nil), r.Weaknesses...)
	c.Recommendations = append([]string(nil), r.Recommendations...)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
