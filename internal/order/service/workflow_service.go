package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"visaflow/internal/documents"
	"visaflow/internal/domain"
	"visaflow/internal/dto"
	apperrors "visaflow/internal/errors"
	"visaflow/internal/evaluation"
	"visaflow/internal/infrastructure/metrics"
	"visaflow/internal/matching"
	"visaflow/internal/payment"
)

type OrderRepository interface {
	Create(ctx context.Context, o *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	Save(ctx context.Context, o *domain.Order) error
}

type MatchRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Match, error)
	Save(ctx context.Context, m *domain.Match) error
}

type EvaluatorResolver interface {
	Resolve(code string, opts evaluation.ResolveOptions) (*evaluation.Resolution, error)
}

type Matcher interface {
	Match(ctx context.Context, order *domain.Order, prefs matching.Preferences) (*domain.Match, error)
	Release(ctx context.Context, representativeID string) error
}

type PriceCalculator interface {
	InitialPricing(category domain.VisaCategory, opts domain.ServiceOptions) domain.Pricing
	ApplyMatchFee(order *domain.Order, fee domain.MatchFee) decimal.Decimal
}

type PaymentGateway interface {
	Charge(ctx context.Context, req payment.ChargeRequest) (*payment.ChargeResult, error)
}

type DocumentValidator interface {
	Validate(ctx context.Context, category domain.VisaCategory, docs []domain.Document) (*documents.ValidationResult, error)
}

type EventPublisher interface {
	PublishStageChange(ctx context.Context, event domain.StageEvent) error
}

type nopPublisher struct{}

func (nopPublisher) PublishStageChange(context.Context, domain.StageEvent) error { return nil }

type Dependencies struct {
	Orders    OrderRepository
	Matches   MatchRepository
	Registry  EvaluatorResolver
	Matcher   Matcher
	Pricing   PriceCalculator
	Payments  PaymentGateway
	Documents DocumentValidator
	Events    EventPublisher
}

// WorkflowService drives an order through its stages. Every operation loads
// the order, applies one step of the state machine and saves it with a
// version check; a lost race surfaces as ConflictError.
type WorkflowService struct {
	orders    OrderRepository
	matches   MatchRepository
	registry  EvaluatorResolver
	matcher   Matcher
	pricing   PriceCalculator
	payments  PaymentGateway
	documents DocumentValidator
	events    EventPublisher
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	newID     func() string
}

func NewWorkflowService(deps Dependencies, logger *zap.Logger, m *metrics.Metrics) *WorkflowService {
	events := deps.Events
	if events == nil {
		events = nopPublisher{}
	}
	return &WorkflowService{
		orders:    deps.Orders,
		matches:   deps.Matches,
		registry:  deps.Registry,
		matcher:   deps.Matcher,
		pricing:   deps.Pricing,
		payments:  deps.Payments,
		documents: deps.Documents,
		events:    events,
		logger:    logger,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
}

type stageChange struct {
	from, to domain.OrderStatus
}

func advance(o *domain.Order, now time.Time, changes []stageChange) ([]stageChange, error) {
	from := o.Status
	to, err := o.Advance(now)
	if err != nil {
		return changes, err
	}
	return append(changes, stageChange{from: from, to: to}), nil
}

func (s *WorkflowService) StartEvaluation(ctx context.Context, in dto.StartEvaluationInput) (*dto.StartEvaluationResult, error) {
	defer s.observe("start_evaluation", time.Now())

	kind, ok := domain.ParseApplicationKind(in.Kind)
	if !ok {
		return nil, apperrors.NewValidationError("invalid application kind", apperrors.ValidationDetail{
			Field:   "applicationKind",
			Message: "applicationKind must be one of NEW, EXTENSION, CHANGE",
		})
	}
	opts := evaluation.EvaluateOptions{Kind: kind, Mode: evaluation.ModeStandard}
	if in.Detailed {
		opts.Mode = evaluation.ModeDetailed
	}

	// Bloque 1: Resolver evaluador
	res, err := s.registry.Resolve(in.Category, evaluation.ResolveOptions{Kind: opts.Kind, Mode: opts.Mode})
	if err != nil {
		s.logger.Warn("evaluator resolution failed", zap.String("category", in.Category), zap.Error(err))
		return nil, err
	}
	logger := s.logger.With(zap.String("category", string(res.Category)), zap.String("userId", in.UserID))
	if res.UsedFallback {
		logger.Info("using generic evaluator", zap.String("evaluator", res.Evaluator.Name()))
	}

	// Bloque 2: Evaluar antes de crear la orden
	runID := s.newID()
	outcome, evalErr := runEvaluator(res.Evaluator, evaluation.ApplicantData(in.ApplicantData), opts)
	if evalErr != nil {
		if _, ok := apperrors.IsIncompleteApplicantDataError(evalErr); ok {
			logger.Info("applicant data incomplete", zap.Error(evalErr))
			return nil, evalErr
		}
	}

	// Bloque 3: Crear la orden y avanzar
	now := s.now()
	order := domain.NewOrder(s.newID(), in.UserID, res.Category, kind, in.Options, s.pricing.InitialPricing(res.Category, in.Options), now)

	var changes []stageChange
	if evalErr != nil {
		snapshot := failedSnapshot(res, runID, evalErr, now)
		if err := order.RecordEvaluation(snapshot, now); err != nil {
			return nil, err
		}
		if err := order.Fail(evalErr.Error(), now); err != nil {
			return nil, err
		}
		changes = append(changes, stageChange{from: domain.OrderStatusEvaluation, to: domain.OrderStatusFailed})
		logger.Error("evaluation failed", zap.String("orderId", order.ID), zap.String("evaluator", res.Evaluator.Name()), zap.Error(evalErr))
	} else {
		if err := order.RecordEvaluation(snapshotOf(res, outcome, runID, now), now); err != nil {
			return nil, err
		}
		if changes, err = advance(order, now, changes); err != nil {
			return nil, err
		}
		if !order.ServiceOptions.IncludeLegalMatching {
			if changes, err = advance(order, now, changes); err != nil {
				return nil, err
			}
		}
		s.metrics.ObserveEvaluationScore(string(res.Category), outcome.TotalScore)
	}

	if err := s.orders.Create(ctx, order); err != nil {
		logger.Error("failed to create order", zap.String("orderId", order.ID), zap.Error(err))
		return nil, err
	}
	s.announce(ctx, order, changes)

	logger.Info("order created",
		zap.String("orderId", order.ID),
		zap.String("status", string(order.Status)),
		zap.Float64("score", order.Evaluation.Score),
		zap.Bool("usedFallback", res.UsedFallback),
	)

	return &dto.StartEvaluationResult{
		OrderID:       order.ID,
		Evaluation:    order.Evaluation,
		NextStatus:    order.Status,
		EstimatedCost: order.Pricing,
	}, nil
}

func (s *WorkflowService) MatchRepresentative(ctx context.Context, orderID string, prefs matching.Preferences) (*dto.MatchResult, error) {
	defer s.observe("match_representative", time.Now())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	m, err := s.matcher.Match(ctx, order, prefs)
	if err != nil {
		s.logger.Warn("matching failed", zap.String("orderId", orderID), zap.String("status", string(order.Status)), zap.Error(err))
		return nil, err
	}

	now := s.now()
	if err := order.AttachMatch(m.ID, now); err != nil {
		s.cancelMatch(ctx, m, now)
		return nil, err
	}
	total := s.pricing.ApplyMatchFee(order, m.Fee)
	changes, err := advance(order, now, nil)
	if err != nil {
		s.cancelMatch(ctx, m, now)
		return nil, err
	}

	if err := s.orders.Save(ctx, order); err != nil {
		s.logger.Warn("order save failed after matching, cancelling match", zap.String("orderId", orderID), zap.String("matchId", m.ID), zap.Error(err))
		s.cancelMatch(ctx, m, now)
		return nil, err
	}
	s.announce(ctx, order, changes)

	return &dto.MatchResult{
		OrderID:    order.ID,
		Match:      m,
		TotalCost:  total,
		NextStatus: order.Status,
	}, nil
}

// ProcessPayment charges the order total. A declined charge is returned as a
// Rejection and leaves the order where it was; an unreachable gateway is a
// DownstreamError.
func (s *WorkflowService) ProcessPayment(ctx context.Context, orderID, method string, data map[string]any) (*dto.PaymentResult, error) {
	defer s.observe("process_payment", time.Now())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.RequireStatus("process payment", domain.OrderStatusPaymentPending); err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("orderId", order.ID), zap.String("method", method))

	charge, err := s.payments.Charge(ctx, payment.ChargeRequest{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Method:   method,
		Amount:   order.Pricing.TotalAmount,
		Currency: order.Pricing.Currency,
		Data:     data,
	})
	if err != nil {
		s.metrics.IncrementCollaboratorOutcome("payment", "error")
		logger.Error("payment gateway failed", zap.Error(err))
		return nil, apperrors.NewDownstreamError("payment gateway", err)
	}
	if !charge.Approved {
		s.metrics.IncrementCollaboratorOutcome("payment", "rejected")
		rejection := charge.Rejection
		if rejection == nil {
			rejection = &domain.Rejection{Code: payment.CodeDeclined, Reason: "payment was not approved"}
		}
		logger.Warn("payment rejected", zap.String("code", rejection.Code), zap.String("providerStatus", charge.ProviderStatus))
		return &dto.PaymentResult{
			OrderID:    order.ID,
			NextStatus: order.Status,
			Rejection:  rejection,
		}, nil
	}
	s.metrics.IncrementCollaboratorOutcome("payment", "approved")

	now := s.now()
	if err := order.AttachPayment(charge.PaymentID, now); err != nil {
		return nil, err
	}
	var changes []stageChange
	for i := 0; i < 2; i++ {
		if changes, err = advance(order, now, changes); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		logger.Error("payment captured but order not saved", zap.String("paymentId", charge.PaymentID), zap.Error(err))
		return nil, err
	}
	s.announce(ctx, order, changes)
	s.progressMatch(ctx, order, now, domain.MatchStatusAccepted, domain.MatchStatusContracted)

	logger.Info("payment completed", zap.String("paymentId", charge.PaymentID), zap.String("amount", order.Pricing.TotalAmount.String()))

	return &dto.PaymentResult{
		OrderID:           order.ID,
		PaymentID:         charge.PaymentID,
		NextStatus:        order.Status,
		RequiredDocuments: documents.RequiredDocuments(order.VisaCategory),
	}, nil
}

func (s *WorkflowService) SubmitDocuments(ctx context.Context, orderID string, docs []domain.Document) (*dto.DocumentSubmissionResult, error) {
	defer s.observe("submit_documents", time.Now())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.RequireStatus("submit documents", domain.OrderStatusDocumentsPending); err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("orderId", order.ID), zap.String("category", string(order.VisaCategory)))

	validation, err := s.documents.Validate(ctx, order.VisaCategory, docs)
	if err != nil {
		s.metrics.IncrementCollaboratorOutcome("documents", "error")
		logger.Error("document validation failed", zap.Error(err))
		return nil, apperrors.NewDownstreamError("document validator", err)
	}
	if !validation.Success {
		s.metrics.IncrementCollaboratorOutcome("documents", "incomplete")
		logger.Info("document submission incomplete", zap.Strings("missing", validation.Missing))
		return &dto.DocumentSubmissionResult{
			OrderID:         order.ID,
			Success:         false,
			NextStatus:      order.Status,
			Missing:         validation.Missing,
			Invalid:         validation.Invalid,
			Recommendations: validation.Recommendations,
		}, nil
	}
	s.metrics.IncrementCollaboratorOutcome("documents", "accepted")

	now := s.now()
	submissionID := s.newID()
	if err := order.AttachDocumentSubmission(submissionID, now); err != nil {
		return nil, err
	}
	var changes []stageChange
	for i := 0; i < 2; i++ {
		if changes, err = advance(order, now, changes); err != nil {
			return nil, err
		}
	}

	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.announce(ctx, order, changes)
	s.progressMatch(ctx, order, now, domain.MatchStatusInProgress)

	eta := EstimatedCompletion(order, now)
	logger.Info("documents submitted", zap.String("submissionId", submissionID), zap.Time("estimatedCompletion", eta))

	return &dto.DocumentSubmissionResult{
		OrderID:                 order.ID,
		Success:                 true,
		NextStatus:              order.Status,
		SubmissionID:            submissionID,
		EstimatedCompletionDate: &eta,
		Missing:                 []string{},
		Invalid:                 validation.Invalid,
		Recommendations:         validation.Recommendations,
	}, nil
}

// EstimatedCompletion projects government processing time from the category's
// complexity tier. Urgent processing halves it.
func EstimatedCompletion(o *domain.Order, from time.Time) time.Time {
	tier := evaluation.ComplexityMedium
	if meta, ok := evaluation.LookupCategory(o.VisaCategory); ok {
		tier = meta.Complexity
	}
	days := tier.ProcessingDays()
	if o.ServiceOptions.UrgentProcessing {
		days = (days + 1) / 2
	}
	return from.AddDate(0, 0, days)
}

func (s *WorkflowService) TrackProgress(ctx context.Context, orderID string) (*dto.ProgressResult, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &dto.ProgressResult{
		OrderID:            order.ID,
		Status:             order.Status,
		ProgressPercentage: order.ProgressPercentage(),
		DaysInProgress:     order.DaysInProgress(s.now()),
		Timeline:           order.Timeline,
		Pricing:            order.Pricing,
		MatchID:            order.MatchID,
		PaymentID:          order.PaymentID,
	}, nil
}

func (s *WorkflowService) Cancel(ctx context.Context, orderID, reason string) (*dto.CancelResult, error) {
	defer s.observe("cancel", time.Now())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from := order.Status
	if err := order.Cancel(reason, now); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.announce(ctx, order, []stageChange{{from: from, to: order.Status}})

	if order.MatchID != nil {
		m, err := s.matches.FindByID(ctx, *order.MatchID)
		if err != nil {
			s.logger.Warn("match lookup failed on cancel", zap.String("orderId", order.ID), zap.Error(err))
		} else if m.Status.CanTransitionTo(domain.MatchStatusCancelled) {
			s.cancelMatch(ctx, m, now)
		} else if m.Status == domain.MatchStatusContracted || m.Status == domain.MatchStatusInProgress {
			// The contract record stays; the case no longer counts against capacity.
			s.releaseRepresentative(ctx, m)
		}
	}

	s.logger.Info("order cancelled", zap.String("orderId", order.ID), zap.String("from", string(from)), zap.String("reason", reason))

	return &dto.CancelResult{
		OrderID:     order.ID,
		Status:      order.Status,
		CancelledAt: order.CancelledAt,
	}, nil
}

// Reevaluate replaces the evaluation snapshot of a live order. The status is
// never moved, and an evaluator fault leaves the previous snapshot in place.
func (s *WorkflowService) Reevaluate(ctx context.Context, orderID string, data map[string]any, detailed bool) (*domain.EvaluationResult, error) {
	defer s.observe("reevaluate", time.Now())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.IsTerminal() {
		return nil, apperrors.NewInvalidStageTransitionError("reevaluate", string(order.Status), "")
	}

	opts := evaluation.EvaluateOptions{Kind: order.ApplicationKind, Mode: evaluation.ModeStandard}
	if detailed {
		opts.Mode = evaluation.ModeDetailed
	}
	res, err := s.registry.Resolve(string(order.VisaCategory), evaluation.ResolveOptions{Kind: opts.Kind, Mode: opts.Mode})
	if err != nil {
		return nil, err
	}

	outcome, err := runEvaluator(res.Evaluator, evaluation.ApplicantData(data), opts)
	if err != nil {
		if _, ok := apperrors.IsIncompleteApplicantDataError(err); ok {
			return nil, err
		}
		s.logger.Error("re-evaluation failed", zap.String("orderId", order.ID), zap.Error(err))
		return nil, apperrors.NewInternalError("re-evaluation failed", err)
	}

	now := s.now()
	snapshot := snapshotOf(res, outcome, s.newID(), now)
	if err := order.RecordEvaluation(snapshot, now); err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.metrics.ObserveEvaluationScore(string(order.VisaCategory), outcome.TotalScore)

	return order.Evaluation, nil
}

// CompleteProcessing is the operator step closing a PROCESSING order.
func (s *WorkflowService) CompleteProcessing(ctx context.Context, orderID string) (*dto.CompleteResult, error) {
	defer s.observe("complete_processing", time.Now())

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.RequireStatus("complete processing", domain.OrderStatusProcessing); err != nil {
		return nil, err
	}

	now := s.now()
	changes, err := advance(order, now, nil)
	if err != nil {
		return nil, err
	}
	if err := s.orders.Save(ctx, order); err != nil {
		return nil, err
	}
	s.announce(ctx, order, changes)
	s.progressMatch(ctx, order, now, domain.MatchStatusCompleted)

	s.logger.Info("order completed", zap.String("orderId", order.ID), zap.Int("daysInProgress", order.DaysInProgress(now)))

	return &dto.CompleteResult{OrderID: order.ID, Status: order.Status}, nil
}

func (s *WorkflowService) SubmitMatchFeedback(ctx context.Context, matchID string, rating int, comment string) (*domain.Match, error) {
	m, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := m.RecordFeedback(domain.ClientFeedback{Rating: rating, Comment: comment}, s.now()); err != nil {
		return nil, err
	}
	if err := s.matches.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// progressMatch walks the order's match through steps, skipping the ones it
// already reached. Failures are logged; the order outcome stands.
func (s *WorkflowService) progressMatch(ctx context.Context, order *domain.Order, now time.Time, steps ...domain.MatchStatus) {
	if order.MatchID == nil {
		return
	}
	m, err := s.matches.FindByID(ctx, *order.MatchID)
	if err != nil {
		s.logger.Warn("match lookup failed", zap.String("orderId", order.ID), zap.String("matchId", *order.MatchID), zap.Error(err))
		return
	}
	for _, step := range steps {
		if m.Status == step {
			continue
		}
		if err := m.TransitionTo(step, now); err != nil {
			s.logger.Warn("match transition skipped", zap.String("matchId", m.ID), zap.String("status", string(m.Status)), zap.String("target", string(step)))
			return
		}
	}
	if err := s.matches.Save(ctx, m); err != nil {
		s.logger.Warn("failed to save match", zap.String("matchId", m.ID), zap.Error(err))
		return
	}
	if m.Status == domain.MatchStatusCompleted {
		s.releaseRepresentative(ctx, m)
	}
}

func (s *WorkflowService) cancelMatch(ctx context.Context, m *domain.Match, now time.Time) {
	if err := m.TransitionTo(domain.MatchStatusCancelled, now); err != nil {
		s.logger.Warn("match not cancellable", zap.String("matchId", m.ID), zap.String("status", string(m.Status)))
		return
	}
	if err := s.matches.Save(ctx, m); err != nil {
		s.logger.Error("failed to cancel match", zap.String("matchId", m.ID), zap.Error(err))
		return
	}
	s.releaseRepresentative(ctx, m)
}

// releaseRepresentative frees the case slot a finished match held.
func (s *WorkflowService) releaseRepresentative(ctx context.Context, m *domain.Match) {
	repID := m.Representative.RepresentativeID
	if err := s.matcher.Release(ctx, repID); err != nil {
		s.logger.Error("failed to release representative slot",
			zap.String("matchId", m.ID),
			zap.String("representativeId", repID),
			zap.Error(err),
		)
	}
}

func (s *WorkflowService) announce(ctx context.Context, order *domain.Order, changes []stageChange) {
	for _, c := range changes {
		s.metrics.IncrementTransition(string(c.to))
		event := domain.NewStageEvent(order, c.from)
		event.To = c.to
		if err := s.events.PublishStageChange(ctx, event); err != nil {
			s.logger.Warn("failed to publish stage event",
				zap.String("orderId", order.ID),
				zap.String("from", string(c.from)),
				zap.String("to", string(c.to)),
				zap.Error(err),
			)
		}
	}
}

func (s *WorkflowService) observe(operation string, start time.Time) {
	s.metrics.ObserveOperation(operation, time.Since(start))
}

func runEvaluator(ev evaluation.Evaluator, data evaluation.ApplicantData, opts evaluation.EvaluateOptions) (out *evaluation.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("evaluator %s panicked: %v", ev.Name(), r)
		}
	}()
	out, err = ev.Evaluate(data, opts)
	if err == nil && out == nil {
		err = fmt.Errorf("evaluator %s returned no outcome", ev.Name())
	}
	return out, err
}

func snapshotOf(res *evaluation.Resolution, out *evaluation.Outcome, runID string, now time.Time) domain.EvaluationResult {
	return domain.EvaluationResult{
		Score:           out.TotalScore,
		Probability:     out.Status,
		CategoryScores:  out.CategoryScores,
		Strengths:       nonNil(out.Strengths),
		Weaknesses:      nonNil(out.Weaknesses),
		Recommendations: nonNil(out.Recommendations),
		EvaluatedAt:     now,
		EvaluatorRunID:  runID,
		Evaluator:       res.Evaluator.Name(),
		UsedFallback:    res.UsedFallback,
	}
}

func failedSnapshot(res *evaluation.Resolution, runID string, cause error, now time.Time) domain.EvaluationResult {
	return domain.EvaluationResult{
		Probability:     domain.ProbabilityVeryLow,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
		EvaluatedAt:     now,
		EvaluatorRunID:  runID,
		Evaluator:       res.Evaluator.Name(),
		UsedFallback:    res.UsedFallback,
		FailureReason:   cause.Error(),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
