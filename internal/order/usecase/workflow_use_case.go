package usecase

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"visaflow/internal/domain"
	"visaflow/internal/dto"
	apperrors "visaflow/internal/errors"
	"visaflow/internal/matching"
)

type WorkflowService interface {
	StartEvaluation(ctx context.Context, in dto.StartEvaluationInput) (*dto.StartEvaluationResult, error)
	MatchRepresentative(ctx context.Context, orderID string, prefs matching.Preferences) (*dto.MatchResult, error)
	ProcessPayment(ctx context.Context, orderID, method string, data map[string]any) (*dto.PaymentResult, error)
	SubmitDocuments(ctx context.Context, orderID string, docs []domain.Document) (*dto.DocumentSubmissionResult, error)
	TrackProgress(ctx context.Context, orderID string) (*dto.ProgressResult, error)
	Cancel(ctx context.Context, orderID, reason string) (*dto.CancelResult, error)
	Reevaluate(ctx context.Context, orderID string, data map[string]any, detailed bool) (*domain.EvaluationResult, error)
	CompleteProcessing(ctx context.Context, orderID string) (*dto.CompleteResult, error)
	SubmitMatchFeedback(ctx context.Context, matchID string, rating int, comment string) (*domain.Match, error)
}

// retryPolicy says which failures an operation may be re-run on. Operations
// that reach an external collaborator with side effects are never re-run on
// conflict, and payment is never re-run at all.
type retryPolicy int

const (
	noRetry retryPolicy = iota
	retryOnDeadlock
	retryOnDeadlockOrConflict
)

type WorkflowUseCase struct {
	svc              WorkflowService
	logger           *zap.Logger
	maxRetryAttempts int
	backoffs         []time.Duration
}

func NewWorkflowUseCase(svc WorkflowService, logger *zap.Logger, maxRetryAttempts int) *WorkflowUseCase {
	if maxRetryAttempts < 1 {
		maxRetryAttempts = 1
	}
	return &WorkflowUseCase{
		svc:              svc,
		logger:           logger,
		maxRetryAttempts: maxRetryAttempts,
		// Backoff intervals: attempt 1 (0ms), attempt 2 (100ms), attempt 3 (200ms)
		backoffs: []time.Duration{0, 100 * time.Millisecond, 200 * time.Millisecond},
	}
}

func (uc *WorkflowUseCase) StartEvaluation(ctx context.Context, in dto.StartEvaluationInput) (*dto.StartEvaluationResult, error) {
	uc.logger.Info("start evaluation requested", zap.String("userId", in.UserID), zap.String("category", in.Category))

	if strings.TrimSpace(in.UserID) == "" {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "userId",
			Message: "userId is required",
		})
	}

	return withRetry(ctx, uc, "start evaluation", "", retryOnDeadlock, func() (*dto.StartEvaluationResult, error) {
		return uc.svc.StartEvaluation(ctx, in)
	})
}

func (uc *WorkflowUseCase) MatchRepresentative(ctx context.Context, orderID string, prefs matching.Preferences) (*dto.MatchResult, error) {
	if err := requireID("orderId", orderID); err != nil {
		return nil, err
	}
	return withRetry(ctx, uc, "match representative", orderID, retryOnDeadlock, func() (*dto.MatchResult, error) {
		return uc.svc.MatchRepresentative(ctx, orderID, prefs)
	})
}

func (uc *WorkflowUseCase) ProcessPayment(ctx context.Context, orderID, method string, data map[string]any) (*dto.PaymentResult, error) {
	if err := requireID("orderId", orderID); err != nil {
		return nil, err
	}
	return withRetry(ctx, uc, "process payment", orderID, noRetry, func() (*dto.PaymentResult, error) {
		return uc.svc.ProcessPayment(ctx, orderID, method, data)
	})
}

func (uc *WorkflowUseCase) SubmitDocuments(ctx context.Context, orderID string, docs []domain.Document) (*dto.DocumentSubmissionResult, error) {
	if err := requireID("orderId", orderID); err != nil {
		return nil, err
	}
	return withRetry(ctx, uc, "submit documents", orderID, retryOnDeadlock, func() (*dto.DocumentSubmissionResult, error) {
		return uc.svc.SubmitDocuments(ctx, orderID, docs)
	})
}

func (uc *WorkflowUseCase) TrackProgress(ctx context.Context, orderID string) (*dto.ProgressResult, error) {
	if err := requireID("orderId", orderID); err != nil {
		return nil, err
	}
	return withRetry(ctx, uc, "track progress", orderID, retryOnDeadlock, func() (*dto.ProgressResult, error) {
		return uc.svc.TrackProgress(ctx, orderID)
	})
}

func (uc *WorkflowUseCase) Cancel(ctx context.Context, orderID, reason string) (*dto.CancelResult, error) {
	if err := requireID("orderId", orderID); err != nil {
		return nil, err
	}
	return withRetry(ctx, uc, "cancel", orderID, retryOnDeadlockOrConflict, func() (*dto.CancelResult, error) {
		return uc.svc.Cancel(ctx, orderID, reason)
	})
}

func (uc *WorkflowUseCase) Reevaluate(ctx context.Context, orderID string, data map[string]any, detailed bool) (*domain.EvaluationResult, error) {
	if err := requireID("orderId", orderID); err != nil {
		return nil, err
	}
	return withRetry(ctx, uc, "reevaluate", orderID, retryOnDeadlockOrConflict, func() (*domain.EvaluationResult, error) {
		return uc.svc.Reevaluate(ctx, orderID, data, detailed)
	})
}

func (uc *WorkflowUseCase) CompleteProcessing(ctx context.Context, orderID string) (*dto.CompleteResult, error) {
	if err := requireID("orderId", orderID); err != nil {
		return nil, err
	}
	return withRetry(ctx, uc, "complete processing", orderID, retryOnDeadlockOrConflict, func() (*dto.CompleteResult, error) {
		return uc.svc.CompleteProcessing(ctx, orderID)
	})
}

func (uc *WorkflowUseCase) SubmitMatchFeedback(ctx context.Context, matchID string, rating int, comment string) (*domain.Match, error) {
	if err := requireID("matchId", matchID); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   "rating",
			Message: "rating must be between 1 and 5",
		})
	}
	return withRetry(ctx, uc, "submit match feedback", matchID, retryOnDeadlockOrConflict, func() (*domain.Match, error) {
		return uc.svc.SubmitMatchFeedback(ctx, matchID, rating, comment)
	})
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return apperrors.NewValidationError("validation failed", apperrors.ValidationDetail{
			Field:   field,
			Message: field + " is required",
		})
	}
	return nil
}

func withRetry[T any](ctx context.Context, uc *WorkflowUseCase, operation, id string, policy retryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	maxAttempts := uc.maxRetryAttempts
	if policy == noRetry {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		retryable := isDeadlockError(err)
		if !retryable && policy == retryOnDeadlockOrConflict {
			_, retryable = apperrors.IsConflictError(err)
		}
		if !retryable {
			return zero, err
		}
		if attempt == maxAttempts {
			break
		}

		uc.logger.Warn("transient failure, retrying",
			zap.String("operation", operation),
			zap.String("id", id),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err),
		)
		if err := uc.wait(ctx, attempt); err != nil {
			return zero, err
		}
	}

	if isDeadlockError(lastErr) {
		if policy == noRetry {
			return zero, apperrors.NewDeadlockError("deadlock detected")
		}
		return zero, apperrors.NewDeadlockError("max retries exceeded")
	}
	return zero, lastErr
}

// wait sleeps for the backoff of the next attempt with ±20% jitter.
func (uc *WorkflowUseCase) wait(ctx context.Context, attempt int) error {
	if len(uc.backoffs) == 0 {
		return nil
	}
	idx := attempt
	if idx >= len(uc.backoffs) {
		idx = len(uc.backoffs) - 1
	}
	base := uc.backoffs[idx]
	if base <= 0 {
		return nil
	}
	jittered := time.Duration(float64(base) * (0.8 + rand.Float64()*0.4))

	timer := time.NewTimer(jittered)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isDeadlockError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
