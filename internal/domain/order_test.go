package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "visaflow/internal/errors"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestOrder(opts ServiceOptions) *Order {
	pricing := Pricing{
		BasePrice: decimal.NewFromInt(300000),
		Currency:  DefaultCurrency,
	}
	return NewOrder("order-1", "user-1", VisaE1, ApplicationNew, opts, pricing, baseTime)
}

func TestNewOrder_StartsInEvaluation(t *testing.T) {
	order := newTestOrder(ServiceOptions{IncludeLegalMatching: true})

	assert.Equal(t, OrderStatusEvaluation, order.Status)
	assert.Equal(t, map[string]time.Time{TimelineEvaluationStarted: baseTime}, map[string]time.Time(order.Timeline))
	assert.Nil(t, order.MatchID)
	assert.Nil(t, order.PaymentID)
	assert.Nil(t, order.DocumentSubmissionID)
	assert.True(t, order.Pricing.TotalAmount.Equal(decimal.NewFromInt(300000)))
}

func TestOrder_Advance_FollowsSequenceAndStampsOnlyItsKeys(t *testing.T) {
	tests := []struct {
		from   OrderStatus
		to     OrderStatus
		stamps []string
	}{
		{OrderStatusEvaluation, OrderStatusMatching, []string{TimelineEvaluationCompleted, TimelineMatchingStarted}},
		{OrderStatusMatching, OrderStatusPaymentPending, []string{TimelineMatchingCompleted, TimelinePaymentRequested}},
		{OrderStatusPaymentPending, OrderStatusPaymentCompleted, []string{TimelinePaymentCompleted}},
		{OrderStatusPaymentCompleted, OrderStatusDocumentsPending, []string{TimelineDocumentsRequested}},
		{OrderStatusDocumentsPending, OrderStatusDocumentsSubmitted, []string{TimelineDocumentsSubmitted}},
		{OrderStatusDocumentsSubmitted, OrderStatusProcessing, []string{TimelineProcessingStarted}},
		{OrderStatusProcessing, OrderStatusCompleted, []string{TimelineCompleted}},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			order := newTestOrder(ServiceOptions{})
			order.Status = tt.from
			before := Timeline{}
			for k, v := range order.Timeline {
				before[k] = v
			}

			now := baseTime.Add(time.Hour)
			next, err := order.Advance(now)
			require.NoError(t, err)
			assert.Equal(t, tt.to, next)
			assert.Equal(t, tt.to, order.Status)

			assert.Len(t, order.Timeline, len(before)+len(tt.stamps))
			for k, v := range before {
				assert.Equal(t, v, order.Timeline[k], "existing key %s must not change", k)
			}
			for _, key := range tt.stamps {
				assert.Equal(t, now, order.Timeline[key])
			}
		})
	}
}

func TestOrder_Advance_TerminalStatesFail(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusCompleted, OrderStatusCancelled, OrderStatusFailed} {
		t.Run(string(status), func(t *testing.T) {
			order := newTestOrder(ServiceOptions{})
			order.Status = status

			assert.False(t, order.CanAdvance())
			got, err := order.Advance(baseTime)
			assert.Equal(t, status, got)

			_, ok := apperrors.IsTerminalStateError(err)
			assert.True(t, ok)
			assert.Equal(t, status, order.Status)
		})
	}
}

func TestOrder_CanAdvance_NonTerminal(t *testing.T) {
	order := newTestOrder(ServiceOptions{})
	for order.Status != OrderStatusCompleted {
		assert.True(t, order.CanAdvance(), "status %s", order.Status)
		_, err := order.Advance(baseTime)
		require.NoError(t, err)
	}
	assert.False(t, order.CanAdvance())
}

func TestOrder_Advance_DoesNotRewriteExistingStamp(t *testing.T) {
	order := newTestOrder(ServiceOptions{})
	earlier := baseTime.Add(-time.Hour)
	order.Timeline[TimelineEvaluationCompleted] = earlier

	_, err := order.Advance(baseTime)
	require.NoError(t, err)

	assert.Equal(t, earlier, order.Timeline[TimelineEvaluationCompleted])
	assert.Equal(t, baseTime, order.Timeline[TimelineMatchingStarted])
}

func TestOrder_Cancel(t *testing.T) {
	t.Run("payment pending order is cancelled once", func(t *testing.T) {
		order := newTestOrder(ServiceOptions{})
		order.Status = OrderStatusPaymentPending
		cancelAt := baseTime.Add(2 * time.Hour)

		require.NoError(t, order.Cancel("changed plans", cancelAt))

		assert.Equal(t, OrderStatusCancelled, order.Status)
		assert.Equal(t, "changed plans", order.CancellationReason)
		require.NotNil(t, order.CancelledAt)
		assert.Equal(t, cancelAt, *order.CancelledAt)
		assert.Equal(t, cancelAt, order.Timeline[TimelineCancelled])

		err := order.Cancel("again", cancelAt.Add(time.Hour))
		_, ok := apperrors.IsInvalidStageTransitionError(err)
		assert.True(t, ok)
		assert.Equal(t, cancelAt, *order.CancelledAt)
		assert.Equal(t, "changed plans", order.CancellationReason)
	})

	t.Run("completed order cannot be cancelled", func(t *testing.T) {
		order := newTestOrder(ServiceOptions{})
		order.Status = OrderStatusCompleted

		err := order.Cancel("too late", baseTime)
		_, ok := apperrors.IsInvalidStageTransitionError(err)
		assert.True(t, ok)
		assert.Equal(t, OrderStatusCompleted, order.Status)
		assert.Nil(t, order.CancelledAt)
	})

	t.Run("failed order stays failed", func(t *testing.T) {
		order := newTestOrder(ServiceOptions{})
		order.Status = OrderStatusFailed

		err := order.Cancel("cleanup", baseTime)
		_, ok := apperrors.IsInvalidStageTransitionError(err)
		assert.True(t, ok)
		assert.Equal(t, OrderStatusFailed, order.Status)
		assert.Nil(t, order.CancelledAt)
		assert.NotContains(t, order.Timeline, TimelineCancelled)
	})
}

func TestOrder_Fail(t *testing.T) {
	order := newTestOrder(ServiceOptions{})
	require.NoError(t, order.Fail("evaluator crashed", baseTime))

	assert.Equal(t, OrderStatusFailed, order.Status)
	assert.Equal(t, "evaluator crashed", order.FailureReason)
	assert.Equal(t, baseTime, order.Timeline[TimelineFailed])

	err := order.Fail("twice", baseTime)
	assert.Error(t, err)
}

func TestOrder_RecordEvaluation_OverwritesWithoutMovingStatus(t *testing.T) {
	order := newTestOrder(ServiceOptions{})
	order.Status = OrderStatusPaymentPending

	require.NoError(t, order.RecordEvaluation(EvaluationResult{Score: 40, EvaluatorRunID: "run-1"}, baseTime))
	require.NoError(t, order.RecordEvaluation(EvaluationResult{Score: 72, EvaluatorRunID: "run-2"}, baseTime))

	assert.Equal(t, OrderStatusPaymentPending, order.Status)
	assert.Equal(t, 72.0, order.Evaluation.Score)
	assert.Equal(t, "run-2", order.Evaluation.EvaluatorRunID)
}

func TestOrder_References_OnlyOnceStageEntered(t *testing.T) {
	order := newTestOrder(ServiceOptions{IncludeLegalMatching: true})

	err := order.AttachMatch("match-1", baseTime)
	_, ok := apperrors.IsInvalidStageTransitionError(err)
	assert.True(t, ok)
	assert.Nil(t, order.MatchID)

	err = order.AttachPayment("pay-1", baseTime)
	assert.Error(t, err)
	assert.Nil(t, order.PaymentID)

	_, err = order.Advance(baseTime)
	require.NoError(t, err)
	require.NoError(t, order.AttachMatch("match-1", baseTime))
	assert.Equal(t, "match-1", *order.MatchID)
}

func TestOrder_AttachMatch_RequiresLegalMatching(t *testing.T) {
	order := newTestOrder(ServiceOptions{IncludeLegalMatching: false})
	order.Status = OrderStatusMatching

	err := order.AttachMatch("match-1", baseTime)
	assert.Error(t, err)
	assert.Nil(t, order.MatchID)
}

func TestOrder_ProgressPercentage(t *testing.T) {
	tests := map[OrderStatus]int{
		OrderStatusEvaluation:         10,
		OrderStatusMatching:           25,
		OrderStatusPaymentPending:     35,
		OrderStatusPaymentCompleted:   50,
		OrderStatusDocumentsPending:   60,
		OrderStatusDocumentsSubmitted: 75,
		OrderStatusProcessing:         90,
		OrderStatusCompleted:          100,
		OrderStatusCancelled:          0,
		OrderStatusFailed:             0,
	}
	for status, want := range tests {
		order := newTestOrder(ServiceOptions{})
		order.Status = status
		assert.Equal(t, want, order.ProgressPercentage(), "status %s", status)
	}
}

func TestOrder_DaysInProgress(t *testing.T) {
	order := newTestOrder(ServiceOptions{})

	assert.Equal(t, 0, order.DaysInProgress(baseTime.Add(23*time.Hour)))
	assert.Equal(t, 3, order.DaysInProgress(baseTime.Add(80*time.Hour)))
	assert.Equal(t, 0, order.DaysInProgress(baseTime.Add(-time.Hour)))
}

func TestOrder_JSONRoundTrip(t *testing.T) {
	order := newTestOrder(ServiceOptions{IncludeLegalMatching: true, UrgentProcessing: true})
	order.Pricing.SetBase(decimal.NewFromInt(300000), decimal.NewFromInt(150000))
	order.Pricing.SetLegalFee(decimal.NewFromInt(860000))
	_, err := order.Advance(baseTime.Add(time.Minute))
	require.NoError(t, err)
	_, err = order.Advance(baseTime.Add(2 * time.Minute))
	require.NoError(t, err)

	data, err := json.Marshal(order)
	require.NoError(t, err)

	var decoded Order
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, order.Status, decoded.Status)
	assert.True(t, order.Pricing.TotalAmount.Equal(decoded.Pricing.TotalAmount))
	assert.True(t, decoded.Pricing.IsConsistent())
	require.Len(t, decoded.Timeline, len(order.Timeline))
	for key, at := range order.Timeline {
		assert.True(t, at.Equal(decoded.Timeline[key]), "timeline key %s", key)
	}
}

func TestOrder_CloneIsDeep(t *testing.T) {
	order := newTestOrder(ServiceOptions{IncludeLegalMatching: true})
	require.NoError(t, order.RecordEvaluation(EvaluationResult{
		Score:          70,
		CategoryScores: map[string]float64{"education": 100},
		Strengths:      []string{"degree"},
	}, baseTime))
	_, err := order.Advance(baseTime)
	require.NoError(t, err)
	require.NoError(t, order.AttachMatch("match-1", baseTime))

	clone := order.Clone()
	clone.Timeline["completed"] = baseTime
	clone.Evaluation.CategoryScores["education"] = 0
	clone.Evaluation.Strengths[0] = "changed"
	*clone.MatchID = "match-2"

	_, stamped := order.Timeline["completed"]
	assert.False(t, stamped)
	assert.Equal(t, 100.0, order.Evaluation.CategoryScores["education"])
	assert.Equal(t, "degree", order.Evaluation.Strengths[0])
	assert.Equal(t, "match-1", *order.MatchID)
}
