package matching

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"visaflow/internal/domain"
	apperrors "visaflow/internal/errors"
	"visaflow/internal/infrastructure/metrics"
)

// Sub-score weights. They sum to 1.0.
const (
	weightCategoryExpertise     = 0.30
	weightLocationProximity     = 0.15
	weightLanguageCompatibility = 0.15
	weightPriceFit              = 0.15
	weightAvailability          = 0.15
	weightPreferenceFit         = 0.10
)

// Score given to a dimension the client expressed no preference on.
const neutralScore = 70.0

type Preferences struct {
	Languages                 []string         `json:"languages"`
	Location                  string           `json:"location"`
	MaxBudget                 *decimal.Decimal `json:"maxBudget,omitempty"`
	MinRating                 float64          `json:"minRating"`
	MinExperienceYears        int              `json:"minExperienceYears"`
	PreferredRepresentativeID string           `json:"preferredRepresentativeId"`
}

// MatchStore persists new matches.
type MatchStore interface {
	Create(ctx context.Context, m *domain.Match) error
}

type Engine struct {
	directory Directory
	matches   MatchStore
	logger    *zap.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewEngine(directory Directory, matches MatchStore, logger *zap.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		directory: directory,
		matches:   matches,
		logger:    logger,
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type candidate struct {
	rep       domain.Representative
	fee       domain.MatchFee
	breakdown domain.ScoreBreakdown
	score     float64
}

// Match scores every active representative for the order and persists one
// PROPOSED match for the best. The order itself is left untouched.
func (e *Engine) Match(ctx context.Context, order *domain.Order, prefs Preferences) (*domain.Match, error) {
	if err := order.RequireStatus("match representative", domain.OrderStatusMatching); err != nil {
		return nil, err
	}

	reps, err := e.directory.Active(ctx)
	if err != nil {
		return nil, apperrors.NewDownstreamError("representative directory", err)
	}
	if len(reps) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no representative available for %s", order.VisaCategory))
	}

	candidates := make([]candidate, 0, len(reps))
	for _, rep := range reps {
		candidates = append(candidates, e.score(order, rep, prefs))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].rep.Rating != candidates[j].rep.Rating {
			return candidates[i].rep.Rating > candidates[j].rep.Rating
		}
		return candidates[i].rep.ID < candidates[j].rep.ID
	})
	best, err := e.claim(ctx, candidates)
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("no representative available for %s", order.VisaCategory))
	}

	now := e.now()
	m := &domain.Match{
		ID:             uuid.New().String(),
		OrderID:        order.ID,
		UserID:         order.UserID,
		VisaCategory:   order.VisaCategory,
		Representative: best.rep.Snapshot(),
		MatchingScore:  best.score,
		ScoreBreakdown: best.breakdown,
		Fee:            best.fee,
		ServiceScope: domain.ServiceScope{
			Representation:      true,
			DocumentPreparation: order.ServiceOptions.IncludeDocumentReview,
			Consultation:        order.ServiceOptions.ConsultationIncluded,
			UrgentHandling:      order.ServiceOptions.UrgentProcessing,
		},
		Status:    domain.MatchStatusProposed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := e.matches.Create(ctx, m); err != nil {
		if relErr := e.Release(ctx, best.rep.ID); relErr != nil {
			e.logger.Error("failed to release representative slot", zap.String("representativeId", best.rep.ID), zap.Error(relErr))
		}
		return nil, fmt.Errorf("failed to persist match for order %s: %w", order.ID, err)
	}

	e.metrics.ObserveMatchingScore(best.score)
	e.logger.Info("Representative matched",
		zap.String("orderId", order.ID),
		zap.String("matchId", m.ID),
		zap.String("representativeId", best.rep.ID),
		zap.Float64("matchingScore", best.score),
		zap.Int("candidates", len(candidates)),
	)
	return m, nil
}

// claim takes a case slot from the best ranked candidate still below
// capacity. It returns nil when every candidate filled up meanwhile.
func (e *Engine) claim(ctx context.Context, ranked []candidate) (*candidate, error) {
	for i := range ranked {
		ok, err := e.directory.Assign(ctx, ranked[i].rep.ID)
		if err != nil {
			return nil, apperrors.NewDownstreamError("representative directory", err)
		}
		if ok {
			return &ranked[i], nil
		}
		e.logger.Debug("representative at capacity, trying next", zap.String("representativeId", ranked[i].rep.ID))
	}
	return nil, nil
}

// Release returns the case slot a match held on its representative.
func (e *Engine) Release(ctx context.Context, representativeID string) error {
	return e.directory.Release(ctx, representativeID)
}

func (e *Engine) score(order *domain.Order, rep domain.Representative, prefs Preferences) candidate {
	fee := FeeFor(order.VisaCategory, rep, order.Pricing.ConsultationFee)
	b := domain.ScoreBreakdown{
		CategoryExpertise:     expertiseScore(order.VisaCategory, rep),
		LocationProximity:     locationScore(prefs.Location, rep),
		LanguageCompatibility: languageScore(prefs.Languages, rep),
		PriceFit:              priceScore(prefs.MaxBudget, fee),
		Availability:          availabilityScore(rep),
		PreferenceFit:         preferenceScore(prefs, rep),
	}
	total := weightCategoryExpertise*b.CategoryExpertise +
		weightLocationProximity*b.LocationProximity +
		weightLanguageCompatibility*b.LanguageCompatibility +
		weightPriceFit*b.PriceFit +
		weightAvailability*b.Availability +
		weightPreferenceFit*b.PreferenceFit
	return candidate{rep: rep, fee: fee, breakdown: b, score: round1(clamp(total))}
}

func expertiseScore(category domain.VisaCategory, rep domain.Representative) float64 {
	if rep.Specializes(category) {
		return clamp(70 + 2*math.Min(float64(rep.ExperienceYears), 15))
	}
	for _, s := range rep.Specializations {
		if s.Family() == category.Family() {
			return 40
		}
	}
	return 10
}

func locationScore(preferred string, rep domain.Representative) float64 {
	switch {
	case strings.TrimSpace(preferred) == "":
		return neutralScore
	case strings.EqualFold(strings.TrimSpace(preferred), rep.Location):
		return 100
	case rep.RemoteAvailable:
		return 60
	default:
		return 20
	}
}

func languageScore(preferred []string, rep domain.Representative) float64 {
	if len(preferred) == 0 {
		return neutralScore
	}
	spoken := 0
	for _, want := range preferred {
		for _, have := range rep.Languages {
			if strings.EqualFold(want, have) {
				spoken++
				break
			}
		}
	}
	return float64(spoken) / float64(len(preferred)) * 100
}

func priceScore(budget *decimal.Decimal, fee domain.MatchFee) float64 {
	if budget == nil || !budget.IsPositive() {
		return neutralScore
	}
	if fee.Total.LessThanOrEqual(*budget) {
		return 100
	}
	overrun, _ := fee.Total.Sub(*budget).Div(*budget).Mul(decimal.NewFromInt(100)).Float64()
	return clamp(100 - 2*overrun)
}

func availabilityScore(rep domain.Representative) float64 {
	if rep.Capacity <= 0 {
		return 0
	}
	return clamp(float64(rep.Capacity-rep.ActiveCases) / float64(rep.Capacity) * 100)
}

func preferenceScore(prefs Preferences, rep domain.Representative) float64 {
	if prefs.PreferredRepresentativeID != "" && prefs.PreferredRepresentativeID == rep.ID {
		return 100
	}
	score := clamp(rep.Rating / 5 * 100)
	if prefs.MinRating > 0 && rep.Rating < prefs.MinRating {
		score /= 2
	}
	if prefs.MinExperienceYears > 0 && rep.ExperienceYears < prefs.MinExperienceYears {
		score /= 2
	}
	return score
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

