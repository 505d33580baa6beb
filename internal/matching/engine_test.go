package matching

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"visaflow/internal/domain"
	apperrors "visaflow/internal/errors"
)

var baseTime = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type mockMatchStore struct {
	createFn func(ctx context.Context, m *domain.Match) error
	created  []*domain.Match
}

func (s *mockMatchStore) Create(ctx context.Context, m *domain.Match) error {
	if s.createFn != nil {
		if err := s.createFn(ctx, m); err != nil {
			return err
		}
	}
	s.created = append(s.created, m)
	return nil
}

type mockDirectory struct {
	activeFn  func(ctx context.Context) ([]domain.Representative, error)
	assignFn  func(ctx context.Context, id string) (bool, error)
	releaseFn func(ctx context.Context, id string) error
}

func (d *mockDirectory) Active(ctx context.Context) ([]domain.Representative, error) {
	return d.activeFn(ctx)
}

func (d *mockDirectory) Assign(ctx context.Context, id string) (bool, error) {
	if d.assignFn == nil {
		return true, nil
	}
	return d.assignFn(ctx, id)
}

func (d *mockDirectory) Release(ctx context.Context, id string) error {
	if d.releaseFn == nil {
		return nil
	}
	return d.releaseFn(ctx, id)
}

func newMatchingOrder(t *testing.T, category domain.VisaCategory) *domain.Order {
	t.Helper()
	opts := domain.ServiceOptions{IncludeLegalMatching: true}
	o := domain.NewOrder("ord-1", "user-1", category, domain.ApplicationNew, opts,
		domain.Pricing{BasePrice: decimal.NewFromInt(300_000), Currency: domain.DefaultCurrency}, baseTime)
	_, err := o.Advance(baseTime)
	require.NoError(t, err)
	return o
}

func newTestEngine(dir Directory, store MatchStore) *Engine {
	e := NewEngine(dir, store, zap.NewNop(), nil)
	e.now = func() time.Time { return baseTime }
	return e
}

func professorRep() domain.Representative {
	return domain.Representative{
		ID: "rep-a", Name: "Kim", LicenseID: "L-1",
		Specializations: []domain.VisaCategory{domain.VisaE1},
		Rating:          4.0, ExperienceYears: 10, Languages: []string{"ko", "en"},
		Location: "Seoul", Capacity: 10, ActiveCases: 5,
	}
}

func TestEngine_Match_RequiresMatchingStage(t *testing.T) {
	store := &mockMatchStore{}
	e := newTestEngine(NewStaticDirectory(DefaultRoster()), store)
	order := domain.NewOrder("ord-1", "user-1", domain.VisaE1, domain.ApplicationNew,
		domain.ServiceOptions{IncludeLegalMatching: true}, domain.Pricing{}, baseTime)

	m, err := e.Match(context.Background(), order, Preferences{})

	assert.Nil(t, m)
	transition, ok := apperrors.IsInvalidStageTransitionError(err)
	require.True(t, ok)
	assert.Equal(t, "EVALUATION", transition.Current)
	assert.Empty(t, store.created)
}

func TestEngine_Match_ScoresWithFixedWeights(t *testing.T) {
	store := &mockMatchStore{}
	e := newTestEngine(NewStaticDirectory([]domain.Representative{professorRep()}), store)
	order := newMatchingOrder(t, domain.VisaE1)

	m, err := e.Match(context.Background(), order, Preferences{})
	require.NoError(t, err)

	// 0.30*90 + 0.15*70 + 0.15*70 + 0.15*70 + 0.15*50 + 0.10*80
	assert.InDelta(t, 74.0, m.MatchingScore, 0.01)
	assert.Equal(t, 90.0, m.ScoreBreakdown.CategoryExpertise)
	assert.Equal(t, 50.0, m.ScoreBreakdown.Availability)
	assert.Equal(t, 80.0, m.ScoreBreakdown.PreferenceFit)
	assert.Equal(t, domain.MatchStatusProposed, m.Status)
	assert.Equal(t, "ord-1", m.OrderID)
	assert.Equal(t, "rep-a", m.Representative.RepresentativeID)
	assert.Equal(t, baseTime, m.CreatedAt)
	require.Len(t, store.created, 1)
	assert.Same(t, m, store.created[0])

	// the engine never moves the order
	assert.Equal(t, domain.OrderStatusMatching, order.Status)
	assert.Nil(t, order.MatchID)
}

func TestEngine_Match_PrefersSpecialist(t *testing.T) {
	generalist := professorRep()
	generalist.ID = "rep-b"
	generalist.Specializations = []domain.VisaCategory{domain.VisaD8}
	generalist.Rating = 5.0

	e := newTestEngine(NewStaticDirectory([]domain.Representative{generalist, professorRep()}), &mockMatchStore{})

	m, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})
	require.NoError(t, err)
	assert.Equal(t, "rep-a", m.Representative.RepresentativeID)
}

func TestEngine_Match_LanguagePreferenceDecides(t *testing.T) {
	english := professorRep()
	spanish := professorRep()
	spanish.ID = "rep-es"
	spanish.Languages = []string{"ko", "es"}

	e := newTestEngine(NewStaticDirectory([]domain.Representative{english, spanish}), &mockMatchStore{})

	m, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{Languages: []string{"ES"}})
	require.NoError(t, err)
	assert.Equal(t, "rep-es", m.Representative.RepresentativeID)
	assert.Equal(t, 100.0, m.ScoreBreakdown.LanguageCompatibility)
}

func TestEngine_Match_NoRepresentativeAvailable(t *testing.T) {
	full := professorRep()
	full.ActiveCases = full.Capacity
	store := &mockMatchStore{}
	e := newTestEngine(NewStaticDirectory([]domain.Representative{full}), store)

	_, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.Empty(t, store.created)
}

func TestEngine_Match_DirectoryFailureIsDownstream(t *testing.T) {
	dir := &mockDirectory{activeFn: func(context.Context) ([]domain.Representative, error) {
		return nil, errors.New("connection refused")
	}}
	e := newTestEngine(dir, &mockMatchStore{})

	_, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})

	downstream, ok := apperrors.IsDownstreamError(err)
	require.True(t, ok)
	assert.Equal(t, "representative directory", downstream.Collaborator)
}

func TestEngine_Match_StoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	store := &mockMatchStore{createFn: func(context.Context, *domain.Match) error { return storeErr }}
	dir := NewStaticDirectory([]domain.Representative{professorRep()})
	e := newTestEngine(dir, store)

	_, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})

	assert.ErrorIs(t, err, storeErr)
	reps, _ := dir.Active(context.Background())
	assert.Equal(t, 5, reps[0].ActiveCases)
}

func TestEngine_Match_AssignsCaseToRepresentative(t *testing.T) {
	dir := NewStaticDirectory([]domain.Representative{professorRep()})
	e := newTestEngine(dir, &mockMatchStore{})

	_, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})
	require.NoError(t, err)

	reps, _ := dir.Active(context.Background())
	require.Len(t, reps, 1)
	assert.Equal(t, 6, reps[0].ActiveCases)
}

func TestEngine_Match_SkipsRepresentativeFilledMeanwhile(t *testing.T) {
	second := professorRep()
	second.ID = "rep-b"
	second.Rating = 3.0
	var tried []string
	dir := &mockDirectory{
		activeFn: func(context.Context) ([]domain.Representative, error) {
			return []domain.Representative{professorRep(), second}, nil
		},
		assignFn: func(_ context.Context, id string) (bool, error) {
			tried = append(tried, id)
			return id == "rep-b", nil
		},
	}
	e := newTestEngine(dir, &mockMatchStore{})

	m, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})
	require.NoError(t, err)

	assert.Equal(t, []string{"rep-a", "rep-b"}, tried)
	assert.Equal(t, "rep-b", m.Representative.RepresentativeID)
}

func TestEngine_Match_EveryCandidateFilledMeanwhile(t *testing.T) {
	store := &mockMatchStore{}
	dir := &mockDirectory{
		activeFn: func(context.Context) ([]domain.Representative, error) {
			return []domain.Representative{professorRep()}, nil
		},
		assignFn: func(context.Context, string) (bool, error) { return false, nil },
	}
	e := newTestEngine(dir, store)

	_, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.Empty(t, store.created)
}

func TestEngine_Match_AssignFailureIsDownstream(t *testing.T) {
	store := &mockMatchStore{}
	dir := &mockDirectory{
		activeFn: func(context.Context) ([]domain.Representative, error) {
			return []domain.Representative{professorRep()}, nil
		},
		assignFn: func(context.Context, string) (bool, error) { return false, errors.New("lock wait timeout") },
	}
	e := newTestEngine(dir, store)

	_, err := e.Match(context.Background(), newMatchingOrder(t, domain.VisaE1), Preferences{})

	_, ok := apperrors.IsDownstreamError(err)
	assert.True(t, ok)
	assert.Empty(t, store.created)
}

func TestEngine_Release(t *testing.T) {
	dir := NewStaticDirectory([]domain.Representative{professorRep()})
	e := newTestEngine(dir, &mockMatchStore{})
	ctx := context.Background()

	m, err := e.Match(ctx, newMatchingOrder(t, domain.VisaE1), Preferences{})
	require.NoError(t, err)
	require.NoError(t, e.Release(ctx, m.Representative.RepresentativeID))

	reps, _ := dir.Active(ctx)
	require.Len(t, reps, 1)
	assert.Equal(t, 5, reps[0].ActiveCases)
}

func TestStaticDirectory_AssignStopsAtCapacity(t *testing.T) {
	rep := professorRep()
	rep.Capacity = 1
	rep.ActiveCases = 0
	dir := NewStaticDirectory([]domain.Representative{rep})
	ctx := context.Background()

	ok, err := dir.Assign(ctx, "rep-a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.Assign(ctx, "rep-a")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = dir.Assign(ctx, "rep-ghost")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, dir.Release(ctx, "rep-a"))
	require.NoError(t, dir.Release(ctx, "rep-a"))
	reps, _ := dir.FindByIDs(ctx, []string{"rep-a"})
	assert.Equal(t, 0, reps[0].ActiveCases)

	_, notFound := apperrors.IsNotFoundError(dir.Release(ctx, "rep-ghost"))
	assert.True(t, notFound)
}

func TestFeeFor(t *testing.T) {
	senior := professorRep()
	junior := professorRep()
	junior.ExperienceYears = 3

	fee := FeeFor(domain.VisaE1, senior, decimal.NewFromInt(100_000))
	assert.True(t, fee.Service.Equal(decimal.NewFromInt(880_000)), fee.Service.String())
	assert.True(t, fee.Government.Equal(decimal.NewFromInt(60_000)))
	assert.True(t, fee.Total.Equal(decimal.NewFromInt(1_040_000)))

	fallback := FeeFor(domain.VisaH2, junior, decimal.Zero)
	assert.True(t, fallback.Service.Equal(decimal.NewFromInt(FallbackServiceFee)))
	assert.True(t, fallback.Government.Equal(decimal.NewFromInt(FallbackGovernmentFee)))
}

func TestSubScores(t *testing.T) {
	rep := professorRep()

	budget := decimal.NewFromInt(1_000_000)
	over := domain.NewMatchFee(decimal.Zero, decimal.NewFromInt(1_200_000), decimal.Zero)
	under := domain.NewMatchFee(decimal.Zero, decimal.NewFromInt(900_000), decimal.Zero)
	assert.InDelta(t, 60.0, priceScore(&budget, over), 0.01)
	assert.Equal(t, 100.0, priceScore(&budget, under))
	assert.Equal(t, neutralScore, priceScore(nil, over))

	assert.Equal(t, 100.0, locationScore("seoul", rep))
	assert.Equal(t, 20.0, locationScore("Busan", rep))
	rep.RemoteAvailable = true
	assert.Equal(t, 60.0, locationScore("Busan", rep))

	assert.Equal(t, 40.0, expertiseScore(domain.VisaE7, rep))
	assert.Equal(t, 10.0, expertiseScore(domain.VisaF5, rep))

	assert.Equal(t, 40.0, preferenceScore(Preferences{MinRating: 4.5}, rep))
	assert.Equal(t, 100.0, preferenceScore(Preferences{PreferredRepresentativeID: "rep-a"}, rep))
}

func TestDefaultRoster_CoversEveryCategory(t *testing.T) {
	roster := DefaultRoster()
	for _, category := range domain.SupportedCategories() {
		covered := false
		for _, rep := range roster {
			if rep.Specializes(category) {
				covered = true
				break
			}
		}
		assert.True(t, covered, category)
	}
}
