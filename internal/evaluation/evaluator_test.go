package evaluation

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaflow/internal/domain"
	apperrors "visaflow/internal/errors"
)

func strongProfessor() ApplicantData {
	return ApplicantData{
		"education":             "PhD",
		"experienceYears":       5,
		"institutionType":       "university",
		"hasEmploymentContract": true,
		"publications":          5,
	}
}

func mustProfessor(t *testing.T) Evaluator {
	t.Helper()
	meta, _ := LookupCategory(domain.VisaE1)
	ev, err := NewProfessorEvaluator(meta)
	require.NoError(t, err)
	return ev
}

func TestProfessorEvaluator_StrongApplicant(t *testing.T) {
	out, err := mustProfessor(t).Evaluate(strongProfessor(), EvaluateOptions{Kind: domain.ApplicationNew, Mode: ModeStandard})
	require.NoError(t, err)

	// missing TOPIK counts at half marks: 30 + 25 + 20 + 15 + 5
	assert.InDelta(t, 95.0, out.TotalScore, 0.01)
	assert.Equal(t, domain.ProbabilityHigh, out.Status)
	assert.Len(t, out.Strengths, 4)
	assert.Empty(t, out.Weaknesses)
	assert.Equal(t, 50.0, out.CategoryScores["koreanLanguage"])
}

func TestProfessorEvaluator_WeakApplicant(t *testing.T) {
	data := ApplicantData{
		"education":       "Bachelor",
		"experienceYears": 1,
		"institutionType": "LANGUAGE_SCHOOL",
		"publications":    0,
		"topikLevel":      0,
	}

	out, err := mustProfessor(t).Evaluate(data, EvaluateOptions{Mode: ModeStandard})
	require.NoError(t, err)

	assert.InDelta(t, 19.0, out.TotalScore, 0.01)
	assert.Equal(t, domain.ProbabilityVeryLow, out.Status)
	assert.Len(t, out.Weaknesses, 5)
	assert.Len(t, out.Recommendations, 5)
	assert.Empty(t, out.Strengths)
}

func TestProfessorEvaluator_MissingRequiredFields(t *testing.T) {
	_, err := mustProfessor(t).Evaluate(ApplicantData{"education": "PhD", "institutionType": "  "}, EvaluateOptions{})

	incomplete, ok := apperrors.IsIncompleteApplicantDataError(err)
	require.True(t, ok)
	assert.Equal(t, "E-1", incomplete.Category)
	assert.Equal(t, []string{"experienceYears", "institutionType"}, incomplete.MissingFields)
}

func TestProfessorEvaluator_IsDeterministic(t *testing.T) {
	ev := mustProfessor(t)
	opts := EvaluateOptions{Kind: domain.ApplicationNew, Mode: ModeDetailed}

	first, err := ev.Evaluate(strongProfessor(), opts)
	require.NoError(t, err)
	second, err := ev.Evaluate(strongProfessor(), opts)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvaluate_DetailedModeAddsMidRangeRecommendations(t *testing.T) {
	ev := mustProfessor(t)

	standard, err := ev.Evaluate(strongProfessor(), EvaluateOptions{Mode: ModeStandard})
	require.NoError(t, err)
	detailed, err := ev.Evaluate(strongProfessor(), EvaluateOptions{Mode: ModeDetailed})
	require.NoError(t, err)

	assert.Empty(t, standard.Recommendations)
	assert.Len(t, detailed.Recommendations, 1)
	assert.Equal(t, standard.TotalScore, detailed.TotalScore)
}

func TestEvaluate_ExtensionPenalizesViolations(t *testing.T) {
	data := strongProfessor()
	data["priorViolations"] = 2

	out, err := mustProfessor(t).Evaluate(data, EvaluateOptions{Kind: domain.ApplicationExtension})
	require.NoError(t, err)
	assert.InDelta(t, 85.0, out.TotalScore, 0.01)
	assert.Contains(t, out.Weaknesses, "2 prior immigration violation(s) on record")

	// NEW applications ignore the compliance record
	out, err = mustProfessor(t).Evaluate(data, EvaluateOptions{Kind: domain.ApplicationNew})
	require.NoError(t, err)
	assert.InDelta(t, 95.0, out.TotalScore, 0.01)
}

func TestEvaluate_NonFiniteNumbersScoreAsUnknown(t *testing.T) {
	for _, raw := range []any{"NaN", "nan", "+Inf", "-Inf", math.NaN(), math.Inf(1)} {
		data := strongProfessor()
		data["experienceYears"] = raw

		out, err := mustProfessor(t).Evaluate(data, EvaluateOptions{Kind: domain.ApplicationNew})
		require.NoError(t, err, "experienceYears=%v", raw)
		assert.False(t, math.IsNaN(out.TotalScore), "experienceYears=%v", raw)
		assert.GreaterOrEqual(t, out.TotalScore, 0.0)
		assert.LessOrEqual(t, out.TotalScore, 100.0)
		// unknown experience counts at half marks
		assert.Equal(t, 50.0, out.CategoryScores["teachingExperience"])
		assert.InDelta(t, 82.5, out.TotalScore, 0.01)

		_, err = json.Marshal(out)
		assert.NoError(t, err)
	}
}

func TestEvaluate_InfiniteViolationsIgnored(t *testing.T) {
	data := strongProfessor()
	data["priorViolations"] = "Inf"

	out, err := mustProfessor(t).Evaluate(data, EvaluateOptions{Kind: domain.ApplicationExtension})
	require.NoError(t, err)
	assert.InDelta(t, 95.0, out.TotalScore, 0.01)
}

func TestClamp_NaNFallsToLowerBound(t *testing.T) {
	assert.Equal(t, 0.0, clamp(math.NaN(), 0, 100))
	assert.Equal(t, 100.0, clamp(math.Inf(1), 0, 100))
	assert.Equal(t, 0.0, clamp(math.Inf(-1), 0, 100))
	assert.Equal(t, 42.0, clamp(42, 0, 100))
}

func TestInvestorEvaluator(t *testing.T) {
	meta, _ := LookupCategory(domain.VisaD8)
	ev, err := NewInvestorEvaluator(meta)
	require.NoError(t, err)

	t.Run("well capitalised", func(t *testing.T) {
		out, err := ev.Evaluate(ApplicantData{
			"investmentAmount":        400_000_000,
			"businessRegistered":      true,
			"hasBusinessPlan":         true,
			"koreanEmployees":         5,
			"businessExperienceYears": 5,
		}, EvaluateOptions{})
		require.NoError(t, err)
		assert.InDelta(t, 100.0, out.TotalScore, 0.01)
		assert.Equal(t, domain.ProbabilityHigh, out.Status)
	})

	t.Run("below minimum", func(t *testing.T) {
		out, err := ev.Evaluate(ApplicantData{
			"investmentAmount":   "50000000",
			"businessRegistered": false,
		}, EvaluateOptions{})
		require.NoError(t, err)
		assert.Contains(t, out.Weaknesses, "Investment below the KRW 100,000,000 minimum")
		assert.Less(t, out.TotalScore, 40.0)
	})

	t.Run("missing investment", func(t *testing.T) {
		_, err := ev.Evaluate(ApplicantData{"businessRegistered": true}, EvaluateOptions{})
		incomplete, ok := apperrors.IsIncompleteApplicantDataError(err)
		require.True(t, ok)
		assert.Equal(t, []string{"investmentAmount"}, incomplete.MissingFields)
	})
}

func TestSpecializedConstructors_RejectWrongCategory(t *testing.T) {
	meta, _ := LookupCategory(domain.VisaF5)

	_, err := NewProfessorEvaluator(meta)
	assert.Error(t, err)
	_, err = NewInvestorEvaluator(meta)
	assert.Error(t, err)
}

func TestGenericEvaluator_NeutralWhenOnlyIdentityGiven(t *testing.T) {
	meta, _ := LookupCategory(domain.VisaC3)
	ev := NewGenericEvaluator(meta)

	out, err := ev.Evaluate(ApplicantData{"fullName": "Ana Souza", "nationality": "BR"}, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, "generic:C-3", ev.Name())
	assert.InDelta(t, 50.0, out.TotalScore, 0.01)
	assert.Equal(t, domain.ProbabilityLow, out.Status)
}

func TestGenericEvaluator_ThresholdsScaleWithComplexity(t *testing.T) {
	data := ApplicantData{"fullName": "A", "nationality": "VN", "experienceYears": 3, "annualIncome": 30_000_000}

	low, _ := LookupCategory(domain.VisaH2)
	high, _ := LookupCategory(domain.VisaF5)

	lowOut, err := NewGenericEvaluator(low).Evaluate(data, EvaluateOptions{})
	require.NoError(t, err)
	highOut, err := NewGenericEvaluator(high).Evaluate(data, EvaluateOptions{})
	require.NoError(t, err)

	assert.Equal(t, 100.0, lowOut.CategoryScores["experience"])
	assert.Equal(t, 60.0, highOut.CategoryScores["experience"])
	assert.Greater(t, lowOut.TotalScore, highOut.TotalScore)
}

func TestScorecards_WeightsSumToOne(t *testing.T) {
	for _, category := range domain.SupportedCategories() {
		meta, ok := LookupCategory(category)
		require.True(t, ok, category)

		var card scorecard
		switch category {
		case domain.VisaE1:
			ev, err := NewProfessorEvaluator(meta)
			require.NoError(t, err)
			card = ev.(*ProfessorEvaluator).card
		case domain.VisaD8:
			ev, err := NewInvestorEvaluator(meta)
			require.NoError(t, err)
			card = ev.(*InvestorEvaluator).card
		default:
			card = NewGenericEvaluator(meta).card
		}

		sum := 0.0
		for _, c := range card.criteria {
			sum += c.weight
		}
		assert.InDelta(t, 1.0, sum, 1e-9, category)
	}
}

func TestApplicantData_Accessors(t *testing.T) {
	var data ApplicantData
	require.NoError(t, json.NewDecoder(strings.NewReader(`{"years":"7","n":3,"flag":"true","name":" Lee ","blank":""}`)).Decode(&data))

	years, ok := data.Number("years")
	assert.True(t, ok)
	assert.Equal(t, 7.0, years)

	n, ok := data.Number("n")
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	flag, ok := data.Bool("flag")
	assert.True(t, ok)
	assert.True(t, flag)

	name, ok := data.String("name")
	assert.True(t, ok)
	assert.Equal(t, "Lee", name)

	assert.False(t, data.Has("blank"))
	assert.False(t, data.Has("absent"))
	_, ok = data.Number("name")
	assert.False(t, ok)
}

func TestCatalog_CoversEverySupportedCategory(t *testing.T) {
	for _, category := range domain.SupportedCategories() {
		meta, ok := LookupCategory(category)
		assert.True(t, ok, category)
		assert.Equal(t, category, meta.Category)
		assert.NotEmpty(t, meta.Name)
	}
	assert.Equal(t, 14, ComplexityLow.ProcessingDays())
	assert.Equal(t, 60, ComplexityHigh.ProcessingDays())
}
