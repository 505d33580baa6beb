package evaluation

import (
	"visaflow/internal/domain"
)

var genericEducation = map[string]float64{
	levelDoctorate:  30,
	levelMaster:     25,
	levelBachelor:   20,
	levelHighSchool: 10,
}

// tierThresholds are the experience years and annual income (KRW) that earn
// full marks at each complexity tier.
var tierThresholds = map[ComplexityTier]struct {
	years  float64
	income float64
}{
	ComplexityLow:    {years: 1, income: 20_000_000},
	ComplexityMedium: {years: 3, income: 30_000_000},
	ComplexityHigh:   {years: 5, income: 50_000_000},
}

// GenericEvaluator applies a category-agnostic rubric scaled by the
// category's complexity tier. It backs every category without a specialized
// evaluator and is the fallback when one cannot be built.
type GenericEvaluator struct {
	meta CategoryMeta
	card scorecard
}

func NewGenericEvaluator(meta CategoryMeta) *GenericEvaluator {
	th, ok := tierThresholds[meta.Complexity]
	if !ok {
		th = tierThresholds[ComplexityMedium]
	}
	return &GenericEvaluator{meta: meta, card: scorecard{
		category: meta.Category,
		required: []string{"fullName", "nationality"},
		criteria: []criterion{
			{
				key:    "education",
				weight: 0.30,
				max:    30,
				score: func(d ApplicantData) (float64, bool) {
					return educationPoints(d, genericEducation)
				},
				strength:       "Strong educational background",
				weakness:       "Education level is below typical approvals",
				recommendation: "Provide certified copies of diplomas and transcripts",
			},
			{
				key:    "experience",
				weight: 0.30,
				max:    30,
				score: func(d ApplicantData) (float64, bool) {
					years, ok := d.Number("experienceYears")
					return years / th.years * 30, ok
				},
				strength:       "Relevant work experience",
				weakness:       "Insufficient relevant work experience",
				recommendation: "Attach employment certificates covering relevant experience",
			},
			{
				key:    "financial",
				weight: 0.20,
				max:    20,
				score: func(d ApplicantData) (float64, bool) {
					income, ok := d.Number("annualIncome")
					return income / th.income * 20, ok
				},
				strength:       "Financial standing comfortably meets requirements",
				weakness:       "Financial standing may not meet requirements",
				recommendation: "Provide bank statements or a sponsor's financial guarantee",
			},
			{
				key:    "koreanLanguage",
				weight: 0.20,
				max:    20,
				score: func(d ApplicantData) (float64, bool) {
					level, ok := d.Number("topikLevel")
					return level * 4, ok
				},
				strength:       "Good Korean proficiency",
				weakness:       "Limited Korean proficiency",
				recommendation: "Obtain a TOPIK certificate or enroll in a KIIP course",
			},
		},
	}}
}

func (e *GenericEvaluator) Name() string                  { return "generic:" + string(e.meta.Category) }
func (e *GenericEvaluator) Category() domain.VisaCategory { return e.meta.Category }

func (e *GenericEvaluator) Evaluate(data ApplicantData, opts EvaluateOptions) (*Outcome, error) {
	return e.card.evaluate(data, opts)
}
