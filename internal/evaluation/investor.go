package evaluation

import (
	"fmt"

	"visaflow/internal/domain"
)

// Minimum paid-in foreign investment for D-8 in KRW.
const minimumInvestment = 100_000_000

type InvestorEvaluator struct {
	card scorecard
}

func NewInvestorEvaluator(meta CategoryMeta) (Evaluator, error) {
	if meta.Category != domain.VisaD8 {
		return nil, fmt.Errorf("investor evaluator cannot serve %s", meta.Category)
	}
	return &InvestorEvaluator{card: scorecard{
		category: domain.VisaD8,
		required: []string{"investmentAmount", "businessRegistered"},
		criteria: []criterion{
			{
				key:    "capital",
				weight: 0.35,
				max:    35,
				score: func(d ApplicantData) (float64, bool) {
					amount, ok := d.Number("investmentAmount")
					if !ok {
						return 0, false
					}
					switch {
					case amount >= 3*minimumInvestment:
						return 35, true
					case amount >= minimumInvestment:
						return 25 + (amount-minimumInvestment)/(2*minimumInvestment)*10, true
					default:
						return amount / minimumInvestment * 15, true
					}
				},
				strength:       "Invested capital well above the statutory minimum",
				weakness:       "Investment below the KRW 100,000,000 minimum",
				recommendation: "Increase paid-in capital to at least KRW 100,000,000 and keep remittance records",
			},
			{
				key:    "registration",
				weight: 0.20,
				max:    20,
				score: func(d ApplicantData) (float64, bool) {
					registered, ok := d.Bool("businessRegistered")
					if registered {
						return 20, ok
					}
					return 0, ok
				},
				strength:       "Foreign-invested company already registered",
				weakness:       "Company not yet registered as foreign-invested",
				recommendation: "Complete foreign investment registration with KOTRA before applying",
			},
			{
				key:    "businessPlan",
				weight: 0.20,
				max:    20,
				score: func(d ApplicantData) (float64, bool) {
					plan, ok := d.Bool("hasBusinessPlan")
					if plan {
						return 20, ok
					}
					return 0, ok
				},
				strength:       "Business plan prepared",
				weakness:       "No business plan submitted",
				recommendation: "Prepare a business plan with revenue and hiring projections",
			},
			{
				key:    "localEmployment",
				weight: 0.15,
				max:    15,
				score: func(d ApplicantData) (float64, bool) {
					n, ok := d.Number("koreanEmployees")
					return n * 3, ok
				},
				strength:       "Company employs Korean nationals",
				weakness:       "No local hires planned",
				recommendation: "Plan to hire Korean staff and document it in the business plan",
			},
			{
				key:    "businessExperience",
				weight: 0.10,
				max:    10,
				score: func(d ApplicantData) (float64, bool) {
					years, ok := d.Number("businessExperienceYears")
					return years * 2, ok
				},
				strength:       "Extensive prior business management experience",
				weakness:       "Little prior business management experience",
				recommendation: "Provide evidence of previous company management roles",
			},
		},
	}}, nil
}

func (e *InvestorEvaluator) Name() string                  { return "investor" }
func (e *InvestorEvaluator) Category() domain.VisaCategory { return domain.VisaD8 }

func (e *InvestorEvaluator) Evaluate(data ApplicantData, opts EvaluateOptions) (*Outcome, error) {
	return e.card.evaluate(data, opts)
}
