package evaluation

import (
	"fmt"
	"strings"

	"visaflow/internal/domain"
)

// ProfessorEvaluator scores E-1 applicants: faculty appointed to teach or
// research at a Korean higher-education institution.
type ProfessorEvaluator struct {
	card scorecard
}

var professorEducation = map[string]float64{
	levelDoctorate:  30,
	levelMaster:     20,
	levelBachelor:   10,
	levelHighSchool: 0,
}

var institutionPoints = map[string]float64{
	"UNIVERSITY":         16,
	"COLLEGE":            12,
	"JUNIOR_COLLEGE":     12,
	"RESEARCH_INSTITUTE": 10,
}

func NewProfessorEvaluator(meta CategoryMeta) (Evaluator, error) {
	if meta.Category != domain.VisaE1 {
		return nil, fmt.Errorf("professor evaluator cannot serve %s", meta.Category)
	}
	return &ProfessorEvaluator{card: scorecard{
		category: domain.VisaE1,
		required: []string{"education", "experienceYears", "institutionType"},
		criteria: []criterion{
			{
				key:    "education",
				weight: 0.30,
				max:    30,
				score: func(d ApplicantData) (float64, bool) {
					return educationPoints(d, professorEducation)
				},
				strength:       "Doctoral degree meets the academic appointment standard",
				weakness:       "Academic degree below the level usually required for faculty posts",
				recommendation: "Provide proof of the highest degree and any equivalency recognition",
			},
			{
				key:    "teachingExperience",
				weight: 0.25,
				max:    25,
				score: func(d ApplicantData) (float64, bool) {
					years, ok := d.Number("experienceYears")
					return years * 5, ok
				},
				strength:       "Substantial teaching or research experience",
				weakness:       "Limited teaching or research experience",
				recommendation: "Document prior teaching posts with employer certificates",
			},
			{
				key:    "institution",
				weight: 0.20,
				max:    20,
				score: func(d ApplicantData) (float64, bool) {
					kind, ok := d.String("institutionType")
					if !ok {
						return 0, false
					}
					points, found := institutionPoints[strings.ToUpper(strings.ReplaceAll(kind, " ", "_"))]
					if !found {
						points = 4
					}
					if contract, _ := d.Bool("hasEmploymentContract"); contract {
						points += 4
					}
					return points, true
				},
				strength:       "Appointment at an accredited institution with a signed contract",
				weakness:       "Hosting institution does not clearly qualify for E-1 sponsorship",
				recommendation: "Obtain a signed employment contract from an accredited university",
			},
			{
				key:    "research",
				weight: 0.15,
				max:    15,
				score: func(d ApplicantData) (float64, bool) {
					n, ok := d.Number("publications")
					return n * 3, ok
				},
				strength:       "Strong publication record",
				weakness:       "Few peer-reviewed publications",
				recommendation: "List publications with DOIs or journal references",
			},
			{
				key:    "koreanLanguage",
				weight: 0.10,
				max:    10,
				score: func(d ApplicantData) (float64, bool) {
					level, ok := d.Number("topikLevel")
					return level * 2, ok
				},
				strength:       "Advanced Korean proficiency",
				weakness:       "Little or no Korean proficiency",
				recommendation: "Consider sitting the TOPIK exam before the interview",
			},
		},
	}}, nil
}

func (e *ProfessorEvaluator) Name() string                  { return "professor" }
func (e *ProfessorEvaluator) Category() domain.VisaCategory { return domain.VisaE1 }

func (e *ProfessorEvaluator) Evaluate(data ApplicantData, opts EvaluateOptions) (*Outcome, error) {
	return e.card.evaluate(data, opts)
}
