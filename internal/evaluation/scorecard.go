package evaluation

import (
	"fmt"
	"math"
	"strings"

	"visaflow/internal/domain"
	apperrors "visaflow/internal/errors"
)

// criterion is one weighted dimension of a scorecard. score returns raw
// points in [0, max]; known is false when the applicant did not supply the
// input, in which case the criterion counts at half marks.
type criterion struct {
	key            string
	weight         float64
	max            float64
	score          func(d ApplicantData) (points float64, known bool)
	strength       string
	weakness       string
	recommendation string
}

type scorecard struct {
	category domain.VisaCategory
	required []string
	criteria []criterion
}

const violationPenalty = 5.0

func (s scorecard) evaluate(data ApplicantData, opts EvaluateOptions) (*Outcome, error) {
	var missing []string
	for _, field := range s.required {
		if !data.Has(field) {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewIncompleteApplicantDataError(string(s.category), missing...)
	}

	out := &Outcome{
		CategoryScores:  make(map[string]float64, len(s.criteria)),
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
	}

	total := 0.0
	for _, c := range s.criteria {
		points, known := c.score(data)
		if !known {
			points = c.max / 2
		}
		points = clamp(points, 0, c.max)
		pct := points / c.max * 100
		out.CategoryScores[c.key] = round1(pct)
		total += c.weight * pct

		switch {
		case known && pct >= 80:
			out.Strengths = append(out.Strengths, c.strength)
		case pct < 40:
			out.Weaknesses = append(out.Weaknesses, c.weakness)
			out.Recommendations = append(out.Recommendations, c.recommendation)
		case opts.Mode == ModeDetailed && pct < 80:
			out.Recommendations = append(out.Recommendations, c.recommendation)
		}
	}

	// Renewals are judged on the applicant's compliance record as well.
	if opts.Kind == domain.ApplicationExtension {
		if violations, ok := data.Number("priorViolations"); ok && violations > 0 {
			total -= violations * violationPenalty
			out.Weaknesses = append(out.Weaknesses, fmt.Sprintf("%d prior immigration violation(s) on record", int(violations)))
			out.Recommendations = append(out.Recommendations, "Attach explanations for prior violations to the extension request")
		}
	}

	out.TotalScore = round1(clamp(total, 0, 100))
	out.Status = domain.ProbabilityForScore(out.TotalScore)
	return out, nil
}

// clamp maps NaN to lo.
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// educationPoints maps a degree level onto points out of max, with the
// doctorate earning full marks.
func educationPoints(d ApplicantData, levels map[string]float64) (float64, bool) {
	raw, ok := d.String("education")
	if !ok {
		return 0, false
	}
	if p, found := levels[normalizeLevel(raw)]; found {
		return p, true
	}
	return 0, true
}

func normalizeLevel(raw string) string {
	level := strings.ToUpper(strings.NewReplacer(".", "", "'", "", " ", "_", "-", "_").Replace(strings.TrimSpace(raw)))
	switch level {
	case "PHD", "DOCTORATE", "DOCTOR", "DOCTORAL":
		return levelDoctorate
	case "MASTER", "MASTERS", "MA", "MS", "MSC", "MBA":
		return levelMaster
	case "BACHELOR", "BACHELORS", "BA", "BS", "BSC":
		return levelBachelor
	case "HIGH_SCHOOL", "HIGHSCHOOL", "SECONDARY":
		return levelHighSchool
	}
	return level
}

const (
	levelDoctorate  = "DOCTORATE"
	levelMaster     = "MASTER"
	levelBachelor   = "BACHELOR"
	levelHighSchool = "HIGH_SCHOOL"
)
