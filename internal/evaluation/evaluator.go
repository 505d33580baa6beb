package evaluation

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"visaflow/internal/domain"
)

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeDetailed Mode = "detailed"
)

type EvaluateOptions struct {
	Kind domain.ApplicationKind
	Mode Mode
}

// Outcome is the result of scoring one applicant. CategoryScores are
// percentages of each criterion's maximum.
type Outcome struct {
	TotalScore      float64
	CategoryScores  map[string]float64
	Status          domain.ProbabilityLabel
	Strengths       []string
	Weaknesses      []string
	Recommendations []string
}

// Evaluator scores applicant data for one visa category. Implementations are
// pure: no I/O, no state changes between calls.
type Evaluator interface {
	Name() string
	Category() domain.VisaCategory
	Evaluate(data ApplicantData, opts EvaluateOptions) (*Outcome, error)
}

// ApplicantData is the free-form applicant submission, as decoded from JSON.
type ApplicantData map[string]any

// Has reports whether key is present with a non-empty value.
func (d ApplicantData) Has(key string) bool {
	v, ok := d[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString {
		return strings.TrimSpace(s) != ""
	}
	return true
}

func (d ApplicantData) String(key string) (string, bool) {
	v, ok := d[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		s = strings.TrimSpace(s)
		return s, s != ""
	case json.Number:
		return s.String(), true
	}
	return "", false
}

// Number reads a finite number. NaN and infinities count as absent.
func (d ApplicantData) Number(key string) (float64, bool) {
	v, ok := d[key]
	if !ok || v == nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (d ApplicantData) Bool(key string) (bool, bool) {
	v, ok := d[key]
	if !ok || v == nil {
		return false, false
	}
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return parsed, err == nil
	}
	return false, false
}
