package evaluation

import "visaflow/internal/domain"

type ComplexityTier string

const (
	ComplexityLow    ComplexityTier = "LOW"
	ComplexityMedium ComplexityTier = "MEDIUM"
	ComplexityHigh   ComplexityTier = "HIGH"
)

// ProcessingDays is the typical government processing time for the tier.
func (t ComplexityTier) ProcessingDays() int {
	switch t {
	case ComplexityLow:
		return 14
	case ComplexityHigh:
		return 60
	default:
		return 30
	}
}

type CategoryMeta struct {
	Category    domain.VisaCategory
	Name        string
	Specialized bool
	Complexity  ComplexityTier
}

var catalog = map[domain.VisaCategory]CategoryMeta{
	domain.VisaC3:  {Category: domain.VisaC3, Name: "Short-term Visit", Complexity: ComplexityLow},
	domain.VisaD2:  {Category: domain.VisaD2, Name: "Student", Complexity: ComplexityMedium},
	domain.VisaD4:  {Category: domain.VisaD4, Name: "General Trainee", Complexity: ComplexityLow},
	domain.VisaD8:  {Category: domain.VisaD8, Name: "Corporate Investment", Specialized: true, Complexity: ComplexityHigh},
	domain.VisaD10: {Category: domain.VisaD10, Name: "Job Seeking", Complexity: ComplexityMedium},
	domain.VisaE1:  {Category: domain.VisaE1, Name: "Professor", Specialized: true, Complexity: ComplexityMedium},
	domain.VisaE2:  {Category: domain.VisaE2, Name: "Foreign Language Instructor", Complexity: ComplexityMedium},
	domain.VisaE7:  {Category: domain.VisaE7, Name: "Specially Designated Activities", Complexity: ComplexityHigh},
	domain.VisaE9:  {Category: domain.VisaE9, Name: "Non-professional Employment", Complexity: ComplexityMedium},
	domain.VisaF2:  {Category: domain.VisaF2, Name: "Residence", Complexity: ComplexityHigh},
	domain.VisaF4:  {Category: domain.VisaF4, Name: "Overseas Korean", Complexity: ComplexityLow},
	domain.VisaF5:  {Category: domain.VisaF5, Name: "Permanent Residence", Complexity: ComplexityHigh},
	domain.VisaF6:  {Category: domain.VisaF6, Name: "Marriage Migrant", Complexity: ComplexityMedium},
	domain.VisaH2:  {Category: domain.VisaH2, Name: "Working Visit", Complexity: ComplexityLow},
}

// LookupCategory returns the static metadata for a supported category.
func LookupCategory(c domain.VisaCategory) (CategoryMeta, bool) {
	meta, ok := catalog[c]
	return meta, ok
}
