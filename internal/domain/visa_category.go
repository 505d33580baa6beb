package domain

import (
	"strings"
	"unicode"

	apperrors "visaflow/internal/errors"
)

type VisaCategory string

const (
	VisaC3  VisaCategory = "C-3"
	VisaD2  VisaCategory = "D-2"
	VisaD4  VisaCategory = "D-4"
	VisaD8  VisaCategory = "D-8"
	VisaD10 VisaCategory = "D-10"
	VisaE1  VisaCategory = "E-1"
	VisaE2  VisaCategory = "E-2"
	VisaE7  VisaCategory = "E-7"
	VisaE9  VisaCategory = "E-9"
	VisaF2  VisaCategory = "F-2"
	VisaF4  VisaCategory = "F-4"
	VisaF5  VisaCategory = "F-5"
	VisaF6  VisaCategory = "F-6"
	VisaH2  VisaCategory = "H-2"
)

var supportedCategories = []VisaCategory{
	VisaC3, VisaD2, VisaD4, VisaD8, VisaD10,
	VisaE1, VisaE2, VisaE7, VisaE9,
	VisaF2, VisaF4, VisaF5, VisaF6, VisaH2,
}

// SupportedCategories returns the closed catalog in a stable order.
func SupportedCategories() []VisaCategory {
	out := make([]VisaCategory, len(supportedCategories))
	copy(out, supportedCategories)
	return out
}

func (c VisaCategory) String() string {
	return string(c)
}

// Family is the letter prefix shared by related categories ("E" for E-1..E-9).
func (c VisaCategory) Family() string {
	s := string(c)
	if i := strings.IndexByte(s, '-'); i > 0 {
		return s[:i]
	}
	return s
}

func (c VisaCategory) IsSupported() bool {
	for _, sc := range supportedCategories {
		if sc == c {
			return true
		}
	}
	return false
}

// NormalizeVisaCategory case-folds the code and inserts the separator, so
// "e1", "E_1" and " e-1 " all become "E-1". It does not check membership.
func NormalizeVisaCategory(code string) string {
	var letters, digits strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(code)) {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '.':
			continue
		case unicode.IsDigit(r):
			digits.WriteRune(r)
		default:
			if digits.Len() > 0 {
				// letters after digits: not a category shape, keep it verbatim
				return strings.ToUpper(strings.TrimSpace(code))
			}
			letters.WriteRune(r)
		}
	}
	if letters.Len() == 0 || digits.Len() == 0 {
		return strings.ToUpper(strings.TrimSpace(code))
	}
	return letters.String() + "-" + digits.String()
}

func ParseVisaCategory(code string) (VisaCategory, error) {
	c := VisaCategory(NormalizeVisaCategory(code))
	if !c.IsSupported() {
		return "", apperrors.NewUnsupportedCategoryError(code)
	}
	return c, nil
}

type ApplicationKind string

const (
	ApplicationNew       ApplicationKind = "NEW"
	ApplicationExtension ApplicationKind = "EXTENSION"
	ApplicationChange    ApplicationKind = "CHANGE"
)

func ParseApplicationKind(s string) (ApplicationKind, bool) {
	switch ApplicationKind(strings.ToUpper(strings.TrimSpace(s))) {
	case ApplicationNew, "":
		return ApplicationNew, true
	case ApplicationExtension:
		return ApplicationExtension, true
	case ApplicationChange:
		return ApplicationChange, true
	}
	return "", false
}
