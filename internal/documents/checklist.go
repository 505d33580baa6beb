package documents

import (
	"context"
	"fmt"
	"strings"

	"visaflow/internal/domain"
)

// Document types.
const (
	Passport                  = "PASSPORT"
	Photo                     = "PHOTO"
	ApplicationForm           = "APPLICATION_FORM"
	DegreeCertificate         = "DEGREE_CERTIFICATE"
	EmploymentContract        = "EMPLOYMENT_CONTRACT"
	CareerCertificate         = "CAREER_CERTIFICATE"
	InvestmentCertificate     = "INVESTMENT_CERTIFICATE"
	BusinessRegistration      = "BUSINESS_REGISTRATION"
	RemittanceProof           = "REMITTANCE_PROOF"
	AdmissionLetter           = "ADMISSION_LETTER"
	FinancialStatement        = "FINANCIAL_STATEMENT"
	CriminalRecord            = "CRIMINAL_RECORD"
	HealthCertificate         = "HEALTH_CERTIFICATE"
	ResidenceProof            = "RESIDENCE_PROOF"
	KIIPCertificate           = "KIIP_CERTIFICATE"
	MarriageCertificate       = "MARRIAGE_CERTIFICATE"
	FamilyRelationCertificate = "FAMILY_RELATION_CERTIFICATE"
)

const DefaultMaxFileBytes = 10 << 20

var baseChecklist = []string{Passport, Photo, ApplicationForm}

var categoryChecklist = map[domain.VisaCategory][]string{
	domain.VisaD2: {AdmissionLetter, FinancialStatement, DegreeCertificate},
	domain.VisaD8: {InvestmentCertificate, BusinessRegistration, RemittanceProof},
	domain.VisaE1: {DegreeCertificate, EmploymentContract, CareerCertificate},
	domain.VisaE2: {DegreeCertificate, CriminalRecord, EmploymentContract},
	domain.VisaE7: {DegreeCertificate, EmploymentContract, CareerCertificate},
	domain.VisaE9: {EmploymentContract, HealthCertificate},
	domain.VisaF2: {ResidenceProof, FinancialStatement},
	domain.VisaF5: {ResidenceProof, FinancialStatement, CriminalRecord, KIIPCertificate},
	domain.VisaF6: {MarriageCertificate, FamilyRelationCertificate, FinancialStatement},
}

// Foreign-issued documents that immigration only accepts apostilled.
var needsApostille = map[string]bool{
	DegreeCertificate:   true,
	CriminalRecord:      true,
	MarriageCertificate: true,
}

// RequiredDocuments lists the documents an application must include.
func RequiredDocuments(category domain.VisaCategory) []string {
	extra, ok := categoryChecklist[category]
	if !ok {
		extra = []string{FinancialStatement}
	}
	out := make([]string, 0, len(baseChecklist)+len(extra))
	out = append(out, baseChecklist...)
	return append(out, extra...)
}

type ValidationResult struct {
	Success         bool     `json:"success"`
	Missing         []string `json:"missing"`
	Invalid         []string `json:"invalid"`
	Recommendations []string `json:"recommendations"`
}

// ChecklistValidator checks a submission against the per-category checklist.
// Missing or unusable documents are a result, never an error.
type ChecklistValidator struct {
	maxFileBytes int64
}

func NewChecklistValidator(maxFileBytes int64) *ChecklistValidator {
	if maxFileBytes <= 0 {
		maxFileBytes = DefaultMaxFileBytes
	}
	return &ChecklistValidator{maxFileBytes: maxFileBytes}
}

func (v *ChecklistValidator) Validate(ctx context.Context, category domain.VisaCategory, docs []domain.Document) (*ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &ValidationResult{Missing: []string{}, Invalid: []string{}, Recommendations: []string{}}
	provided := make(map[string]domain.Document, len(docs))
	for _, d := range docs {
		docType := strings.ToUpper(strings.TrimSpace(d.Type))
		switch {
		case strings.TrimSpace(d.FileName) == "":
			res.Invalid = append(res.Invalid, docType)
			res.Recommendations = append(res.Recommendations, fmt.Sprintf("Re-upload %s: file name is empty", docType))
			continue
		case d.SizeBytes > v.maxFileBytes:
			res.Invalid = append(res.Invalid, docType)
			res.Recommendations = append(res.Recommendations, fmt.Sprintf("Compress %s below %d MB", docType, v.maxFileBytes>>20))
			continue
		}
		provided[docType] = d
	}

	for _, required := range RequiredDocuments(category) {
		d, ok := provided[required]
		if !ok {
			res.Missing = append(res.Missing, required)
			res.Recommendations = append(res.Recommendations, fmt.Sprintf("Upload %s", required))
			continue
		}
		if needsApostille[required] && !d.Apostilled {
			res.Recommendations = append(res.Recommendations, fmt.Sprintf("Have %s apostilled before the interview", required))
		}
		if needsApostille[required] && !d.Translated {
			res.Recommendations = append(res.Recommendations, fmt.Sprintf("Attach a certified Korean translation of %s", required))
		}
	}

	res.Success = len(res.Missing) == 0
	return res, nil
}
