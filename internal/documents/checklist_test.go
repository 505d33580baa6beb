package documents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"visaflow/internal/domain"
)

func docsFor(types ...string) []domain.Document {
	out := make([]domain.Document, 0, len(types))
	for _, t := range types {
		out = append(out, domain.Document{Type: t, FileName: t + ".pdf", SizeBytes: 1024, Apostilled: true, Translated: true})
	}
	return out
}

func TestRequiredDocuments(t *testing.T) {
	assert.Equal(t,
		[]string{Passport, Photo, ApplicationForm, DegreeCertificate, EmploymentContract, CareerCertificate},
		RequiredDocuments(domain.VisaE1))
	assert.Equal(t,
		[]string{Passport, Photo, ApplicationForm, FinancialStatement},
		RequiredDocuments(domain.VisaC3))
}

func TestChecklistValidator_CompleteSet(t *testing.T) {
	v := NewChecklistValidator(0)

	res, err := v.Validate(context.Background(), domain.VisaE1, docsFor(RequiredDocuments(domain.VisaE1)...))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Missing)
	assert.Empty(t, res.Recommendations)
}

func TestChecklistValidator_MissingItem(t *testing.T) {
	v := NewChecklistValidator(0)

	res, err := v.Validate(context.Background(), domain.VisaE1, docsFor(Passport, Photo, ApplicationForm, DegreeCertificate))
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, []string{EmploymentContract, CareerCertificate}, res.Missing)
	assert.Contains(t, res.Recommendations, "Upload EMPLOYMENT_CONTRACT")
}

func TestChecklistValidator_InvalidFilesCountAsMissing(t *testing.T) {
	v := NewChecklistValidator(1 << 20)
	docs := docsFor(RequiredDocuments(domain.VisaC3)...)
	docs[0].SizeBytes = 5 << 20
	docs[1].FileName = ""

	res, err := v.Validate(context.Background(), domain.VisaC3, docs)
	require.NoError(t, err)

	assert.False(t, res.Success)
	assert.Equal(t, []string{Passport, Photo}, res.Invalid)
	assert.Equal(t, []string{Passport, Photo}, res.Missing)
}

func TestChecklistValidator_ApostilleIsAdvisory(t *testing.T) {
	v := NewChecklistValidator(0)
	docs := docsFor(RequiredDocuments(domain.VisaE2)...)
	for i := range docs {
		if docs[i].Type == CriminalRecord {
			docs[i].Apostilled = false
		}
	}

	res, err := v.Validate(context.Background(), domain.VisaE2, docs)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, []string{"Have CRIMINAL_RECORD apostilled before the interview"}, res.Recommendations)
}

func TestChecklistValidator_TypeIsCaseInsensitive(t *testing.T) {
	v := NewChecklistValidator(0)
	docs := docsFor("passport", "photo", "application_form", "financial_statement")

	res, err := v.Validate(context.Background(), domain.VisaH2, docs)
	require.NoError(t, err)
	assert.True(t, res.Success)
}

func TestChecklistValidator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChecklistValidator(0).Validate(ctx, domain.VisaE1, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
