package dto

import "github.com/shopspring/decimal"

type ServiceOptionsRequest struct {
	IncludeLegalMatching  bool `json:"includeLegalMatching"`
	IncludeDocumentReview bool `json:"includeDocumentReview"`
	UrgentProcessing      bool `json:"urgentProcessing"`
	ConsultationIncluded  bool `json:"consultationIncluded"`
}

type StartEvaluationRequest struct {
	UserID          string                `json:"userId" validate:"required,max=64"`
	VisaCategory    string                `json:"visaCategory" validate:"required,max=16"`
	ApplicationKind string                `json:"applicationKind" validate:"omitempty,oneof=NEW EXTENSION CHANGE new extension change"`
	DetailedReport  bool                  `json:"detailedReport"`
	ApplicantData   map[string]any        `json:"applicantData" validate:"required"`
	ServiceOptions  ServiceOptionsRequest `json:"serviceOptions"`
}

type MatchRepresentativeRequest struct {
	Languages                 []string         `json:"languages" validate:"max=10,dive,min=2,max=8"`
	Location                  string           `json:"location" validate:"max=64"`
	MaxBudget                 *decimal.Decimal `json:"maxBudget,omitempty"`
	MinRating                 float64          `json:"minRating" validate:"gte=0,lte=5"`
	MinExperienceYears        int              `json:"minExperienceYears" validate:"gte=0,lte=60"`
	PreferredRepresentativeID string           `json:"preferredRepresentativeId" validate:"max=64"`
}

type ProcessPaymentRequest struct {
	Method      string         `json:"method" validate:"required,max=32"`
	PaymentData map[string]any `json:"paymentData"`
}

type DocumentRequest struct {
	Type        string `json:"type" validate:"required,max=64"`
	FileName    string `json:"fileName" validate:"max=255"`
	ContentType string `json:"contentType" validate:"max=128"`
	SizeBytes   int64  `json:"sizeBytes" validate:"gte=0"`
	Translated  bool   `json:"translated"`
	Apostilled  bool   `json:"apostilled"`
}

type SubmitDocumentsRequest struct {
	Documents []DocumentRequest `json:"documents" validate:"required,min=1,max=50,dive"`
}

type CancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type ReevaluateRequest struct {
	ApplicantData  map[string]any `json:"applicantData" validate:"required"`
	DetailedReport bool           `json:"detailedReport"`
}

type MatchFeedbackRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}
