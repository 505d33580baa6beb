package domain

import (
	"time"

	"github.com/shopspring/decimal"

	apperrors "visaflow/internal/errors"
)

type MatchStatus string

const (
	MatchStatusProposed   MatchStatus = "PROPOSED"
	MatchStatusAccepted   MatchStatus = "ACCEPTED"
	MatchStatusContracted MatchStatus = "CONTRACTED"
	MatchStatusInProgress MatchStatus = "IN_PROGRESS"
	MatchStatusCompleted  MatchStatus = "COMPLETED"
	MatchStatusRejected   MatchStatus = "REJECTED"
	MatchStatusCancelled  MatchStatus = "CANCELLED"
)

var matchTransitions = map[MatchStatus][]MatchStatus{
	MatchStatusProposed:   {MatchStatusAccepted, MatchStatusRejected, MatchStatusCancelled},
	MatchStatusAccepted:   {MatchStatusContracted, MatchStatusRejected, MatchStatusCancelled},
	MatchStatusContracted: {MatchStatusInProgress},
	MatchStatusInProgress: {MatchStatusCompleted},
}

func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	for _, allowed := range matchTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type Contact struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Representative is a licensed agent available for matching.
type Representative struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	LicenseID       string         `json:"licenseId"`
	Specializations []VisaCategory `json:"specializations"`
	Rating          float64        `json:"rating"`
	ExperienceYears int            `json:"experienceYears"`
	Languages       []string       `json:"languages"`
	Location        string         `json:"location"`
	RemoteAvailable bool           `json:"remoteAvailable"`
	Contact         Contact        `json:"contact"`
	Capacity        int            `json:"capacity"`
	ActiveCases     int            `json:"activeCases"`
}

func (r Representative) Specializes(category VisaCategory) bool {
	for _, s := range r.Specializations {
		if s == category {
			return true
		}
	}
	return false
}

// RepresentativeProfile is the copy taken at match time; later changes to the
// representative do not reach existing matches.
type RepresentativeProfile struct {
	RepresentativeID string         `json:"representativeId"`
	Name             string         `json:"name"`
	LicenseID        string         `json:"licenseId"`
	Specializations  []VisaCategory `json:"specializations"`
	Rating           float64        `json:"rating"`
	ExperienceYears  int            `json:"experienceYears"`
	Languages        []string       `json:"languages"`
	Location         string         `json:"location"`
	Contact          Contact        `json:"contact"`
}

func (r Representative) Snapshot() RepresentativeProfile {
	specs := make([]VisaCategory, len(r.Specializations))
	copy(specs, r.Specializations)
	langs := make([]string, len(r.Languages))
	copy(langs, r.Languages)
	return RepresentativeProfile{
		RepresentativeID: r.ID,
		Name:             r.Name,
		LicenseID:        r.LicenseID,
		Specializations:  specs,
		Rating:           r.Rating,
		ExperienceYears:  r.ExperienceYears,
		Languages:        langs,
		Location:         r.Location,
		Contact:          r.Contact,
	}
}

type ScoreBreakdown struct {
	CategoryExpertise     float64 `json:"categoryExpertise"`
	LocationProximity     float64 `json:"locationProximity"`
	LanguageCompatibility float64 `json:"languageCompatibility"`
	PriceFit              float64 `json:"priceFit"`
	Availability          float64 `json:"availability"`
	PreferenceFit         float64 `json:"preferenceFit"`
}

type MatchFee struct {
	Consultation decimal.Decimal `json:"consultation"`
	Service      decimal.Decimal `json:"service"`
	Government   decimal.Decimal `json:"government"`
	Total        decimal.Decimal `json:"total"`
}

func NewMatchFee(consultation, service, government decimal.Decimal) MatchFee {
	return MatchFee{
		Consultation: consultation,
		Service:      service,
		Government:   government,
		Total:        consultation.Add(service).Add(government),
	}
}

// LegalFee is the part of the fee charged on the order's legalFee line.
// Consultation is billed on the order's own consultationFee line.
func (f MatchFee) LegalFee() decimal.Decimal {
	return f.Service.Add(f.Government)
}

type ServiceScope struct {
	Representation      bool `json:"representation"`
	DocumentPreparation bool `json:"documentPreparation"`
	Consultation        bool `json:"consultation"`
	UrgentHandling      bool `json:"urgentHandling"`
}

type ClientFeedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Match struct {
	ID             string                `json:"id"`
	OrderID        string                `json:"orderId"`
	UserID         string                `json:"userId"`
	VisaCategory   VisaCategory          `json:"visaCategory"`
	Representative RepresentativeProfile `json:"representative"`
	MatchingScore  float64               `json:"matchingScore"`
	ScoreBreakdown ScoreBreakdown        `json:"scoreBreakdown"`
	Fee            MatchFee              `json:"fee"`
	ServiceScope   ServiceScope          `json:"serviceScope"`
	Status         MatchStatus           `json:"status"`
	ClientFeedback *ClientFeedback       `json:"clientFeedback,omitempty"`
	Version        int64                 `json:"version"`
	CreatedAt      time.Time             `json:"createdAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func (m *Match) TransitionTo(next MatchStatus, now time.Time) error {
	if !m.Status.CanTransitionTo(next) {
		return apperrors.NewInvalidStageTransitionError("move match to "+string(next), string(m.Status), "")
	}
	m.Status = next
	m.UpdatedAt = now
	return nil
}

// RecordFeedback stores the client's feedback once the engagement is COMPLETED.
func (m *Match) RecordFeedback(feedback ClientFeedback, now time.Time) error {
	if m.Status != MatchStatusCompleted {
		return apperrors.NewInvalidStageTransitionError("record feedback", string(m.Status), string(MatchStatusCompleted))
	}
	if m.ClientFeedback != nil {
		return apperrors.NewConflictError("feedback already recorded for match " + m.ID)
	}
	feedback.SubmittedAt = now
	m.ClientFeedback = &feedback
	m.UpdatedAt = now
	return nil
}

func (m *Match) Clone() *Match {
	c := *m
	c.Representative.Specializations = append([]VisaCategory(nil), m.Representative.Specializations...)
	c.Representative.Languages = append([]string(nil), m.Representative.Languages...)
	if m.ClientFeedback != nil {
		fb := *m.ClientFeedback
		c.ClientFeedback = &fb
	}
	return &c
}
