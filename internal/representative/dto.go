package representative

import "visaflow/internal/domain"

type SearchRepresentativesRequest struct {
	VisaCategory      string   `json:"visaCategory"`
	RepresentativeIDs []string `json:"representativeIds"`
}

type SearchRepresentativesResponse struct {
	Representatives []RepresentativeDTO `json:"representatives"`
	NotFound        []string            `json:"notFound"`
}

type RepresentativeDTO struct {
	ID              string                `json:"id"`
	Name            string                `json:"name"`
	LicenseID       string                `json:"licenseId"`
	Specializations []domain.VisaCategory `json:"specializations"`
	Rating          float64               `json:"rating"`
	ExperienceYears int                   `json:"experienceYears"`
	Languages       []string              `json:"languages"`
	Location        string                `json:"location"`
	RemoteAvailable bool                  `json:"remoteAvailable"`
	Contact         domain.Contact        `json:"contact"`
	Capacity        int                   `json:"capacity"`
	ActiveCases     int                   `json:"activeCases"`
	AvailableSlots  int                   `json:"availableSlots"`
	Accepting       bool                  `json:"accepting"`
}
