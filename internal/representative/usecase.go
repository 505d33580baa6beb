package representative

import (
	"context"

	"visaflow/internal/domain"
)

type searchUseCase struct {
	service Service
}

func NewSearchUseCase(service Service) SearchUseCase {
	return &searchUseCase{service: service}
}

func (uc *searchUseCase) SearchRepresentatives(ctx context.Context, req SearchRepresentativesRequest) (*SearchRepresentativesResponse, error) {
	var category domain.VisaCategory
	if req.VisaCategory != "" {
		c, err := domain.ParseVisaCategory(req.VisaCategory)
		if err != nil {
			return nil, err
		}
		category = c
	}

	found, notFoundIDs, err := uc.service.GetRepresentatives(ctx, req.RepresentativeIDs, category)
	if err != nil {
		return nil, err
	}

	reps := make([]RepresentativeDTO, 0, len(found))
	for _, r := range found {
		slots := r.Capacity - r.ActiveCases
		if slots < 0 {
			slots = 0
		}
		reps = append(reps, RepresentativeDTO{
			ID:              r.ID,
			Name:            r.Name,
			LicenseID:       r.LicenseID,
			Specializations: r.Specializations,
			Rating:          r.Rating,
			ExperienceYears: r.ExperienceYears,
			Languages:       r.Languages,
			Location:        r.Location,
			RemoteAvailable: r.RemoteAvailable,
			Contact:         r.Contact,
			Capacity:        r.Capacity,
			ActiveCases:     r.ActiveCases,
			AvailableSlots:  slots,
			Accepting:       slots > 0,
		})
	}

	if notFoundIDs == nil {
		notFoundIDs = []string{}
	}

	return &SearchRepresentativesResponse{
		Representatives: reps,
		NotFound:        notFoundIDs,
	}, nil
}
