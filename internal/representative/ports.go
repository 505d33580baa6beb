package representative

import (
	"context"

	"visaflow/internal/domain"
)

type SearchUseCase interface {
	SearchRepresentatives(ctx context.Context, req SearchRepresentativesRequest) (*SearchRepresentativesResponse, error)
}

type Service interface {
	GetRepresentatives(ctx context.Context, ids []string, category domain.VisaCategory) (found []domain.Representative, notFoundIDs []string, err error)
}

type Repository interface {
	FindByIDs(ctx context.Context, ids []string) ([]domain.Representative, error)
}
