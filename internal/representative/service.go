package representative

import (
	"context"

	"visaflow/internal/domain"
)

type representativeService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &representativeService{repo: repo}
}

// GetRepresentatives looks up ids and, when category is set, keeps only the
// representatives specialized in it. Filtered-out ids count as not found.
func (s *representativeService) GetRepresentatives(ctx context.Context, ids []string, category domain.VisaCategory) ([]domain.Representative, []string, error) {
	reps, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	found := make([]domain.Representative, 0, len(reps))
	foundSet := make(map[string]struct{}, len(reps))
	for _, r := range reps {
		if category != "" && !r.Specializes(category) {
			continue
		}
		found = append(found, r)
		foundSet[r.ID] = struct{}{}
	}

	var notFoundIDs []string
	for _, id := range ids {
		if _, ok := foundSet[id]; !ok {
			notFoundIDs = append(notFoundIDs, id)
		}
	}

	return found, notFoundIDs, nil
}
