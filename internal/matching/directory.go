package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"visaflow/internal/domain"
	apperrors "visaflow/internal/errors"
)

// Directory lists representatives who can take new cases and keeps their
// case counts. Assign reports false when the representative is unknown or
// already at capacity.
type Directory interface {
	Active(ctx context.Context) ([]domain.Representative, error)
	Assign(ctx context.Context, representativeID string) (bool, error)
	Release(ctx context.Context, representativeID string) error
}

// StaticDirectory is an in-process roster.
type StaticDirectory struct {
	mu   sync.RWMutex
	reps []domain.Representative
}

func NewStaticDirectory(reps []domain.Representative) *StaticDirectory {
	out := make([]domain.Representative, len(reps))
	copy(out, reps)
	return &StaticDirectory{reps: out}
}

// Active returns representatives with spare capacity.
func (d *StaticDirectory) Active(_ context.Context) ([]domain.Representative, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.Representative
	for _, r := range d.reps {
		if r.Capacity > 0 && r.ActiveCases < r.Capacity {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindByIDs returns the listed representatives in id order, full or not.
func (d *StaticDirectory) FindByIDs(_ context.Context, ids []string) ([]domain.Representative, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []domain.Representative
	for _, r := range d.reps {
		if _, ok := want[r.ID]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Assign records one more active case for the representative.
func (d *StaticDirectory) Assign(_ context.Context, representativeID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.reps {
		if d.reps[i].ID == representativeID {
			if d.reps[i].ActiveCases >= d.reps[i].Capacity {
				return false, nil
			}
			d.reps[i].ActiveCases++
			return true, nil
		}
	}
	return false, nil
}

// Release gives back a case slot taken by Assign.
func (d *StaticDirectory) Release(_ context.Context, representativeID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.reps {
		if d.reps[i].ID != representativeID {
			continue
		}
		if d.reps[i].ActiveCases > 0 {
			d.reps[i].ActiveCases--
		}
		return nil
	}
	return apperrors.NewNotFoundError(fmt.Sprintf("representative %s not found", representativeID))
}

// DefaultRoster is the built-in representative roster used when no external
// directory is configured.
func DefaultRoster() []domain.Representative {
	return []domain.Representative{
		{
			ID: "rep-seoul-01", Name: "Kim Jiwoo", LicenseID: "KR-ADM-2011-0412",
			Specializations: []domain.VisaCategory{domain.VisaE1, domain.VisaE2, domain.VisaE7, domain.VisaD2},
			Rating:          4.8, ExperienceYears: 13, Languages: []string{"ko", "en"},
			Location: "Seoul", RemoteAvailable: true,
			Contact:  domain.Contact{Email: "jiwoo.kim@visaflow.kr", Phone: "+82-2-555-0101"},
			Capacity: 12, ActiveCases: 7,
		},
		{
			ID: "rep-seoul-02", Name: "Park Seoyeon", LicenseID: "KR-ADM-2016-1187",
			Specializations: []domain.VisaCategory{domain.VisaD8, domain.VisaF5, domain.VisaF2},
			Rating:          4.6, ExperienceYears: 8, Languages: []string{"ko", "en", "zh"},
			Location: "Seoul", RemoteAvailable: false,
			Contact:  domain.Contact{Email: "seoyeon.park@visaflow.kr", Phone: "+82-2-555-0102"},
			Capacity: 10, ActiveCases: 3,
		},
		{
			ID: "rep-busan-01", Name: "Lee Donghyun", LicenseID: "KR-ADM-2009-0233",
			Specializations: []domain.VisaCategory{domain.VisaE9, domain.VisaH2, domain.VisaF4, domain.VisaC3},
			Rating:          4.4, ExperienceYears: 16, Languages: []string{"ko", "vi", "en"},
			Location: "Busan", RemoteAvailable: true,
			Contact:  domain.Contact{Email: "donghyun.lee@visaflow.kr", Phone: "+82-51-555-0103"},
			Capacity: 15, ActiveCases: 14,
		},
		{
			ID: "rep-incheon-01", Name: "Choi Minseo", LicenseID: "KR-ADM-2019-2045",
			Specializations: []domain.VisaCategory{domain.VisaF6, domain.VisaF2, domain.VisaD10, domain.VisaD4},
			Rating:          4.7, ExperienceYears: 5, Languages: []string{"ko", "en", "ja"},
			Location: "Incheon", RemoteAvailable: true,
			Contact:  domain.Contact{Email: "minseo.choi@visaflow.kr", Phone: "+82-32-555-0104"},
			Capacity: 8, ActiveCases: 2,
		},
		{
			ID: "rep-daejeon-01", Name: "Jung Haeun", LicenseID: "KR-ADM-2014-0871",
			Specializations: []domain.VisaCategory{domain.VisaE1, domain.VisaD2, domain.VisaD10},
			Rating:          4.5, ExperienceYears: 10, Languages: []string{"ko", "en", "es"},
			Location: "Daejeon", RemoteAvailable: true,
			Contact:  domain.Contact{Email: "haeun.jung@visaflow.kr", Phone: "+82-42-555-0105"},
			Capacity: 10, ActiveCases: 4,
		},
	}
}
