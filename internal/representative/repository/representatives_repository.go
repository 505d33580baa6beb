package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"visaflow/internal/domain"
)

const representativeColumns = `id, name, licenseId, specializations, rating, experienceYears, languages,
	location, remoteAvailable, email, phone, capacity, activeCases`

// MySQLRepository is the representative directory backed by the
// Representatives table. It serves both lookups and the matching engine.
type MySQLRepository struct {
	db *sql.DB
}

func NewMySQLRepository(db *sql.DB) *MySQLRepository {
	return &MySQLRepository{db: db}
}

func (r *MySQLRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Representative, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, 0, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM Representatives
		WHERE id IN (%s)
		  AND isActive = 1
		ORDER BY id`,
		representativeColumns,
		strings.Join(placeholders, ", "),
	)

	return r.query(ctx, query, args...)
}

// Active returns representatives with spare capacity.
func (r *MySQLRepository) Active(ctx context.Context) ([]domain.Representative, error) {
	query := `
		SELECT ` + representativeColumns + `
		FROM Representatives
		WHERE isActive = 1
		  AND activeCases < capacity
		ORDER BY id`

	return r.query(ctx, query)
}

// Assign takes one slot of the representative's capacity. It reports false
// when the representative is unknown, inactive or already full.
func (r *MySQLRepository) Assign(ctx context.Context, representativeID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE Representatives
		SET activeCases = activeCases + 1
		WHERE id = ? AND isActive = 1 AND activeCases < capacity`,
		representativeID,
	)
	if err != nil {
		return false, fmt.Errorf("assigning case to representative %s: %w", representativeID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assigning case to representative %s: %w", representativeID, err)
	}
	return n == 1, nil
}

// Release gives back a slot taken by Assign.
func (r *MySQLRepository) Release(ctx context.Context, representativeID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE Representatives
		SET activeCases = activeCases - 1
		WHERE id = ? AND activeCases > 0`,
		representativeID,
	)
	if err != nil {
		return fmt.Errorf("releasing case of representative %s: %w", representativeID, err)
	}
	return nil
}

func (r *MySQLRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Representative, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying representatives: %w", err)
	}
	defer rows.Close()

	var reps []domain.Representative
	for rows.Next() {
		var (
			rep                        domain.Representative
			specializations, languages []byte
		)
		err := rows.Scan(
			&rep.ID, &rep.Name, &rep.LicenseID, &specializations, &rep.Rating, &rep.ExperienceYears, &languages,
			&rep.Location, &rep.RemoteAvailable, &rep.Contact.Email, &rep.Contact.Phone,
			&rep.Capacity, &rep.ActiveCases,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning representative row: %w", err)
		}
		if err := json.Unmarshal(specializations, &rep.Specializations); err != nil {
			return nil, fmt.Errorf("decoding specializations of %s: %w", rep.ID, err)
		}
		if err := json.Unmarshal(languages, &rep.Languages); err != nil {
			return nil, fmt.Errorf("decoding languages of %s: %w", rep.ID, err)
		}
		reps = append(reps, rep)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating representative rows: %w", err)
	}

	return reps, nil
}
