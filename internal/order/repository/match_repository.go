package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"visaflow/internal/domain"
	"visaflow/internal/errors"
)

const matchColumns = `id, orderId, userId, visaCategory, representative, matchingScore,
	scoreBreakdown, fee, serviceScope, status, clientFeedback, version, createdAt, updatedAt`

type MySQLMatchRepository struct {
	db *sql.DB
}

func NewMySQLMatchRepository(db *sql.DB) *MySQLMatchRepository {
	return &MySQLMatchRepository{db: db}
}

type matchDocuments struct {
	representative, breakdown, fee, scope, feedback []byte
}

func encodeMatchDocuments(m *domain.Match) (matchDocuments, error) {
	var (
		docs matchDocuments
		err  error
	)
	if docs.representative, err = json.Marshal(m.Representative); err != nil {
		return docs, fmt.Errorf("encoding representative: %w", err)
	}
	if docs.breakdown, err = json.Marshal(m.ScoreBreakdown); err != nil {
		return docs, fmt.Errorf("encoding score breakdown: %w", err)
	}
	if docs.fee, err = json.Marshal(m.Fee); err != nil {
		return docs, fmt.Errorf("encoding fee: %w", err)
	}
	if docs.scope, err = json.Marshal(m.ServiceScope); err != nil {
		return docs, fmt.Errorf("encoding service scope: %w", err)
	}
	if m.ClientFeedback != nil {
		if docs.feedback, err = json.Marshal(m.ClientFeedback); err != nil {
			return docs, fmt.Errorf("encoding client feedback: %w", err)
		}
	}
	return docs, nil
}

func (r *MySQLMatchRepository) Create(ctx context.Context, m *domain.Match) error {
	if m.Version == 0 {
		m.Version = 1
	}

	docs, err := encodeMatchDocuments(m)
	if err != nil {
		return err
	}

	query := `INSERT INTO RepresentativeMatches (` + matchColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		m.ID, m.OrderID, m.UserID, string(m.VisaCategory), docs.representative, m.MatchingScore,
		docs.breakdown, docs.fee, docs.scope, string(m.Status), jsonOrNull(docs.feedback), m.Version, m.CreatedAt, m.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return errors.NewConflictError(fmt.Sprintf("match with id %s already exists", m.ID))
	}
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}

	return nil
}

func (r *MySQLMatchRepository) FindByID(ctx context.Context, id string) (*domain.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM RepresentativeMatches WHERE id = ?`

	var (
		m                domain.Match
		category, status string
		docs             matchDocuments
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.OrderID, &m.UserID, &category, &docs.representative, &m.MatchingScore,
		&docs.breakdown, &docs.fee, &docs.scope, &status, &docs.feedback, &m.Version, &m.CreatedAt, &m.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("match with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying match by id: %w", err)
	}

	m.VisaCategory = domain.VisaCategory(category)
	m.Status = domain.MatchStatus(status)
	m.CreatedAt = m.CreatedAt.UTC()
	m.UpdatedAt = m.UpdatedAt.UTC()

	if err := json.Unmarshal(docs.representative, &m.Representative); err != nil {
		return nil, fmt.Errorf("decoding representative: %w", err)
	}
	if err := json.Unmarshal(docs.breakdown, &m.ScoreBreakdown); err != nil {
		return nil, fmt.Errorf("decoding score breakdown: %w", err)
	}
	if err := json.Unmarshal(docs.fee, &m.Fee); err != nil {
		return nil, fmt.Errorf("decoding fee: %w", err)
	}
	if err := json.Unmarshal(docs.scope, &m.ServiceScope); err != nil {
		return nil, fmt.Errorf("decoding service scope: %w", err)
	}
	if len(docs.feedback) > 0 {
		var fb domain.ClientFeedback
		if err := json.Unmarshal(docs.feedback, &fb); err != nil {
			return nil, fmt.Errorf("decoding client feedback: %w", err)
		}
		m.ClientFeedback = &fb
	}

	return &m, nil
}

// Save persists status and feedback with the same version check as orders.
func (r *MySQLMatchRepository) Save(ctx context.Context, m *domain.Match) error {
	docs, err := encodeMatchDocuments(m)
	if err != nil {
		return err
	}

	query := `
		UPDATE RepresentativeMatches
		SET status = ?, clientFeedback = ?, version = ?, updatedAt = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(m.Status), jsonOrNull(docs.feedback), m.Version+1, m.UpdatedAt,
		m.ID, m.Version,
	)
	if err != nil {
		return fmt.Errorf("updating match: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return lookupMissOrConflict(ctx, r.db, "RepresentativeMatches", "match", m.ID, m.Version)
	}

	m.Version++
	return nil
}
