package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"visaflow/internal/domain"
	"visaflow/internal/errors"
)

const mysqlDuplicateEntry = 1062

const orderColumns = `id, userId, visaCategory, applicationKind, status, evaluationResult,
	matchId, paymentId, documentSubmissionId, serviceOptions,
	basePrice, legalFee, urgentFee, consultationFee, totalAmount, currency,
	timeline, cancellationReason, cancelledAt, failureReason, version, createdAt, updatedAt`

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

func (r *MySQLOrderRepository) Create(ctx context.Context, o *domain.Order) error {
	if o.Version == 0 {
		o.Version = 1
	}

	evaluation, serviceOptions, timeline, err := encodeOrderDocuments(o)
	if err != nil {
		return err
	}

	query := `INSERT INTO VisaOrders (` + orderColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		o.ID, o.UserID, string(o.VisaCategory), string(o.ApplicationKind), string(o.Status), jsonOrNull(evaluation),
		nullString(o.MatchID), nullString(o.PaymentID), nullString(o.DocumentSubmissionID), serviceOptions,
		o.Pricing.BasePrice, o.Pricing.LegalFee, o.Pricing.UrgentFee, o.Pricing.ConsultationFee, o.Pricing.TotalAmount, o.Pricing.Currency,
		timeline, nullText(o.CancellationReason), nullTime(o.CancelledAt), nullText(o.FailureReason), o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return errors.NewConflictError(fmt.Sprintf("order with id %s already exists", o.ID))
	}
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}

	return nil
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM VisaOrders WHERE id = ?`

	var (
		o                                    domain.Order
		category, kind, status               string
		evaluation, serviceOptions, timeline []byte
		matchID, paymentID, submissionID     sql.NullString
		cancellationReason, failureReason    sql.NullString
		cancelledAt                          sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.UserID, &category, &kind, &status, &evaluation,
		&matchID, &paymentID, &submissionID, &serviceOptions,
		&o.Pricing.BasePrice, &o.Pricing.LegalFee, &o.Pricing.UrgentFee, &o.Pricing.ConsultationFee, &o.Pricing.TotalAmount, &o.Pricing.Currency,
		&timeline, &cancellationReason, &cancelledAt, &failureReason, &o.Version, &o.CreatedAt, &o.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	o.VisaCategory = domain.VisaCategory(category)
	o.ApplicationKind = domain.ApplicationKind(kind)
	o.Status = domain.OrderStatus(status)
	o.MatchID = stringPtr(matchID)
	o.PaymentID = stringPtr(paymentID)
	o.DocumentSubmissionID = stringPtr(submissionID)
	o.CancellationReason = cancellationReason.String
	o.FailureReason = failureReason.String
	if cancelledAt.Valid {
		at := cancelledAt.Time.UTC()
		o.CancelledAt = &at
	}
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	if len(evaluation) > 0 {
		var result domain.EvaluationResult
		if err := json.Unmarshal(evaluation, &result); err != nil {
			return nil, fmt.Errorf("decoding evaluation result: %w", err)
		}
		o.Evaluation = &result
	}
	if err := json.Unmarshal(serviceOptions, &o.ServiceOptions); err != nil {
		return nil, fmt.Errorf("decoding service options: %w", err)
	}
	o.Timeline = domain.Timeline{}
	if err := json.Unmarshal(timeline, &o.Timeline); err != nil {
		return nil, fmt.Errorf("decoding timeline: %w", err)
	}

	return &o, nil
}

// Save writes o only if the stored version still equals o.Version, then bumps
// it. Service options and identity columns are never rewritten.
func (r *MySQLOrderRepository) Save(ctx context.Context, o *domain.Order) error {
	evaluation, _, timeline, err := encodeOrderDocuments(o)
	if err != nil {
		return err
	}

	query := `
		UPDATE VisaOrders SET
			status = ?, evaluationResult = ?, matchId = ?, paymentId = ?, documentSubmissionId = ?,
			basePrice = ?, legalFee = ?, urgentFee = ?, consultationFee = ?, totalAmount = ?, currency = ?,
			timeline = ?, cancellationReason = ?, cancelledAt = ?, failureReason = ?,
			version = ?, updatedAt = ?
		WHERE id = ? AND version = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(o.Status), jsonOrNull(evaluation), nullString(o.MatchID), nullString(o.PaymentID), nullString(o.DocumentSubmissionID),
		o.Pricing.BasePrice, o.Pricing.LegalFee, o.Pricing.UrgentFee, o.Pricing.ConsultationFee, o.Pricing.TotalAmount, o.Pricing.Currency,
		timeline, nullText(o.CancellationReason), nullTime(o.CancelledAt), nullText(o.FailureReason),
		o.Version+1, o.UpdatedAt,
		o.ID, o.Version,
	)
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return lookupMissOrConflict(ctx, r.db, "VisaOrders", "order", o.ID, o.Version)
	}

	o.Version++
	return nil
}

func lookupMissOrConflict(ctx context.Context, db *sql.DB, table, kind, id string, version int64) error {
	var current int64
	err := db.QueryRowContext(ctx, "SELECT version FROM "+table+" WHERE id = ?", id).Scan(&current)
	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(fmt.Sprintf("%s with id %s not found", kind, id))
	}
	if err != nil {
		return fmt.Errorf("checking %s version: %w", kind, err)
	}
	return errors.NewConflictError(fmt.Sprintf("%s %s was modified concurrently (have version %d, stored %d)", kind, id, version, current))
}

func encodeOrderDocuments(o *domain.Order) (evaluation, serviceOptions, timeline []byte, err error) {
	if o.Evaluation != nil {
		if evaluation, err = json.Marshal(o.Evaluation); err != nil {
			return nil, nil, nil, fmt.Errorf("encoding evaluation result: %w", err)
		}
	}
	if serviceOptions, err = json.Marshal(o.ServiceOptions); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding service options: %w", err)
	}
	tl := o.Timeline
	if tl == nil {
		tl = domain.Timeline{}
	}
	if timeline, err = json.Marshal(tl); err != nil {
		return nil, nil, nil, fmt.Errorf("encoding timeline: %w", err)
	}
	return evaluation, serviceOptions, timeline, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullText(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func jsonOrNull(b []byte) any {
	if b == nil {
		return nil
	}
	return b
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return stderrors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
