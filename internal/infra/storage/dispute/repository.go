package dispute

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

const tableName = "no_show_disputes"

const uniqueViolation = "23505"

var columns = []string{
	"id",
	"reservation_id",
	"user_id",
	"establishment_id",
	"raised_by",
	"raised_by_user_id",
	"status",
	"client_response",
	"evidence",
	"outcome",
	"resolution_source",
	"response_deadline",
	"responded_at",
	"resolved_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий споров о неявке
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория споров
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create открывает спор
func (r *Repository) Create(ctx context.Context, d *domain.NoShowDispute) (*domain.NoShowDispute, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"reservation_id",
			"user_id",
			"establishment_id",
			"raised_by",
			"raised_by_user_id",
			"status",
			"evidence",
			"response_deadline",
		).
		Values(
			d.ReservationID,
			d.UserID,
			d.EstablishmentID,
			d.RaisedBy,
			d.RaisedByUserID,
			d.Status,
			pq.Array(d.Evidence),
			d.ResponseDeadline,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&d.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateOpenDispute
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time
	return d, nil
}

// GetByID получает спор по ID (FOR UPDATE внутри транзакции)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.NoShowDispute, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	return r.getOne(ctx, "GetByID", builder)
}

// FindOpenByReservation ищет неразрешенный спор по бронированию
func (r *Repository) FindOpenByReservation(ctx context.Context, reservationID int64) (*domain.NoShowDispute, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"reservation_id": reservationID}).
		Where(squirrel.NotEq{"status": domain.DisputeResolved}).
		Limit(1)

	return r.getOne(ctx, "FindOpenByReservation", builder)
}

// ListOverdue получает споры без ответа клиента с истекшим сроком
func (r *Repository) ListOverdue(ctx context.Context, now time.Time) ([]*domain.NoShowDispute, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"status": domain.DisputeAwaitingResponse}).
		Where(squirrel.LtOrEq{"response_deadline": now}).
		OrderBy("response_deadline ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.NoShowDispute, 0)
	for rows.Next() {
		d, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListOverdue - scan dispute: %v", ErrScanRow, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListOverdue - rows error: %v", ErrScanRow, err)
	}
	return result, nil
}

// Update сохраняет спор, если его статус в БД равен expected
func (r *Repository) Update(ctx context.Context, d *domain.NoShowDispute, expected domain.DisputeStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("status", d.Status).
		Set("client_response", d.ClientResponse).
		Set("evidence", pq.Array(d.Evidence)).
		Set("outcome", d.Outcome).
		Set("resolution_source", d.ResolutionSource).
		Set("responded_at", d.RespondedAt).
		Set("resolved_at", d.ResolvedAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": d.ID, "status": expected}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, d.ID); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *Repository) getOne(ctx context.Context, op string, builder squirrel.SelectBuilder) (*domain.NoShowDispute, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	d, err := scanDispute(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDisputeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan dispute: %v", ErrScanRow, op, err)
	}
	return d, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDispute(row rowScanner) (*domain.NoShowDispute, error) {
	var d domain.NoShowDispute
	var clientResponse, outcome, resolutionSource sql.NullString
	var respondedAt, resolvedAt, createdAt, updatedAt sql.NullTime
	var evidence pq.StringArray

	err := row.Scan(
		&d.ID,
		&d.ReservationID,
		&d.UserID,
		&d.EstablishmentID,
		&d.RaisedBy,
		&d.RaisedByUserID,
		&d.Status,
		&clientResponse,
		&evidence,
		&outcome,
		&resolutionSource,
		&d.ResponseDeadline,
		&respondedAt,
		&resolvedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if clientResponse.Valid {
		v := domain.ClientResponse(clientResponse.String)
		d.ClientResponse = &v
	}
	if outcome.Valid {
		v := domain.DisputeOutcome(outcome.String)
		d.Outcome = &v
	}
	if resolutionSource.Valid {
		v := domain.ResolutionSource(resolutionSource.String)
		d.ResolutionSource = &v
	}
	if respondedAt.Valid {
		d.RespondedAt = &respondedAt.Time
	}
	if resolvedAt.Valid {
		d.ResolvedAt = &resolvedAt.Time
	}
	d.Evidence = []string(evidence)
	d.CreatedAt = createdAt.Time
	d.UpdatedAt = updatedAt.Time

	return &d, nil
}
