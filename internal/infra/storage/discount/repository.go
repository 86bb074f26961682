package discount

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

const tableName = "discounts"

var columns = []string{
	"id",
	"establishment_id",
	"slot_id",
	"code",
	"title",
	"percent",
	"valid_from",
	"valid_to",
	"active",
	"created_at",
}

// Repository репозиторий промо-скидок
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория скидок
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает скидку по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Discount, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	d, err := scanDiscount(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDiscountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan discount: %v", ErrScanRow, err)
	}
	return d, nil
}

// ListActive получает активные скидки заведения, окно действия которых пересекается с [from, to)
func (r *Repository) ListActive(ctx context.Context, establishmentID int64, from, to time.Time) ([]*domain.Discount, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"establishment_id": establishmentID, "active": true}).
		Where(squirrel.Lt{"valid_from": to}).
		Where(squirrel.Gt{"valid_to": from}).
		OrderBy("percent DESC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListActive - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	result := make([]*domain.Discount, 0)
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListActive - scan discount: %v", ErrScanRow, err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListActive - rows error: %v", ErrScanRow, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDiscount(row rowScanner) (*domain.Discount, error) {
	var d domain.Discount
	var slotID sql.NullInt64
	var code sql.NullString
	var createdAt sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.EstablishmentID,
		&slotID,
		&code,
		&d.Title,
		&d.Percent,
		&d.ValidFrom,
		&d.ValidTo,
		&d.Active,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if slotID.Valid {
		d.SlotID = &slotID.Int64
	}
	if code.Valid {
		d.Code = &code.String
	}
	d.CreatedAt = createdAt.Time
	return &d, nil
}
