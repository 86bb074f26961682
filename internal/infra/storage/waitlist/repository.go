package waitlist

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

const tableName = "waitlist_entries"

const uniqueViolation = "23505"

var columns = []string{
	"id",
	"user_id",
	"establishment_id",
	"slot_id",
	"party_size",
	"payment_type",
	"payment_confirmed",
	"status",
	"position",
	"offer_sent_at",
	"offer_expires_at",
	"reservation_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий листа ожидания
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория листа ожидания
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create добавляет запись в лист ожидания
// Уникальность активной записи (user, slot) дополнительно гарантирует частичный индекс
func (r *Repository) Create(ctx context.Context, entry *domain.WaitlistEntry) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"user_id",
			"establishment_id",
			"slot_id",
			"party_size",
			"payment_type",
			"payment_confirmed",
			"status",
			"position",
		).
		Values(
			entry.UserID,
			entry.EstablishmentID,
			entry.SlotID,
			entry.PartySize,
			entry.PaymentType,
			entry.PaymentConfirmed,
			entry.Status,
			entry.Position,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateActiveEntry
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time
	return entry, nil
}

// GetByID получает запись по ID (FOR UPDATE внутри транзакции)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.WaitlistEntry, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	return r.getOne(ctx, "GetByID", builder)
}

// FindActiveByUserAndSlot ищет активную запись пользователя на слот
func (r *Repository) FindActiveByUserAndSlot(ctx context.Context, userID, slotID int64) (*domain.WaitlistEntry, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"user_id": userID, "slot_id": slotID}).
		Where(squirrel.Eq{"status": activeStatuses()}).
		Limit(1)

	return r.getOne(ctx, "FindActiveByUserAndSlot", builder)
}

// NextPosition возвращает следующую позицию в очереди слота
// Позиции не переиспользуются: max(position) по всем записям слота + 1
func (r *Repository) NextPosition(ctx context.Context, slotID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(MAX(position), 0) + 1").
		From(tableName).
		Where(squirrel.Eq{"slot_id": slotID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: NextPosition - build select query: %v", ErrBuildQuery, err)
	}

	var position int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&position); err != nil {
		return 0, fmt.Errorf("%w: NextPosition - scan position: %v", ErrScanRow, err)
	}
	return position, nil
}

// ListActiveBySlot получает активные записи слота в порядке очереди
func (r *Repository) ListActiveBySlot(ctx context.Context, slotID int64) ([]*domain.WaitlistEntry, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"status": activeStatuses()}).
		OrderBy("position ASC")

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	return r.list(ctx, "ListActiveBySlot", builder)
}

// ListExpiredOffers получает записи с истекшим окном предложения
func (r *Repository) ListExpiredOffers(ctx context.Context, now time.Time) ([]*domain.WaitlistEntry, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"status": domain.WaitlistOfferSent}).
		Where(squirrel.LtOrEq{"offer_expires_at": now}).
		OrderBy("offer_expires_at ASC")

	return r.list(ctx, "ListExpiredOffers", builder)
}

// Update сохраняет запись, если ее статус в БД равен expected
func (r *Repository) Update(ctx context.Context, entry *domain.WaitlistEntry, expected domain.WaitlistStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableName).
		Set("status", entry.Status).
		Set("payment_confirmed", entry.PaymentConfirmed).
		Set("offer_sent_at", entry.OfferSentAt).
		Set("offer_expires_at", entry.OfferExpiresAt).
		Set("reservation_id", entry.ReservationID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entry.ID, "status": expected}).
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
		if _, err := r.GetByID(ctx, entry.ID); err != nil {
			return err
		}
		return ErrStatusConflict
	}

	return nil
}

func (r *Repository) getOne(ctx context.Context, op string, builder squirrel.SelectBuilder) (*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	entry, err := scanEntry(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan entry: %v", ErrScanRow, op, err)
	}
	return entry, nil
}

func (r *Repository) list(ctx context.Context, op string, builder squirrel.SelectBuilder) ([]*domain.WaitlistEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, op, err)
	}
	defer rows.Close()

	result := make([]*domain.WaitlistEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan entry: %v", ErrScanRow, op, err)
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, op, err)
	}
	return result, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*domain.WaitlistEntry, error) {
	var e domain.WaitlistEntry
	var offerSentAt, offerExpiresAt, createdAt, updatedAt sql.NullTime
	var reservationID sql.NullInt64

	err := row.Scan(
		&e.ID,
		&e.UserID,
		&e.EstablishmentID,
		&e.SlotID,
		&e.PartySize,
		&e.PaymentType,
		&e.PaymentConfirmed,
		&e.Status,
		&e.Position,
		&offerSentAt,
		&offerExpiresAt,
		&reservationID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if offerSentAt.Valid {
		e.OfferSentAt = &offerSentAt.Time
	}
	if offerExpiresAt.Valid {
		e.OfferExpiresAt = &offerExpiresAt.Time
	}
	if reservationID.Valid {
		e.ReservationID = &reservationID.Int64
	}
	e.CreatedAt = createdAt.Time
	e.UpdatedAt = updatedAt.Time

	return &e, nil
}

func activeStatuses() []string {
	result := make([]string, len(domain.ActiveWaitlistStatuses))
	for i, s := range domain.ActiveWaitlistStatuses {
		result[i] = string(s)
	}
	return result
}
