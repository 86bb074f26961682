package reservation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

const tableName = "reservations"

var columns = []string{
	"id",
	"establishment_id",
	"user_id",
	"slot_id",
	"starts_at",
	"ends_at",
	"party_size",
	"status",
	"payment_type",
	"amount_total",
	"amount_deposit",
	"payment_status",
	"booking_reference",
	"qr_code_token",
	"is_from_waitlist",
	"waitlist_entry_id",
	"meta",
	"checked_in_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция, использует её.
// Проверка вместимости слота - ответственность вызывающего (под блокировкой слота)
func (r *Repository) Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := buildInsert(res)
	if err != nil {
		return nil, err
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&res.ID, &createdAt, &updatedAt)
	if err != nil {
		// Коллизия кода брони гасится ON CONFLICT и не обрывает внешнюю транзакцию
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: booking_reference=%s", ErrDuplicateReference, res.BookingReference)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return res, nil
}

// buildInsert строит INSERT бронирования
// Уникальны только booking_reference и qr_code_token, поэтому пустой RETURNING означает коллизию кода
func buildInsert(res *domain.Reservation) (string, []interface{}, error) {
	meta, err := json.Marshal(res.Meta)
	if err != nil {
		return "", nil, fmt.Errorf("%w: Create - marshal meta: %v", ErrEncodeMeta, err)
	}

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"establishment_id",
			"user_id",
			"slot_id",
			"starts_at",
			"ends_at",
			"party_size",
			"status",
			"payment_type",
			"amount_total",
			"amount_deposit",
			"payment_status",
			"booking_reference",
			"qr_code_token",
			"is_from_waitlist",
			"waitlist_entry_id",
			"meta",
		).
		Values(
			res.EstablishmentID,
			res.UserID,
			res.SlotID,
			res.StartsAt,
			res.EndsAt,
			res.PartySize,
			res.Status,
			res.PaymentType,
			res.AmountTotal,
			res.AmountDeposit,
			res.PaymentStatus,
			res.BookingReference,
			res.QRCodeToken,
			res.IsFromWaitlist,
			res.WaitlistEntryID,
			meta,
		).
		Suffix("ON CONFLICT DO NOTHING RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}
	return query, args, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	return r.getOne(ctx, "GetByID", builder)
}

// GetByQRToken получает бронирование по токену QR-кода
func (r *Repository) GetByQRToken(ctx context.Context, token string) (*domain.Reservation, error) {
	builder := psqlbuilder.Select(columns...).
		From(tableName).
		Where(squirrel.Eq{"qr_code_token": token})

	if dbmetrics.IsInTransaction(ctx) {
		builder = builder.Suffix("FOR UPDATE")
	}

	return r.getOne(ctx, "GetByQRToken", builder)
}

// List получает бронирования по фильтру
// Пустой фильтр вернет все бронирования, поэтому вызывающий обязан задать хотя бы одно условие
func (r *Repository) List(ctx context.Context, filter domain.ReservationFilter) ([]*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(columns...).From(tableName)

	if filter.UserID != nil {
		builder = builder.Where(squirrel.Eq{"user_id": *filter.UserID})
	}
	if filter.EstablishmentID != nil {
		builder = builder.Where(squirrel.Eq{"establishment_id": *filter.EstablishmentID})
	}
	if filter.SlotID != nil {
		builder = builder.Where(squirrel.Eq{"slot_id": *filter.SlotID})
	}
	if len(filter.Statuses) > 0 {
		builder = builder.Where(squirrel.Eq{"status": statusStrings(filter.Statuses)})
	}
	if filter.StartsBefore != nil {
		builder = builder.Where(squirrel.Lt{"starts_at": *filter.StartsBefore})
	}
	if filter.EndsBefore != nil {
		builder = builder.Where(squirrel.Lt{"ends_at": *filter.EndsBefore})
	}

	builder = builder.OrderBy("starts_at DESC", "id DESC")
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanReservations(rows)
}

// SumOccupying возвращает сумму party_size бронирований слота в занимающих статусах
// excludeID позволяет не учитывать само изменяемое бронирование
func (r *Repository) SumOccupying(ctx context.Context, slotID int64, excludeID *int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select("COALESCE(SUM(party_size), 0)").
		From(tableName).
		Where(squirrel.Eq{"slot_id": slotID}).
		Where(squirrel.Eq{"status": statusStrings(domain.OccupyingStatuses)})

	if excludeID != nil {
		builder = builder.Where(squirrel.NotEq{"id": *excludeID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: SumOccupying - build select query: %v", ErrBuildQuery, err)
	}

	var used int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&used); err != nil {
		return 0, fmt.Errorf("%w: SumOccupying - scan sum: %v", ErrScanRow, err)
	}

	return used, nil
}

// SumOccupyingBySlots возвращает занятость для набора слотов одним запросом
// Слоты без бронирований в результат не попадают
func (r *Repository) SumOccupyingBySlots(ctx context.Context, slotIDs []int64) (map[int64]int, error) {
	result := make(map[int64]int, len(slotIDs))
	if len(slotIDs) == 0 {
		return result, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("slot_id", "COALESCE(SUM(party_size), 0)").
		From(tableName).
		Where(squirrel.Eq{"slot_id": slotIDs}).
		Where(squirrel.Eq{"status": statusStrings(domain.OccupyingStatuses)}).
		GroupBy("slot_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: SumOccupyingBySlots - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: SumOccupyingBySlots - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var slotID int64
		var used int
		if err := rows.Scan(&slotID, &used); err != nil {
			return nil, fmt.Errorf("%w: SumOccupyingBySlots - scan row: %v", ErrScanRow, err)
		}
		result[slotID] = used
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: SumOccupyingBySlots - rows error: %v", ErrScanRow, err)
	}

	return result, nil
}

// Update сохраняет изменения бронирования при условии, что статус в БД равен expected
// Возвращает ErrStatusConflict, если бронирование успели перевести в другой статус
func (r *Repository) Update(ctx context.Context, res *domain.Reservation, expected domain.ReservationStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	meta, err := json.Marshal(res.Meta)
	if err != nil {
		return fmt.Errorf("%w: Update - marshal meta: %v", ErrEncodeMeta, err)
	}

	query, args, err := psqlbuilder.Update(tableName).
		Set("slot_id", res.SlotID).
		Set("starts_at", res.StartsAt).
		Set("ends_at", res.EndsAt).
		Set("party_size", res.PartySize).
		Set("status", res.Status).
		Set("payment_type", res.PaymentType).
		Set("amount_total", res.AmountTotal).
		Set("amount_deposit", res.AmountDeposit).
		Set("payment_status", res.PaymentStatus).
		Set("meta", meta).
		Set("checked_in_at", res.CheckedInAt).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": res.ID, "status": expected}).
		Suffix("RETURNING updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return r.classifyMissing(ctx, res.ID)
	}
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	res.UpdatedAt = updatedAt.Time
	return nil
}

// classifyMissing отличает отсутствующее бронирование от конфликта статуса
func (r *Repository) classifyMissing(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("1").From(tableName).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build exists query: %v", ErrBuildQuery, err)
	}

	var one int
	err = executor.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReservationNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: Update - check exists: %v", ErrExecQuery, err)
	}
	return ErrStatusConflict
}

func (r *Repository) getOne(ctx context.Context, op string, builder squirrel.SelectBuilder) (*domain.Reservation, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, op, err)
	}

	res, err := scanReservation(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s - scan reservation: %v", ErrScanRow, op, err)
	}

	return res, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	var res domain.Reservation
	var slotID, waitlistEntryID sql.NullInt64
	var checkedInAt, createdAt, updatedAt sql.NullTime
	var meta []byte

	err := row.Scan(
		&res.ID,
		&res.EstablishmentID,
		&res.UserID,
		&slotID,
		&res.StartsAt,
		&res.EndsAt,
		&res.PartySize,
		&res.Status,
		&res.PaymentType,
		&res.AmountTotal,
		&res.AmountDeposit,
		&res.PaymentStatus,
		&res.BookingReference,
		&res.QRCodeToken,
		&res.IsFromWaitlist,
		&waitlistEntryID,
		&meta,
		&checkedInAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if slotID.Valid {
		res.SlotID = &slotID.Int64
	}
	if waitlistEntryID.Valid {
		res.WaitlistEntryID = &waitlistEntryID.Int64
	}
	if checkedInAt.Valid {
		res.CheckedInAt = &checkedInAt.Time
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &res.Meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}
	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

func scanReservations(rows *sql.Rows) ([]*domain.Reservation, error) {
	result := make([]*domain.Reservation, 0)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan reservation: %v", ErrScanRow, err)
		}
		result = append(result, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rows error: %v", ErrScanRow, err)
	}
	return result, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}
