package policy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/psqlbuilder"
)

// Repository репозиторий политик заведений
// Политики принадлежат настройкам заведения, движок только читает их
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория политик
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByEstablishment получает политику заведения
// Если строки нет - ErrPolicyNotFound, вызывающий применяет domain.DefaultPolicy
func (r *Repository) GetByEstablishment(ctx context.Context, establishmentID int64) (*domain.EstablishmentPolicy, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"establishment_id",
		"cancellation_enabled",
		"free_cancellation_hours",
		"cancellation_penalty_percent",
		"modification_enabled",
		"modification_deadline_hours",
		"requires_pro_validation",
		"waitlist_enabled",
		"allow_ad_hoc",
		"price_per_guest",
		"deposit_percent",
		"advance_booking_days",
		"default_duration_minutes",
		"created_at",
		"updated_at",
	).
		From("establishment_policies").
		Where(squirrel.Eq{"establishment_id": establishmentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByEstablishment - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.EstablishmentPolicy
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.EstablishmentID,
		&p.CancellationEnabled,
		&p.FreeCancellationHours,
		&p.CancellationPenaltyPercent,
		&p.ModificationEnabled,
		&p.ModificationDeadlineHours,
		&p.RequiresProValidation,
		&p.WaitlistEnabled,
		&p.AllowAdHoc,
		&p.PricePerGuest,
		&p.DepositPercent,
		&p.AdvanceBookingDays,
		&p.DefaultDurationMinutes,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPolicyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByEstablishment - scan policy: %v", ErrScanRow, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return &p, nil
}
