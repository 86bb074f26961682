package trust

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

// Repository журнал событий доверия (append-only) и кеш рассчитанного рейтинга
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория доверия
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// AppendEvent добавляет событие в журнал
// Повторное событие с тем же idempotency_key игнорируется, inserted=false
func (r *Repository) AppendEvent(ctx context.Context, event *domain.TrustEvent) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("trust_events").
		Columns("user_id", "kind", "reservation_id", "dispute_id", "idempotency_key", "occurred_at").
		Values(event.UserID, event.Kind, event.ReservationID, event.DisputeID, event.IdempotencyKey, event.OccurredAt).
		Suffix("ON CONFLICT (idempotency_key) DO NOTHING RETURNING id").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: AppendEvent - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&event.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: AppendEvent - execute insert: %v", ErrExecQuery, err)
	}

	return true, nil
}

// ListEvents получает события пользователя, произошедшие не раньше since
func (r *Repository) ListEvents(ctx context.Context, userID int64, since time.Time) ([]domain.TrustEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "user_id", "kind", "reservation_id", "dispute_id", "idempotency_key", "occurred_at").
		From("trust_events").
		Where(squirrel.Eq{"user_id": userID}).
		Where(squirrel.GtOrEq{"occurred_at": since}).
		OrderBy("occurred_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListEvents - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListEvents - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]domain.TrustEvent, 0)
	for rows.Next() {
		var ev domain.TrustEvent
		var reservationID, disputeID sql.NullInt64
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.Kind, &reservationID, &disputeID, &ev.IdempotencyKey, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("%w: ListEvents - scan event: %v", ErrScanRow, err)
		}
		if reservationID.Valid {
			ev.ReservationID = &reservationID.Int64
		}
		if disputeID.Valid {
			ev.DisputeID = &disputeID.Int64
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListEvents - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}

// SaveScore сохраняет снимок рейтинга (upsert по user_id)
func (r *Repository) SaveScore(ctx context.Context, score *domain.TrustScore) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("client_trust_scores").
		Columns("user_id", "no_shows", "disputes_lost", "disputes_won", "score", "suspended", "computed_at").
		Values(score.UserID, score.NoShows, score.DisputesLost, score.DisputesWon, score.Score, score.Suspended, score.ComputedAt).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			no_shows = EXCLUDED.no_shows,
			disputes_lost = EXCLUDED.disputes_lost,
			disputes_won = EXCLUDED.disputes_won,
			score = EXCLUDED.score,
			suspended = EXCLUDED.suspended,
			computed_at = EXCLUDED.computed_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: SaveScore - build upsert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: SaveScore - execute upsert: %v", ErrExecQuery, err)
	}
	return nil
}
