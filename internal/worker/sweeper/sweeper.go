package sweeper

import (
	"context"
	"errors"
	"time"
)

// JobFunc одна задача прохода; возвращает число обработанных записей
type JobFunc func(ctx context.Context) (int, error)

type job struct {
	name string
	run  JobFunc
}

// Sweeper фоновый проход по времени: страховка на случай пропущенных событий
type Sweeper struct {
	interval time.Duration
	jobs     []job
	metrics  Metrics
	logger   Logger
}

// New создает sweeper со стандартным набором задач
func New(
	interval time.Duration,
	offers OfferExpirer,
	reservations ReservationSweeper,
	disputes DisputeResolver,
	metrics Metrics,
	logger Logger,
) *Sweeper {
	s := &Sweeper{
		interval: interval,
		metrics:  metrics,
		logger:   logger,
	}
	s.Add("expire_offers", offers.ExpireStaleOffers)
	s.Add("expire_unactioned", reservations.ExpireUnactioned)
	s.Add("complete_past", reservations.CompletePast)
	s.Add("resolve_overdue_disputes", disputes.ResolveOverdue)
	return s
}

// Add регистрирует дополнительную задачу; вызывать до Run
func (s *Sweeper) Add(name string, fn JobFunc) {
	s.jobs = append(s.jobs, job{name: name, run: fn})
}

// Run выполняет проход сразу и затем каждые interval, пока не отменен ctx
func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("Sweeper: started, interval=%s, jobs=%d", s.interval, len(s.jobs))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper: stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет все задачи по очереди; ошибка одной задачи не останавливает остальные
func (s *Sweeper) RunOnce(ctx context.Context) {
	for _, j := range s.jobs {
		if ctx.Err() != nil {
			return
		}

		n, err := j.run(ctx)
		switch {
		case err == nil:
			s.metrics.IncSweeperRun(j.name, "ok")
			if n > 0 {
				s.logger.Info("Sweeper: job=%s processed=%d", j.name, n)
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			s.metrics.IncSweeperRun(j.name, "cancelled")
			return
		default:
			s.metrics.IncSweeperRun(j.name, "error")
			s.logger.Error("Sweeper: job=%s failed after processed=%d: %v", j.name, n, err)
		}
	}
}
