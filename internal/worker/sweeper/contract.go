package sweeper

import "context"

// OfferExpirer истекает просроченные предложения листа ожидания
type OfferExpirer interface {
	ExpireStaleOffers(ctx context.Context) (int, error)
}

// ReservationSweeper переводит брони по времени: заявки без решения и прошедшие визиты
type ReservationSweeper interface {
	ExpireUnactioned(ctx context.Context) (int, error)
	CompletePast(ctx context.Context) (int, error)
}

// DisputeResolver закрывает споры без ответа клиента
type DisputeResolver interface {
	ResolveOverdue(ctx context.Context) (int, error)
}

type Metrics interface {
	IncSweeperRun(job, result string)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
