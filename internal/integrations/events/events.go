// Package events публикует события жизненного цикла бронирований в Kafka.
// Запись асинхронная: ошибки доставки логируются в Completion.
package events

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Writer интерфейс kafka.Writer, нужный publisher'у
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher публикует события, ключ сообщения - establishment_id (порядок событий заведения сохраняется)
type Publisher struct {
	writer Writer
	log    Logger
}

// NewKafkaWriter создает асинхронный kafka.Writer
func NewKafkaWriter(brokers []string, topic string, batchTimeout time.Duration, log Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: batchTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Error("events: failed to deliver %d messages: %v", len(messages), err)
			}
		},
	}
}

// NewPublisher создает publisher поверх writer
func NewPublisher(writer Writer, log Logger) *Publisher {
	return &Publisher{writer: writer, log: log}
}

// Publish отправляет событие; ошибка только логируется
func (p *Publisher) Publish(ctx context.Context, ev domain.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(ev)
	if err != nil {
		p.log.Error("Publish: failed to marshal event %s: %v", ev.Type, err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.EstablishmentID, 10)),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}

	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.log.Error("Publish: failed to write event %s: %v", ev.Type, err)
	}
}

// Close сбрасывает буфер и закрывает writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Noop publisher для окружений без Kafka
type Noop struct{}

// Publish ничего не делает
func (Noop) Publish(context.Context, domain.Event) {}
