// Package notifier отправляет уведомления в сервис рассылки через RabbitMQ.
// Отправка best-effort: ошибки логируются и не возвращаются вызывающему.
package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Publisher публикует уведомления в очередь
// Соединение открывается лениво и переоткрывается после обрыва
type Publisher struct {
	url     string
	queue   string
	timeout time.Duration
	log     Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher создает publisher для очереди queue
func NewPublisher(url, queue string, timeout time.Duration, log Logger) *Publisher {
	return &Publisher{
		url:     url,
		queue:   queue,
		timeout: timeout,
		log:     log,
	}
}

// Notify публикует уведомление; ошибка только логируется
func (p *Publisher) Notify(ctx context.Context, n domain.Notification) {
	if err := p.publish(ctx, n); err != nil {
		p.log.Error("Notify: failed to publish %s for user=%d: %v", n.Kind, n.UserID, err)
	}
}

func (p *Publisher) publish(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	err = p.ch.PublishWithContext(pubCtx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         string(n.Kind),
			Body:         body,
		},
	)
	if err != nil {
		p.reset()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// ensureChannel вызывать под p.mu
func (p *Publisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare queue %s: %w", p.queue, err)
	}

	p.conn = conn
	p.ch = ch
	return nil
}

// reset вызывать под p.mu
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close закрывает соединение с брокером
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// Log пишет уведомления в лог вместо брокера (rabbitmq.enabled = false)
type Log struct {
	log Logger
}

// NewLog создает notifier, пишущий в лог
func NewLog(log Logger) *Log {
	return &Log{log: log}
}

// Notify логирует уведомление
func (l *Log) Notify(_ context.Context, n domain.Notification) {
	l.log.Info("Notify: %s for user=%d establishment=%d", n.Kind, n.UserID, n.EstablishmentID)
}
