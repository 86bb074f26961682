// Package slotlock сериализует критическую секцию check-and-reserve по ключу слота.
// Блокировки разных слотов независимы, глобального лока нет.
package slotlock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrLockTimeout возвращается, когда не удалось взять блокировку до отмены контекста
	ErrLockTimeout = errors.New("slotlock: failed to acquire lock")
)

// Locker берет блокировку по ключу и возвращает функцию освобождения
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// SlotKey ключ блокировки для слота
func SlotKey(slotID int64) string {
	return fmt.Sprintf("slot:%d", slotID)
}

// Local блокировки в пределах одного процесса
// Мьютекс на ключ создается по требованию и удаляется, когда его никто не держит
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

// NewLocal создает локальный locker
func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Lock блокирует ключ; ожидание прерывается отменой контекста
func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// size количество активных ключей (для тестов)
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
