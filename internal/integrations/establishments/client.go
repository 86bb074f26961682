package establishments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Client клиент сервиса настроек заведений
// Ответы кешируются на cacheTTL: список менеджеров нужен почти в каждом запросе
type Client struct {
	baseURL    string
	httpClient *http.Client
	cacheTTL   time.Duration
	log        Logger

	mu    sync.RWMutex
	cache map[int64]cachedEstablishment
}

type cachedEstablishment struct {
	value     *Establishment
	expiresAt time.Time
}

// NewClient создает новый экземпляр клиента
func NewClient(baseURL string, timeout, cacheTTL time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		cacheTTL: cacheTTL,
		log:      log,
		cache:    make(map[int64]cachedEstablishment),
	}
}

// GetEstablishment получает заведение по ID
func (c *Client) GetEstablishment(ctx context.Context, establishmentID int64) (*Establishment, error) {
	if cached, ok := c.fromCache(establishmentID); ok {
		return cached, nil
	}

	url := fmt.Sprintf("%s/internal/establishments/%d", c.baseURL, establishmentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrEstablishmentNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(body))
	}

	var establishment Establishment
	if err := json.NewDecoder(resp.Body).Decode(&establishment); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}

	c.toCache(&establishment)
	return &establishment, nil
}

func (c *Client) fromCache(id int64) (*Establishment, bool) {
	if c.cacheTTL <= 0 {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.cache[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

func (c *Client) toCache(e *Establishment) {
	if c.cacheTTL <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[e.ID] = cachedEstablishment{value: e, expiresAt: time.Now().Add(c.cacheTTL)}
}

// Static справочник заведений в памяти (storage.driver = "memory" и тесты)
type Static struct {
	mu    sync.RWMutex
	items map[int64]*Establishment
}

// NewStatic создает справочник из списка заведений
func NewStatic(items ...Establishment) *Static {
	s := &Static{items: make(map[int64]*Establishment, len(items))}
	for i := range items {
		s.Put(items[i])
	}
	return s
}

// Put добавляет или заменяет заведение
func (s *Static) Put(e Establishment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[e.ID] = &e
}

// GetEstablishment возвращает заведение из справочника
func (s *Static) GetEstablishment(_ context.Context, establishmentID int64) (*Establishment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.items[establishmentID]
	if !ok {
		return nil, ErrEstablishmentNotFound
	}
	return e, nil
}
