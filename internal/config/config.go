package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config конфигурация сервиса
type Config struct {
	Server               ServerConfig       `toml:"server"`
	Database             DatabaseConfig     `toml:"database"`
	Storage              StorageConfig      `toml:"storage"`
	Logs                 LogsConfig         `toml:"logs"`
	Metrics              MetricsConfig      `toml:"metrics"`
	Auth                 AuthConfig         `toml:"auth"`
	RateLimit            RateLimitConfig    `toml:"ratelimit"`
	Lock                 LockConfig         `toml:"lock"`
	Redis                RedisConfig        `toml:"redis"`
	RabbitMQ             RabbitMQConfig     `toml:"rabbitmq"`
	Kafka                KafkaConfig        `toml:"kafka"`
	EstablishmentService ServiceConfig      `toml:"establishment_service"`
	SettlementService    ServiceConfig      `toml:"settlement_service"`
	Booking              BookingConfig      `toml:"booking"`
	Trust                TrustConfig        `toml:"trust"`
	Establishments       []EstablishmentCfg `toml:"establishments"`
}

// ServerConfig настройки HTTP сервера (таймауты в секундах)
type ServerConfig struct {
	HTTPPort        int      `toml:"http_port"`
	ReadTimeout     int      `toml:"read_timeout"`
	WriteTimeout    int      `toml:"write_timeout"`
	IdleTimeout     int      `toml:"idle_timeout"`
	ShutdownTimeout int      `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// DatabaseConfig настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// StorageConfig выбор хранилища: postgres или memory
type StorageConfig struct {
	Driver string `toml:"driver"`
}

// LogsConfig настройки логирования
type LogsConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// MetricsConfig настройки prometheus
type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// AuthConfig настройки аутентификации
// Без секрета JWT пользователь берется из заголовка X-User-ID (внутренняя сеть)
// AdminHeaderKey - значение X-Admin-Key для вызовов с правами администратора; пусто - выключено
type AuthConfig struct {
	JWTSecret      string `toml:"jwt_secret"`
	AllowHeaderID  bool   `toml:"allow_header_id"`
	AdminHeaderKey string `toml:"admin_header_key"`
}

// RateLimitConfig лимит запросов на изменение для одного пользователя
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// LockConfig блокировка слота: local (один процесс) или redis (несколько реплик)
type LockConfig struct {
	Driver       string `toml:"driver"`
	TTLMs        int    `toml:"ttl_ms"`
	RetryDelayMs int    `toml:"retry_delay_ms"`
	Prefix       string `toml:"prefix"`
}

// RedisConfig подключение к Redis
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// RabbitMQConfig очередь уведомлений; пустой URL - уведомления только в лог
type RabbitMQConfig struct {
	URL     string `toml:"url"`
	Queue   string `toml:"queue"`
	Timeout int    `toml:"timeout"`
}

// KafkaConfig поток событий; без брокеров события не публикуются
type KafkaConfig struct {
	Brokers        []string `toml:"brokers"`
	Topic          string   `toml:"topic"`
	BatchTimeoutMs int      `toml:"batch_timeout_ms"`
}

// ServiceConfig внешний HTTP сервис (таймаут в секундах)
type ServiceConfig struct {
	URL      string `toml:"url"`
	Timeout  int    `toml:"timeout"`
	CacheTTL int    `toml:"cache_ttl"`
}

// BookingConfig тайминги движка
type BookingConfig struct {
	OfferWindowMinutes   int `toml:"offer_window_minutes"`
	DisputeResponseHours int `toml:"dispute_response_hours"`
	SweepIntervalSeconds int `toml:"sweep_interval_seconds"`
}

// TrustConfig параметры рейтинга доверия
type TrustConfig struct {
	SuspensionThreshold int `toml:"suspension_threshold"`
	WindowDays          int `toml:"window_days"`
}

// EstablishmentCfg заведение справочника для storage.driver = "memory"
type EstablishmentCfg struct {
	ID         int64     `toml:"id"`
	Name       string    `toml:"name"`
	Timezone   string    `toml:"timezone"`
	ManagerIDs []int64   `toml:"manager_ids"`
	Slots      []SlotCfg `toml:"slots"`
}

// SlotCfg слот заведения для storage.driver = "memory"
type SlotCfg struct {
	StartsAt time.Time `toml:"starts_at"`
	EndsAt   time.Time `toml:"ends_at"`
	Capacity int       `toml:"capacity"`
}

// OfferWindow окно ответа на предложение из листа ожидания
func (b BookingConfig) OfferWindow() time.Duration {
	return time.Duration(b.OfferWindowMinutes) * time.Minute
}

// DisputeResponseWindow срок ответа клиента на отметку неявки
func (b BookingConfig) DisputeResponseWindow() time.Duration {
	return time.Duration(b.DisputeResponseHours) * time.Hour
}

// SweepInterval период фонового прохода
func (b BookingConfig) SweepInterval() time.Duration {
	return time.Duration(b.SweepIntervalSeconds) * time.Second
}

// Window окно учета событий доверия
func (t TrustConfig) Window() time.Duration {
	return time.Duration(t.WindowDays) * 24 * time.Hour
}

// Load загружает конфигурацию из TOML файла
// Перед разбором подхватывается .env (если есть); секреты из окружения перекрывают файл
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default значения по умолчанию для незаданных параметров
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
			AllowedOrigins:  []string{"*"},
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Storage: StorageConfig{Driver: "postgres"},
		Logs:    LogsConfig{Level: "info"},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics", ServiceName: "reservation_engine"},
		Auth:    AuthConfig{AllowHeaderID: true},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		Lock:                 LockConfig{Driver: "local", TTLMs: 5000, RetryDelayMs: 25, Prefix: "reservation-engine"},
		RabbitMQ:             RabbitMQConfig{Queue: "notifications", Timeout: 5},
		Kafka:                KafkaConfig{Topic: "reservation-events", BatchTimeoutMs: 50},
		EstablishmentService: ServiceConfig{Timeout: 5, CacheTTL: 60},
		SettlementService:    ServiceConfig{Timeout: 5},
		Booking: BookingConfig{
			OfferWindowMinutes:   30,
			DisputeResponseHours: 48,
			SweepIntervalSeconds: 60,
		},
		Trust: TrustConfig{SuspensionThreshold: 50, WindowDays: 365},
	}
}

// applyEnv перекрывает секреты и адреса значениями из окружения
func applyEnv(cfg *Config) {
	overrideStr(&cfg.Database.Password, "DB_PASSWORD")
	overrideStr(&cfg.Database.Host, "DB_HOST")
	overrideStr(&cfg.Auth.JWTSecret, "JWT_SECRET")
	overrideStr(&cfg.Auth.AdminHeaderKey, "ADMIN_KEY")
	overrideStr(&cfg.Redis.Password, "REDIS_PASSWORD")
	overrideStr(&cfg.Redis.Addr, "REDIS_ADDR")
	overrideStr(&cfg.RabbitMQ.URL, "RABBITMQ_URL")
	overrideStr(&cfg.Storage.Driver, "STORAGE_DRIVER")

	if v := os.Getenv("DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}

func overrideStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid server.http_port: %d", c.Server.HTTPPort)
	}

	switch c.Storage.Driver {
	case "postgres":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return errors.New("database.host and database.dbname are required for postgres storage")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Lock.Driver {
	case "local":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("redis.addr is required for lock.driver = redis")
		}
	default:
		return fmt.Errorf("unknown lock.driver %q", c.Lock.Driver)
	}
	if c.Lock.TTLMs <= 0 || c.Lock.RetryDelayMs <= 0 {
		return errors.New("lock.ttl_ms and lock.retry_delay_ms must be positive")
	}

	if c.Booking.OfferWindowMinutes <= 0 {
		return errors.New("booking.offer_window_minutes must be positive")
	}
	if c.Booking.DisputeResponseHours <= 0 {
		return errors.New("booking.dispute_response_hours must be positive")
	}
	if c.Booking.SweepIntervalSeconds <= 0 {
		return errors.New("booking.sweep_interval_seconds must be positive")
	}

	if c.Trust.SuspensionThreshold < 0 || c.Trust.SuspensionThreshold > 100 {
		return fmt.Errorf("trust.suspension_threshold must be in [0, 100], got %d", c.Trust.SuspensionThreshold)
	}
	if c.Trust.WindowDays <= 0 {
		return errors.New("trust.window_days must be positive")
	}

	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return errors.New("ratelimit.requests_per_second and ratelimit.burst must be positive")
	}

	if c.Storage.Driver == "postgres" && c.EstablishmentService.URL == "" {
		return errors.New("establishment_service.url is required for postgres storage")
	}

	for _, e := range c.Establishments {
		for i, slot := range e.Slots {
			if !slot.EndsAt.After(slot.StartsAt) || slot.Capacity < 0 {
				return fmt.Errorf("establishment %d slot #%d: ends_at must follow starts_at and capacity must be non-negative", e.ID, i)
			}
		}
	}

	return nil
}
