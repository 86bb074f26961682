package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	acceptOfferHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/accept_offer"
	cancelReservationHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/cancel_reservation"
	checkInHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/check_in"
	confirmOfferPaymentHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/confirm_offer_payment"
	createReservationHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/create_reservation"
	decideReservationHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/decide_reservation"
	flagNoShowHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/flag_no_show"
	getDayAvailabilityHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_day_availability"
	getDiscountsHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_discounts"
	getDisputeHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_dispute"
	getPolicyHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_policy"
	getReservationHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_reservation"
	getReservationQRHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_reservation_qr"
	getSlotAvailabilityHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_slot_availability"
	getWaitlistEntryHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/get_waitlist_entry"
	joinWaitlistHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/join_waitlist"
	listReservationsHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/list_reservations"
	modifyReservationHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/modify_reservation"
	refuseOfferHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/refuse_offer"
	respondDisputeHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/respond_dispute"
	ruleDisputeHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/rule_dispute"
	upgradeReservationHandler "github.com/m04kA/SMC-ReservationEngine/internal/api/handlers/upgrade_reservation"
	"github.com/m04kA/SMC-ReservationEngine/internal/api/middleware"
	"github.com/m04kA/SMC-ReservationEngine/internal/config"
	"github.com/m04kA/SMC-ReservationEngine/internal/domain"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/events"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/notifier"
	"github.com/m04kA/SMC-ReservationEngine/internal/integrations/settlement"
	availabilityService "github.com/m04kA/SMC-ReservationEngine/internal/service/availability"
	disputesService "github.com/m04kA/SMC-ReservationEngine/internal/service/disputes"
	policyService "github.com/m04kA/SMC-ReservationEngine/internal/service/policy"
	reservationsService "github.com/m04kA/SMC-ReservationEngine/internal/service/reservations"
	trustService "github.com/m04kA/SMC-ReservationEngine/internal/service/trust"
	waitlistService "github.com/m04kA/SMC-ReservationEngine/internal/service/waitlist"
	createReservationUC "github.com/m04kA/SMC-ReservationEngine/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-ReservationEngine/internal/worker/sweeper"
	"github.com/m04kA/SMC-ReservationEngine/pkg/logger"
	"github.com/m04kA/SMC-ReservationEngine/pkg/metrics"
	"github.com/m04kA/SMC-ReservationEngine/pkg/slotlock"
)

type notifierClient interface {
	Notify(ctx context.Context, n domain.Notification)
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.Event)
}

type slotLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ReservationEngine...")
	log.Info("Configuration loaded from config.toml (storage=%s, lock=%s)", cfg.Storage.Driver, cfg.Lock.Driver)

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	store, err := openBackend(cfg, metricsCollector, stopMetricsCh, log)
	if err != nil {
		log.Fatal("Failed to open storage: %v", err)
	}
	defer store.close()

	// Блокировка слота
	var locker slotLocker
	switch cfg.Lock.Driver {
	case "redis":
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			pingCancel()
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		pingCancel()

		locker = slotlock.NewRedis(
			redisClient,
			cfg.Lock.Prefix,
			time.Duration(cfg.Lock.TTLMs)*time.Millisecond,
			time.Duration(cfg.Lock.RetryDelayMs)*time.Millisecond,
		)
		log.Info("Slot locks backed by redis at %s", cfg.Redis.Addr)
	default:
		locker = slotlock.NewLocal()
		log.Info("Slot locks are process-local")
	}

	// Интеграции
	var settlementClient reservationsService.SettlementClient = settlement.Noop{}
	if cfg.SettlementService.URL != "" {
		settlementClient = settlement.NewClient(
			cfg.SettlementService.URL,
			time.Duration(cfg.SettlementService.Timeout)*time.Second,
		)
		log.Info("Settlement client initialized (url=%s, timeout=%ds)",
			cfg.SettlementService.URL, cfg.SettlementService.Timeout)
	} else {
		log.Warn("Settlement service is not configured, escrow operations are skipped")
	}

	var notifications notifierClient = notifier.NewLog(log)
	if cfg.RabbitMQ.URL != "" {
		publisher := notifier.NewPublisher(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Queue,
			time.Duration(cfg.RabbitMQ.Timeout)*time.Second,
			log,
		)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Failed to close notification publisher: %v", err)
			}
		}()
		notifications = publisher
		log.Info("Notifications published to queue %s", cfg.RabbitMQ.Queue)
	}

	var eventStream eventPublisher = events.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := events.NewPublisher(
			events.NewKafkaWriter(
				cfg.Kafka.Brokers,
				cfg.Kafka.Topic,
				time.Duration(cfg.Kafka.BatchTimeoutMs)*time.Millisecond,
				log,
			),
			log,
		)
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Error("Failed to close event publisher: %v", err)
			}
		}()
		eventStream = publisher
		log.Info("Events published to topic %s (brokers=%v)", cfg.Kafka.Topic, cfg.Kafka.Brokers)
	}

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(
		store.reservations,
		store.slots,
		store.discounts,
		store.establishments,
		store.txManager,
		locker,
		metricsCollector,
		log,
	)
	policySvc := policyService.NewService(store.policies, store.establishments, log)
	trustSvc := trustService.NewService(
		store.trust,
		cfg.Trust.Window(),
		cfg.Trust.SuspensionThreshold,
		log,
	)
	waitlistSvc := waitlistService.NewService(
		store.waitlist,
		availabilitySvc,
		trustSvc,
		policySvc,
		settlementClient,
		notifications,
		eventStream,
		metricsCollector,
		cfg.Booking.OfferWindow(),
		log,
	)
	reservationSvc := reservationsService.NewService(
		store.reservations,
		availabilitySvc,
		policySvc,
		store.establishments,
		settlementClient,
		waitlistSvc,
		notifications,
		eventStream,
		log,
	)
	disputeSvc := disputesService.NewService(
		store.disputes,
		store.reservations,
		trustSvc,
		store.establishments,
		store.txManager,
		waitlistSvc,
		notifications,
		eventStream,
		cfg.Booking.DisputeResponseWindow(),
		log,
	)

	// Инициализируем use cases
	createReservationUseCase := createReservationUC.NewUseCase(
		trustSvc,
		availabilitySvc,
		policySvc,
		store.discounts,
		waitlistSvc,
		settlementClient,
		notifications,
		eventStream,
		metricsCollector,
		log,
	)

	// Инициализируем handlers
	getSlotAvailability := getSlotAvailabilityHandler.NewHandler(availabilitySvc, log)
	getDayAvailability := getDayAvailabilityHandler.NewHandler(availabilitySvc, log)
	getDiscounts := getDiscountsHandler.NewHandler(availabilitySvc, log)
	getPolicy := getPolicyHandler.NewHandler(policySvc, log)

	createReservation := createReservationHandler.NewHandler(createReservationUseCase, log)
	getReservation := getReservationHandler.NewHandler(reservationSvc, log)
	listReservations := listReservationsHandler.NewHandler(reservationSvc, log)
	getReservationQR := getReservationQRHandler.NewHandler(reservationSvc, log)
	modifyReservation := modifyReservationHandler.NewHandler(reservationSvc, log)
	upgradeReservation := upgradeReservationHandler.NewHandler(reservationSvc, log)
	cancelReservation := cancelReservationHandler.NewHandler(reservationSvc, log)
	decideReservation := decideReservationHandler.NewHandler(reservationSvc, log)
	checkIn := checkInHandler.NewHandler(reservationSvc, log)

	joinWaitlist := joinWaitlistHandler.NewHandler(waitlistSvc, log)
	getWaitlistEntry := getWaitlistEntryHandler.NewHandler(waitlistSvc, log)
	acceptOffer := acceptOfferHandler.NewHandler(waitlistSvc, log)
	refuseOffer := refuseOfferHandler.NewHandler(waitlistSvc, log)
	confirmOfferPayment := confirmOfferPaymentHandler.NewHandler(waitlistSvc, log)

	flagNoShow := flagNoShowHandler.NewHandler(disputeSvc, log)
	respondDispute := respondDisputeHandler.NewHandler(disputeSvc, log)
	ruleDispute := ruleDisputeHandler.NewHandler(disputeSvc, log)
	getDispute := getDisputeHandler.NewHandler(disputeSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	api.HandleFunc("/establishments/{establishmentId}/availability",
		getDayAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/establishments/{establishmentId}/slots/{slotId}/availability",
		getSlotAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/establishments/{establishmentId}/discounts",
		getDiscounts.Handle).Methods(http.MethodGet)
	api.HandleFunc("/establishments/{establishmentId}/policy",
		getPolicy.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (JWT или X-User-ID)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(middleware.AuthOptions{
		JWTSecret:      cfg.Auth.JWTSecret,
		AllowHeaderID:  cfg.Auth.AllowHeaderID,
		AdminHeaderKey: cfg.Auth.AdminHeaderKey,
	}, log))

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		protected.Use(limiter.Limit)
		log.Info("Rate limit enabled: %.1f rps, burst %d", cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	// --- Бронирования ---
	protected.HandleFunc("/reservations", createReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations", listReservations.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}", getReservation.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}", modifyReservation.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/reservations/{reservationId}/qr", getReservationQR.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/reservations/{reservationId}/upgrade", upgradeReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}/cancel", cancelReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}/decision", decideReservation.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/reservations/{reservationId}/no-show", flagNoShow.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/check-in", checkIn.Handle).Methods(http.MethodPost)

	// --- Лист ожидания ---
	protected.HandleFunc("/waitlist", joinWaitlist.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/waitlist/{entryId}", getWaitlistEntry.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/waitlist/{entryId}/accept", acceptOffer.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/waitlist/{entryId}/refuse", refuseOffer.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/waitlist/{entryId}/payment", confirmOfferPayment.Handle).Methods(http.MethodPost)

	// --- Споры о неявке ---
	protected.HandleFunc("/disputes/{disputeId}", getDispute.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/disputes/{disputeId}/response", respondDispute.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/disputes/{disputeId}/ruling", ruleDispute.Handle).Methods(http.MethodPost)

	handler := http.Handler(r)
	if len(cfg.Server.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-ID", "X-Admin-Key"},
			AllowCredentials: true,
		}).Handler(r)
		log.Info("CORS enabled for %v", cfg.Server.AllowedOrigins)
	}

	// Фоновые задачи
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	sw := sweeper.New(
		cfg.Booking.SweepInterval(),
		waitlistSvc,
		reservationSvc,
		disputeSvc,
		metricsCollector,
		log,
	)
	if limiter != nil {
		sw.Add("ratelimit_cleanup", func(context.Context) (int, error) {
			return limiter.Cleanup(time.Now()), nil
		})
	}
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		sw.Run(workerCtx)
	}()

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Останавливаем фоновые задачи
	stopWorkers()
	<-workerDone

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
