package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	changeBookingStatusHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/change_booking_status"
	deleteProviderScheduleHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/delete_provider_schedule"
	getAvailabilityHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/get_availability"
	getBookingHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/get_booking"
	getProviderBookingsHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/get_provider_bookings"
	getProviderScheduleHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/get_provider_schedule"
	getUserBookingsHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/get_user_bookings"
	rescheduleBookingHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/reschedule_booking"
	reserveBookingHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/reserve_booking"
	updateProviderScheduleHandler "github.com/m04kA/SMC-BeautyBooking/internal/api/handlers/update_provider_schedule"
	"github.com/m04kA/SMC-BeautyBooking/internal/api/middleware"
	"github.com/m04kA/SMC-BeautyBooking/internal/config"
	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/infra/events"
	catalogServiceClient "github.com/m04kA/SMC-BeautyBooking/internal/integrations/catalogservice"
	bookingsService "github.com/m04kA/SMC-BeautyBooking/internal/service/bookings"
	scheduleService "github.com/m04kA/SMC-BeautyBooking/internal/service/schedule"
	getAvailableSlotsUC "github.com/m04kA/SMC-BeautyBooking/internal/usecase/get_available_slots"
	rescheduleBookingUC "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reschedule_booking"
	reserveBookingUC "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
	"github.com/m04kA/SMC-BeautyBooking/internal/worker/autocomplete"
	"github.com/m04kA/SMC-BeautyBooking/pkg/clock"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
	"github.com/m04kA/SMC-BeautyBooking/pkg/metrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/ratelimit"
	"github.com/m04kA/SMC-BeautyBooking/pkg/tracing"
)

// observer счётчики движка: prometheus или заглушка, если метрики выключены
type observer interface {
	ObserveReservation(outcome string)
	ObserveTransition(action, from, to string)
	ObserveOutboxPublish(result string, n int)
	ObserveRateLimited(route string)
}

func main() {
	configPath := "config.toml"
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		configPath = path
	}

	// Загружаем конфигурацию
	cfg, err := config.Load(configPath)
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

	log.Info("Starting SMC-BeautyBooking...")
	log.Info("Configuration loaded from %s", configPath)

	location, err := cfg.Engine.Location()
	if err != nil {
		log.Fatal("Failed to load engine timezone: %v", err)
	}
	timeProvider := clock.Real{Location: location}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Трейсинг
	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		log.Fatal("Failed to setup tracing: %v", err)
	}

	// Инициализируем метрики (если включены)
	var (
		metricsCollector *metrics.Metrics
		counters         observer = metrics.Noop{}
	)
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		counters = metricsCollector
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	var store *storage
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store = openMemory(log)
	default:
		store, err = openPostgres(cfg, location, metricsCollector, stopMetricsCh, log)
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
	}
	defer store.close()

	// Каталог услуг
	catalogClient := catalogServiceClient.NewClient(
		cfg.CatalogService.URL,
		time.Duration(cfg.CatalogService.Timeout)*time.Second,
		log,
	)
	log.Info("Catalog client initialized (url=%s, timeout=%ds)", cfg.CatalogService.URL, cfg.CatalogService.Timeout)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		store.bookings,
		store.outbox,
		store.txManager,
		timeProvider,
		counters,
		log,
	)
	scheduleSvc := scheduleService.NewService(store.schedules, location, log)

	// Инициализируем use cases
	reserveBookingUseCase := reserveBookingUC.NewUseCase(
		store.bookings,
		store.schedules,
		store.idempotency,
		store.outbox,
		catalogClient,
		store.txManager,
		timeProvider,
		counters,
		log,
		cfg.Engine.RequestTimeout(),
	)

	rescheduleBookingUseCase := rescheduleBookingUC.NewUseCase(
		store.bookings,
		store.idempotency,
		reserveBookingUseCase,
		bookingSvc,
		store.txManager,
		timeProvider,
		counters,
		log,
		cfg.Engine.RequestTimeout(),
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		store.bookings,
		store.schedules,
		timeProvider,
		log,
	)

	// Фоновые задачи
	var wg sync.WaitGroup

	if cfg.Engine.AutoCompleteEnabled {
		worker := autocomplete.NewWorker(
			store.bookings,
			bookingSvc,
			timeProvider,
			log,
			time.Duration(cfg.Engine.AutoCompleteInterval)*time.Second,
			cfg.Engine.AutoCompleteBatchSize,
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker.Run(ctx)
		}()
	}

	var publisher *events.Publisher
	if cfg.Kafka.Enabled {
		writer := events.NewWriter(events.WriterConfig{
			Brokers: events.SplitBrokers(cfg.Kafka.Brokers),
			Topic:   cfg.Kafka.Topic,
		})
		publisher = events.NewPublisher(
			writer,
			store.outbox,
			store.txManager,
			timeProvider,
			counters,
			log,
			events.PublisherConfig{
				Interval:  time.Duration(cfg.Kafka.PublishIntervalMs) * time.Millisecond,
				BatchSize: cfg.Kafka.BatchSize,
			},
		)
		wg.Add(1)
		go func() {
			defer wg.Done()
			publisher.Run(ctx)
		}()
		log.Info("Outbox publisher started (brokers=%s, topic=%s)", cfg.Kafka.Brokers, cfg.Kafka.Topic)
	} else {
		log.Warn("Kafka disabled: lifecycle events stay in the outbox")
	}

	// Ограничение частоты изменяющих запросов
	var (
		limiter     middleware.Limiter
		redisClient *redis.Client
	)
	if cfg.RateLimit.Enabled {
		if cfg.Redis.Enabled {
			redisClient = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Warn("Redis is not reachable, rate limiter will fail open until it is: %v", err)
			}
			limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window(), "beauty-booking:rl")
			log.Info("Rate limiter backed by Redis at %s", cfg.Redis.Addr)
		} else {
			limiter = ratelimit.NewLocalLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window())
			log.Info("In-process rate limiter enabled")
		}
	}

	// Инициализируем handlers
	getAvailability := getAvailabilityHandler.NewHandler(getAvailableSlotsUseCase, location, log)
	reserveBooking := reserveBookingHandler.NewHandler(reserveBookingUseCase, location, log)
	rescheduleBooking := rescheduleBookingHandler.NewHandler(rescheduleBookingUseCase, location, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	acceptBooking := changeBookingStatusHandler.NewHandler(bookingSvc, domain.ActionAccept, log)
	declineBooking := changeBookingStatusHandler.NewHandler(bookingSvc, domain.ActionDecline, log)
	cancelBooking := changeBookingStatusHandler.NewHandler(bookingSvc, domain.ActionCancel, log)
	completeBooking := changeBookingStatusHandler.NewHandler(bookingSvc, domain.ActionComplete, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getProviderBookings := getProviderBookingsHandler.NewHandler(bookingSvc, location, log)
	getProviderSchedule := getProviderScheduleHandler.NewHandler(scheduleSvc, log)
	updateProviderSchedule := updateProviderScheduleHandler.NewHandler(scheduleSvc, log)
	deleteProviderSchedule := deleteProviderScheduleHandler.NewHandler(scheduleSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.RequestID, middleware.AccessLog(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	api.HandleFunc("/providers/{providerId}/availability", getAvailability.Handle).Methods(http.MethodGet)
	api.HandleFunc("/providers/{providerId}/schedule", getProviderSchedule.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID и X-User-Role)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/providers/{providerId}/bookings", getProviderBookings.Handle).Methods(http.MethodGet)

	// Изменяющие запросы проходят через лимитер
	writes := protected.PathPrefix("").Subrouter()
	if limiter != nil {
		writes.Use(middleware.RateLimit(limiter, counters, log))
	}

	writes.HandleFunc("/bookings", reserveBooking.Handle).Methods(http.MethodPost)
	writes.HandleFunc("/bookings/{bookingId}/reschedule", rescheduleBooking.Handle).Methods(http.MethodPost)
	writes.HandleFunc("/bookings/{bookingId}/accept", acceptBooking.Handle).Methods(http.MethodPatch)
	writes.HandleFunc("/bookings/{bookingId}/decline", declineBooking.Handle).Methods(http.MethodPatch)
	writes.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	writes.HandleFunc("/bookings/{bookingId}/complete", completeBooking.Handle).Methods(http.MethodPatch)
	writes.HandleFunc("/providers/{providerId}/schedule", updateProviderSchedule.Handle).Methods(http.MethodPut)
	writes.HandleFunc("/providers/{providerId}/schedule", deleteProviderSchedule.Handle).Methods(http.MethodDelete)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(r, cfg.Tracing.ServiceName),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	// Фоновые задачи останавливаются по отмене ctx
	wg.Wait()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Error("Failed to close Kafka writer: %v", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis client: %v", err)
		}
	}

	close(stopMetricsCh)

	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("Failed to flush traces: %v", err)
	}

	log.Info("Server stopped gracefully")
}
