package main

import (
	"database/sql"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/config"
	"github.com/m04kA/SMC-BeautyBooking/internal/infra/events"
	bookingRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/booking"
	idempotencyRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/idempotency"
	"github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/memory"
	outboxRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/outbox"
	scheduleRepo "github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/schedule"
	bookingsService "github.com/m04kA/SMC-BeautyBooking/internal/service/bookings"
	scheduleService "github.com/m04kA/SMC-BeautyBooking/internal/service/schedule"
	getAvailableSlotsUC "github.com/m04kA/SMC-BeautyBooking/internal/usecase/get_available_slots"
	reserveBookingUC "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
	"github.com/m04kA/SMC-BeautyBooking/internal/worker/autocomplete"
	"github.com/m04kA/SMC-BeautyBooking/pkg/dbmetrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
	"github.com/m04kA/SMC-BeautyBooking/pkg/metrics"
	"github.com/m04kA/SMC-BeautyBooking/pkg/txmanager"
)

type bookingStore interface {
	reserveBookingUC.BookingRepository
	getAvailableSlotsUC.BookingRepository
	bookingsService.BookingRepository
	autocomplete.BookingRepository
}

type scheduleStore interface {
	reserveBookingUC.ScheduleRepository
	scheduleService.ScheduleRepository
}

type outboxStore interface {
	reserveBookingUC.EventOutbox
	events.OutboxRepository
}

// storage репозитории выбранного хранилища
type storage struct {
	bookings    bookingStore
	schedules   scheduleStore
	idempotency reserveBookingUC.IdempotencyRepository
	outbox      outboxStore
	txManager   bookingsService.TransactionManager
	close       func() error
}

// openPostgres подключается к PostgreSQL и оборачивает соединение метриками запросов
func openPostgres(cfg *config.Config, loc *time.Location, m *metrics.Metrics, stopCh <-chan struct{}, log *logger.Logger) (*storage, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	wrappedDB := dbmetrics.WrapWithDefault(db, m, cfg.Metrics.ServiceName, stopCh)

	return &storage{
		bookings:    bookingRepo.NewRepository(wrappedDB, loc),
		schedules:   scheduleRepo.NewRepository(wrappedDB, loc),
		idempotency: idempotencyRepo.NewRepository(wrappedDB),
		outbox:      outboxRepo.NewRepository(wrappedDB),
		txManager:   txmanager.NewTransactionManager(wrappedDB),
		close:       db.Close,
	}, nil
}

// openMemory создает хранилище в памяти процесса
func openMemory(log *logger.Logger) *storage {
	log.Warn("Using in-memory storage: data is lost on restart")
	store := memory.NewStore()
	return &storage{
		bookings:    store.Bookings(),
		schedules:   store.Schedules(),
		idempotency: store.Idempotency(),
		outbox:      store.Outbox(),
		txManager:   store.TxManager(),
		close:       func() error { return nil },
	}
}
