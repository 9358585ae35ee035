package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

// Store хранилище в памяти процесса для разработки и тестов.
// Транзакция удерживает общий мьютекс целиком, поэтому транзакции
// выполняются последовательно. При ошибке изменения откатываются по журналу.
type Store struct {
	mu sync.Mutex

	bookings    map[uuid.UUID]*domain.Booking
	activeSlots map[domain.SlotKey]uuid.UUID
	keys        map[idempotencyKey]*domain.IdempotencyRecord
	schedules   map[int64]*domain.ProviderSchedule
	outbox      []*outboxRow
	outboxSeq   int64

	now func() time.Time
}

type idempotencyKey struct {
	clientID int64
	key      string
}

type outboxRow struct {
	msg         domain.OutboxMessage
	publishedAt *time.Time
	lastError   string
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		bookings:    make(map[uuid.UUID]*domain.Booking),
		activeSlots: make(map[domain.SlotKey]uuid.UUID),
		keys:        make(map[idempotencyKey]*domain.IdempotencyRecord),
		schedules:   make(map[int64]*domain.ProviderSchedule),
		now:         time.Now,
	}
}

// Bookings возвращает репозиторий бронирований
func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{store: s}
}

// Idempotency возвращает репозиторий ключей идемпотентности
func (s *Store) Idempotency() *IdempotencyRepository {
	return &IdempotencyRepository{store: s}
}

// Outbox возвращает репозиторий outbox
func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{store: s}
}

// Schedules возвращает репозиторий расписаний
func (s *Store) Schedules() *ScheduleRepository {
	return &ScheduleRepository{store: s}
}

// TxManager возвращает менеджер транзакций хранилища
func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

type txKey struct{}

// memTx активная транзакция и журнал отката
type memTx struct {
	store *Store
	undo  []func()
}

func (t *memTx) onRollback(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

// acquire берёт мьютекс, если вызов не внутри транзакции этого хранилища
func (s *Store) acquire(ctx context.Context) (*memTx, func()) {
	if tx, ok := ctx.Value(txKey{}).(*memTx); ok && tx.store == s {
		return tx, func() {}
	}
	s.mu.Lock()
	return nil, s.mu.Unlock
}

func (s *Store) inTx(ctx context.Context) bool {
	tx, ok := ctx.Value(txKey{}).(*memTx)
	return ok && tx.store == s
}

// TxManager транзакции поверх Store. Вложенный вызов присоединяется к внешней транзакции.
type TxManager struct {
	store *Store
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if m.store.inTx(ctx) {
		return fn(ctx)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	tx := &memTx{store: m.store}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		tx.rollback()
		return err
	}
	return nil
}

func copyBooking(b *domain.Booking) *domain.Booking {
	c := *b
	return &c
}
