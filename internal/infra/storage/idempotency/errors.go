package idempotency

import "errors"

var (
	// ErrKeyNotFound возвращается, когда ключ идемпотентности не найден
	ErrKeyNotFound = errors.New("idempotency.repository: key not found")

	// ErrNotInTransaction возвращается, когда захват ключа вызван вне транзакции
	ErrNotInTransaction = errors.New("idempotency.repository: claim requires a transaction")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("idempotency.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("idempotency.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("idempotency.repository: failed to scan row")
)
