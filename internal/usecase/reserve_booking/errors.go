package reserve_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reserve_booking: invalid input data")

	// ErrServiceNotFound возвращается, когда услуга не найдена или принадлежит другому провайдеру
	ErrServiceNotFound = errors.New("reserve_booking: service not found")

	// ErrProviderNotFound возвращается, когда у провайдера нет расписания
	ErrProviderNotFound = errors.New("reserve_booking: provider schedule not found")

	// ErrCatalogUnavailable возвращается, когда каталог услуг недоступен
	ErrCatalogUnavailable = errors.New("reserve_booking: catalog unavailable")

	// ErrIdempotencyKeyReused возвращается, когда ключ уже использован с другими параметрами
	ErrIdempotencyKeyReused = errors.New("reserve_booking: idempotency key reused with different parameters")
)
