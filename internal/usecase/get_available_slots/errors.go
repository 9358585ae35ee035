package get_available_slots

import "errors"

var (
	// ErrProviderNotFound возвращается, когда у провайдера нет расписания
	ErrProviderNotFound = errors.New("provider schedule not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("usecase: internal error")
)
