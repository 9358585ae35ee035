package schedule

import "errors"

var (
	// ErrScheduleNotFound возвращается, когда расписание провайдера не найдено
	ErrScheduleNotFound = errors.New("schedule.repository: schedule not found")

	// ErrEncode возвращается при ошибке сериализации окон расписания
	ErrEncode = errors.New("schedule.repository: failed to encode windows")

	// ErrDecode возвращается при ошибке разбора окон расписания
	ErrDecode = errors.New("schedule.repository: failed to decode windows")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("schedule.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("schedule.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("schedule.repository: failed to scan row")
)
