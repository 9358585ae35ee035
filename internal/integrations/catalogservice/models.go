package catalogservice

// Service услуга провайдера из каталога
type Service struct {
	ID              int64   `json:"id"`
	ProviderID      int64   `json:"provider_id"`
	Name            string  `json:"name"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
}

// ErrorResponse модель ошибки от сервиса каталога
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
