package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор prometheus-метрик сервиса.
// Каждый экземпляр владеет собственным реестром.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration  *prometheus.HistogramVec
	DBQueryErrors    *prometheus.CounterVec
	DBOpenConns      *prometheus.GaugeVec
	DBInUseConns     *prometheus.GaugeVec
	DBIdleConns      *prometheus.GaugeVec
	DBWaitCountTotal *prometheus.GaugeVec

	ReservationsTotal *prometheus.CounterVec
	TransitionsTotal  *prometheus.CounterVec
	OutboxPublished   *prometheus.CounterVec
	RateLimited       *prometheus.CounterVec

	service string
}

// New создает и регистрирует метрики сервиса
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		service:  serviceName,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"service", "operation"}),

		DBQueryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),

		DBOpenConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),

		DBInUseConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),

		DBIdleConns: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),

		DBWaitCountTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count_total",
			Help: "Total number of connections waited for",
		}, []string{"service"}),

		ReservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_reservations_total",
			Help: "Reservation attempts by outcome",
		}, []string{"service", "outcome"}),

		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Booking status transitions",
		}, []string{"service", "action", "from", "to"}),

		OutboxPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_outbox_published_total",
			Help: "Lifecycle events published from the outbox",
		}, []string{"service", "result"}),

		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}, []string{"service", "route"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrors,
		m.DBOpenConns,
		m.DBInUseConns,
		m.DBIdleConns,
		m.DBWaitCountTotal,
		m.ReservationsTotal,
		m.TransitionsTotal,
		m.OutboxPublished,
		m.RateLimited,
	)

	return m
}

// Handler возвращает HTTP handler для эндпоинта /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveHTTP записывает метрики HTTP запроса
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.service, method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.service, method, route).Observe(elapsed.Seconds())
}

// ObserveReservation учитывает исход попытки бронирования
func (m *Metrics) ObserveReservation(outcome string) {
	m.ReservationsTotal.WithLabelValues(m.service, outcome).Inc()
}

// ObserveTransition учитывает переход статуса бронирования
func (m *Metrics) ObserveTransition(action, from, to string) {
	m.TransitionsTotal.WithLabelValues(m.service, action, from, to).Inc()
}

// ObserveOutboxPublish учитывает результат публикации события
func (m *Metrics) ObserveOutboxPublish(result string, n int) {
	m.OutboxPublished.WithLabelValues(m.service, result).Add(float64(n))
}

// ObserveRateLimited учитывает отклонённый лимитером запрос
func (m *Metrics) ObserveRateLimited(route string) {
	m.RateLimited.WithLabelValues(m.service, route).Inc()
}

// Noop реализация интерфейсов наблюдения, когда метрики выключены
type Noop struct{}

func (Noop) ObserveReservation(string)               {}
func (Noop) ObserveTransition(string, string, string) {}
func (Noop) ObserveOutboxPublish(string, int)         {}
func (Noop) ObserveRateLimited(string)                {}
