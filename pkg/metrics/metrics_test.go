package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("beauty-booking")

	m.ObserveReservation("success")
	m.ObserveReservation("success")
	m.ObserveReservation("slot_unavailable")
	m.ObserveTransition("accept", "pending", "confirmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReservationsTotal.WithLabelValues("beauty-booking", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReservationsTotal.WithLabelValues("beauty-booking", "slot_unavailable")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("beauty-booking", "accept", "pending", "confirmed")))
}

func TestMetrics_IndependentRegistries(t *testing.T) {
	first := New("a")
	second := New("b")

	first.ObserveHTTP(http.MethodGet, "/x", "200", 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(first.HTTPRequestsTotal.WithLabelValues("a", http.MethodGet, "/x", "200")))
	assert.Equal(t, 0, testutil.CollectAndCount(second.HTTPRequestsTotal))
}

func TestMetrics_Handler(t *testing.T) {
	m := New("beauty-booking")
	m.ObserveReservation("success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "booking_reservations_total")
}
