package get_availability

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	getAvailableSlots "github.com/m04kA/SMC-BeautyBooking/internal/usecase/get_available_slots"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
)

type fakeUseCase struct {
	got *getAvailableSlots.Request
	err error
}

func (f *fakeUseCase) Execute(_ context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &getAvailableSlots.Response{
		ProviderID:         req.ProviderID,
		Date:               req.Date,
		GranularityMinutes: 30,
		Slots: []domain.SlotAvailability{
			{Time: 600, Occupancy: domain.SlotFree},
			{Time: 630, Occupancy: domain.SlotOccupied},
		},
	}, nil
}

func serve(uc *fakeUseCase, target string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/providers/{providerId}/availability", NewHandler(uc, time.UTC, logger.Nop()).Handle)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandle_OK(t *testing.T) {
	uc := &fakeUseCase{}

	rec := serve(uc, "/api/v1/providers/7/availability?date=2026-03-21&onlyFree=true")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, uc.got.OnlyFree)
	assert.Equal(t, int64(7), uc.got.ProviderID)

	var resp AvailabilityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "2026-03-21", resp.Date)
	assert.Equal(t, []Slot{{Time: "10:00", Status: "free"}, {Time: "10:30", Status: "occupied"}}, resp.Slots)
}

func TestHandle_BadRequests(t *testing.T) {
	for _, target := range []string{
		"/api/v1/providers/x/availability?date=2026-03-21",
		"/api/v1/providers/7/availability",
		"/api/v1/providers/7/availability?date=tomorrow",
		"/api/v1/providers/7/availability?date=2026-03-21&onlyFree=maybe",
	} {
		rec := serve(&fakeUseCase{}, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestHandle_ProviderNotFound(t *testing.T) {
	rec := serve(&fakeUseCase{err: getAvailableSlots.ErrProviderNotFound}, "/api/v1/providers/7/availability?date=2026-03-21")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
