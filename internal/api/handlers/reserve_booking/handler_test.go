package reserve_booking

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/internal/api/middleware"
	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	reserveBooking "github.com/m04kA/SMC-BeautyBooking/internal/usecase/reserve_booking"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

type fakeUseCase struct {
	got      *reserveBooking.Request
	err      error
	replayed bool
}

func (f *fakeUseCase) Execute(_ context.Context, req *reserveBooking.Request) (*reserveBooking.Response, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &reserveBooking.Response{
		Booking: &domain.Booking{
			ID:         uuid.New(),
			ProviderID: req.ProviderID,
			ClientID:   req.ClientID,
			ServiceID:  req.ServiceID,
			Date:       req.Date,
			Time:       req.Time,
			Status:     req.InitialStatus,
		},
		Replayed: f.replayed,
	}, nil
}

const body = `{"providerId":7,"serviceId":3,"date":"2026-03-21","time":"19:00","flow":"self_service"}`

func serve(t *testing.T, uc *fakeUseCase, actor *domain.Actor, key, payload string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(payload))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	if actor != nil {
		req = req.WithContext(middleware.WithActor(req.Context(), *actor))
	}
	rec := httptest.NewRecorder()
	NewHandler(uc, time.UTC, logger.Nop()).Handle(rec, req)
	return rec
}

func TestHandle_Created(t *testing.T) {
	uc := &fakeUseCase{}
	client := domain.Actor{UserID: 42, Role: domain.RoleClient}

	rec := serve(t, uc, &client, "k-1", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, uc.got)
	assert.Equal(t, int64(42), uc.got.ClientID)
	assert.Equal(t, domain.StatusConfirmed, uc.got.InitialStatus)
	assert.Equal(t, types.MinuteOfDay(19*60), uc.got.Time)
	assert.Equal(t, "k-1", uc.got.IdempotencyKey)

	var resp ReserveBookingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, "19:00", resp.Time)
	assert.False(t, resp.Replayed)
}

func TestHandle_NegotiatedByDefault(t *testing.T) {
	uc := &fakeUseCase{}
	client := domain.Actor{UserID: 42, Role: domain.RoleClient}

	rec := serve(t, uc, &client, "k-1", `{"providerId":7,"serviceId":3,"date":"2026-03-21","time":"19:00"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.StatusPending, uc.got.InitialStatus)
}

func TestHandle_Replay(t *testing.T) {
	uc := &fakeUseCase{replayed: true}
	client := domain.Actor{UserID: 42, Role: domain.RoleClient}

	rec := serve(t, uc, &client, "k-1", body)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandle_Rejections(t *testing.T) {
	client := domain.Actor{UserID: 42, Role: domain.RoleClient}
	otherProvider := domain.Actor{UserID: 8, Role: domain.RoleProvider}
	admin := domain.Actor{UserID: 1, Role: domain.RoleAdmin}

	tests := []struct {
		name    string
		actor   *domain.Actor
		key     string
		payload string
		err     error
		want    int
	}{
		{name: "no actor", key: "k", payload: body, want: http.StatusUnauthorized},
		{name: "missing key", actor: &client, payload: body, want: http.StatusBadRequest},
		{name: "broken json", actor: &client, key: "k", payload: `{`, want: http.StatusBadRequest},
		{name: "bad date", actor: &client, key: "k", payload: `{"providerId":7,"serviceId":3,"date":"21.03.2026","time":"19:00"}`, want: http.StatusBadRequest},
		{name: "bad time", actor: &client, key: "k", payload: `{"providerId":7,"serviceId":3,"date":"2026-03-21","time":"7pm"}`, want: http.StatusBadRequest},
		{name: "bad flow", actor: &client, key: "k", payload: `{"providerId":7,"serviceId":3,"date":"2026-03-21","time":"19:00","flow":"auction"}`, want: http.StatusBadRequest},
		{name: "client books for another", actor: &client, key: "k", payload: `{"providerId":7,"serviceId":3,"clientId":5,"date":"2026-03-21","time":"19:00"}`, want: http.StatusForbidden},
		{name: "provider books into foreign calendar", actor: &otherProvider, key: "k", payload: `{"providerId":7,"serviceId":3,"clientId":5,"date":"2026-03-21","time":"19:00"}`, want: http.StatusForbidden},
		{name: "admin without client", actor: &admin, key: "k", payload: body, want: http.StatusBadRequest},
		{name: "slot taken", actor: &client, key: "k", payload: body, err: fmt.Errorf("insert: %w", domain.ErrSlotUnavailable), want: http.StatusConflict},
		{name: "off grid", actor: &client, key: "k", payload: body, err: domain.ErrInvalidSlot, want: http.StatusBadRequest},
		{name: "expired", actor: &client, key: "k", payload: body, err: domain.ErrSlotExpired, want: http.StatusConflict},
		{name: "unknown", actor: &client, key: "k", payload: body, err: fmt.Errorf("%w: timeout", domain.ErrUnknown), want: http.StatusServiceUnavailable},
		{name: "key reused", actor: &client, key: "k", payload: body, err: reserveBooking.ErrIdempotencyKeyReused, want: http.StatusUnprocessableEntity},
		{name: "service not found", actor: &client, key: "k", payload: body, err: reserveBooking.ErrServiceNotFound, want: http.StatusNotFound},
		{name: "catalog down", actor: &client, key: "k", payload: body, err: reserveBooking.ErrCatalogUnavailable, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, &fakeUseCase{err: tt.err}, tt.actor, tt.key, tt.payload)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestHandle_ProviderBooksWalkIn(t *testing.T) {
	uc := &fakeUseCase{}
	provider := domain.Actor{UserID: 7, Role: domain.RoleProvider}

	rec := serve(t, uc, &provider, "k-1", `{"providerId":7,"serviceId":3,"clientId":5,"date":"2026-03-21","time":"19:00","flow":"self_service"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int64(5), uc.got.ClientID)
}
