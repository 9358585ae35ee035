package change_booking_status

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/internal/api/middleware"
	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/bookings/models"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
)

type fakeService struct {
	action domain.Action
	reason *string
	err    error
}

func (f *fakeService) result(action domain.Action, id uuid.UUID, status domain.BookingStatus) (*models.BookingResponse, error) {
	f.action = action
	if f.err != nil {
		return nil, f.err
	}
	return &models.BookingResponse{ID: id.String(), Status: string(status)}, nil
}

func (f *fakeService) Accept(_ context.Context, id uuid.UUID, _ domain.Actor) (*models.BookingResponse, error) {
	return f.result(domain.ActionAccept, id, domain.StatusConfirmed)
}

func (f *fakeService) Decline(_ context.Context, id uuid.UUID, _ domain.Actor, reason *string) (*models.BookingResponse, error) {
	f.reason = reason
	return f.result(domain.ActionDecline, id, domain.StatusCancelled)
}

func (f *fakeService) Cancel(_ context.Context, id uuid.UUID, _ domain.Actor, reason *string) (*models.BookingResponse, error) {
	f.reason = reason
	return f.result(domain.ActionCancel, id, domain.StatusCancelled)
}

func (f *fakeService) Complete(_ context.Context, id uuid.UUID, _ domain.Actor) (*models.BookingResponse, error) {
	return f.result(domain.ActionComplete, id, domain.StatusCompleted)
}

func serve(svc *fakeService, action domain.Action, id, payload string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	router.HandleFunc("/api/v1/bookings/{bookingId}/"+string(action), NewHandler(svc, action, logger.Nop()).Handle).
		Methods(http.MethodPatch)

	var req *http.Request
	if payload == "" {
		req = httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/"+id+"/"+string(action), nil)
	} else {
		req = httptest.NewRequest(http.MethodPatch, "/api/v1/bookings/"+id+"/"+string(action), strings.NewReader(payload))
	}
	req = req.WithContext(middleware.WithActor(req.Context(), domain.Actor{UserID: 7, Role: domain.RoleProvider}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandle_Actions(t *testing.T) {
	for _, action := range []domain.Action{domain.ActionAccept, domain.ActionDecline, domain.ActionCancel, domain.ActionComplete} {
		t.Run(string(action), func(t *testing.T) {
			svc := &fakeService{}
			rec := serve(svc, action, uuid.NewString(), "")

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, action, svc.action)
		})
	}
}

func TestHandle_ReasonPassed(t *testing.T) {
	svc := &fakeService{}

	rec := serve(svc, domain.ActionCancel, uuid.NewString(), `{"reason":"заболела"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.reason)
	assert.Equal(t, "заболела", *svc.reason)
}

func TestHandle_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		payload string
		err     error
		want    int
	}{
		{name: "bad id", id: "42", want: http.StatusBadRequest},
		{name: "bad body", id: uuid.NewString(), payload: `{"reason":1}`, want: http.StatusBadRequest},
		{name: "not found", id: uuid.NewString(), err: domain.ErrNotFound, want: http.StatusNotFound},
		{name: "forbidden", id: uuid.NewString(), err: fmt.Errorf("%w: role", domain.ErrForbidden), want: http.StatusForbidden},
		{name: "not yet due", id: uuid.NewString(), err: domain.ErrNotYetDue, want: http.StatusTooEarly},
		{name: "terminal", id: uuid.NewString(), err: domain.ErrInvalidTransition, want: http.StatusConflict},
		{name: "storage down", id: uuid.NewString(), err: domain.ErrUnknown, want: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(&fakeService{err: tt.err}, domain.ActionComplete, tt.id, tt.payload)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
