package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/internal/infra/storage/memory"
	"github.com/m04kA/SMC-BeautyBooking/internal/service/schedule/models"
	"github.com/m04kA/SMC-BeautyBooking/pkg/logger"
)

const providerID = int64(3)

func newService() *Service {
	return NewService(memory.NewStore().Schedules(), time.UTC, logger.Nop())
}

func validRequest(actor domain.Actor) *models.UpdateScheduleRequest {
	return &models.UpdateScheduleRequest{
		ProviderID: providerID,
		Actor:      actor,
		WeeklyHours: map[string][]models.Window{
			"monday":   {{Open: "09:00", Close: "13:00"}, {Open: "14:00", Close: "18:00"}},
			"Saturday": {{Open: "10:00", Close: "16:00"}},
		},
		Holidays: []models.Holiday{
			{Date: "2026-03-09", Windows: nil},
		},
		SlotGranularityMinutes: 30,
	}
}

func TestUpdateAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Update(ctx, validRequest(domain.Actor{UserID: providerID, Role: domain.RoleProvider}))
	require.NoError(t, err)

	resp, err := svc.Get(ctx, providerID)
	require.NoError(t, err)

	assert.Equal(t, 30, resp.SlotGranularityMinutes)
	assert.Len(t, resp.WeeklyHours["monday"], 2)
	assert.Equal(t, models.Window{Open: "10:00", Close: "16:00"}, resp.WeeklyHours["saturday"][0])
	require.Len(t, resp.Holidays, 1)
	assert.Equal(t, "2026-03-09", resp.Holidays[0].Date)
	assert.Empty(t, resp.Holidays[0].Windows)
}

func TestUpdate_AdminAllowed(t *testing.T) {
	svc := newService()

	_, err := svc.Update(context.Background(), validRequest(domain.Actor{UserID: 1, Role: domain.RoleAdmin}))
	require.NoError(t, err)
}

func TestUpdate_Forbidden(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Update(ctx, validRequest(domain.Actor{UserID: providerID + 1, Role: domain.RoleProvider}))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Update(ctx, validRequest(domain.Actor{UserID: providerID, Role: domain.RoleClient}))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdate_Validation(t *testing.T) {
	owner := domain.Actor{UserID: providerID, Role: domain.RoleProvider}

	tests := []struct {
		name   string
		mutate func(r *models.UpdateScheduleRequest)
	}{
		{"overlapping windows", func(r *models.UpdateScheduleRequest) {
			r.WeeklyHours["monday"] = []models.Window{{Open: "09:00", Close: "13:00"}, {Open: "12:00", Close: "15:00"}}
		}},
		{"overnight window", func(r *models.UpdateScheduleRequest) {
			r.WeeklyHours["friday"] = []models.Window{{Open: "22:00", Close: "02:00"}}
		}},
		{"bad time format", func(r *models.UpdateScheduleRequest) {
			r.WeeklyHours["friday"] = []models.Window{{Open: "9am", Close: "18:00"}}
		}},
		{"unknown weekday", func(r *models.UpdateScheduleRequest) {
			r.WeeklyHours["funday"] = []models.Window{{Open: "09:00", Close: "18:00"}}
		}},
		{"granularity does not divide day", func(r *models.UpdateScheduleRequest) {
			r.SlotGranularityMinutes = 7
		}},
		{"duplicate holiday", func(r *models.UpdateScheduleRequest) {
			r.Holidays = append(r.Holidays, models.Holiday{Date: "2026-03-09"})
		}},
		{"bad holiday date", func(r *models.UpdateScheduleRequest) {
			r.Holidays = []models.Holiday{{Date: "09.03.2026"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest(owner)
			tt.mutate(req)

			_, err := newService().Update(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := newService().Get(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	owner := domain.Actor{UserID: providerID, Role: domain.RoleProvider}

	_, err := svc.Update(ctx, validRequest(owner))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, providerID, domain.Actor{UserID: 9, Role: domain.RoleClient}), domain.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, providerID, owner))
	assert.ErrorIs(t, svc.Delete(ctx, providerID, owner), ErrScheduleNotFound)
}
