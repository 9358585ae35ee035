package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// Window рабочее окно в формате "HH:MM"
type Window struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// Holiday исключение на конкретную дату. Пустой список окон означает выходной.
type Holiday struct {
	Date    string   `json:"date"` // "2026-03-08"
	Windows []Window `json:"windows"`
}

// UpdateScheduleRequest запрос на замену расписания провайдера
type UpdateScheduleRequest struct {
	ProviderID             int64               `json:"-"`
	Actor                  domain.Actor        `json:"-"`
	WeeklyHours            map[string][]Window `json:"weeklyHours"` // ключи: monday ... sunday
	Holidays               []Holiday           `json:"holidays"`
	SlotGranularityMinutes int                 `json:"slotGranularityMinutes"`
}

// ScheduleResponse ответ с расписанием провайдера
type ScheduleResponse struct {
	ProviderID             int64               `json:"providerId"`
	WeeklyHours            map[string][]Window `json:"weeklyHours"`
	Holidays               []Holiday           `json:"holidays"`
	SlotGranularityMinutes int                 `json:"slotGranularityMinutes"`
	UpdatedAt              time.Time           `json:"updatedAt"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ToDomain конвертирует запрос в domain модель
func (r *UpdateScheduleRequest) ToDomain(loc *time.Location) (*domain.ProviderSchedule, error) {
	schedule := &domain.ProviderSchedule{
		ProviderID:             r.ProviderID,
		WeeklyHours:            make(map[time.Weekday][]domain.TimeWindow, len(r.WeeklyHours)),
		Holidays:               make([]domain.HolidayOverride, 0, len(r.Holidays)),
		SlotGranularityMinutes: r.SlotGranularityMinutes,
	}

	for name, windows := range r.WeeklyHours {
		day, ok := weekdays[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", name)
		}
		parsed, err := toDomainWindows(windows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		schedule.WeeklyHours[day] = parsed
	}

	for _, h := range r.Holidays {
		date, err := domain.ParseDate(h.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid holiday date %q", h.Date)
		}
		parsed, err := toDomainWindows(h.Windows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", h.Date, err)
		}
		schedule.Holidays = append(schedule.Holidays, domain.HolidayOverride{Date: date, Windows: parsed})
	}

	return schedule, nil
}

// FromDomainSchedule конвертирует domain модель в DTO
func FromDomainSchedule(s *domain.ProviderSchedule) *ScheduleResponse {
	if s == nil {
		return nil
	}

	resp := &ScheduleResponse{
		ProviderID:             s.ProviderID,
		WeeklyHours:            make(map[string][]Window, len(s.WeeklyHours)),
		Holidays:               make([]Holiday, 0, len(s.Holidays)),
		SlotGranularityMinutes: s.Granularity(),
		UpdatedAt:              s.UpdatedAt,
	}

	for day, windows := range s.WeeklyHours {
		resp.WeeklyHours[strings.ToLower(day.String())] = fromDomainWindows(windows)
	}

	for _, h := range s.Holidays {
		resp.Holidays = append(resp.Holidays, Holiday{
			Date:    h.Date.Format(domain.DateFormat),
			Windows: fromDomainWindows(h.Windows),
		})
	}
	sort.Slice(resp.Holidays, func(i, j int) bool {
		return resp.Holidays[i].Date < resp.Holidays[j].Date
	})

	return resp
}

func toDomainWindows(windows []Window) ([]domain.TimeWindow, error) {
	result := make([]domain.TimeWindow, len(windows))
	for i, w := range windows {
		open, err := types.ParseMinuteOfDay(w.Open)
		if err != nil {
			return nil, err
		}
		closeAt, err := types.ParseMinuteOfDay(w.Close)
		if err != nil {
			return nil, err
		}
		result[i] = domain.TimeWindow{Open: open, Close: closeAt}
	}
	return result, nil
}

func fromDomainWindows(windows []domain.TimeWindow) []Window {
	result := make([]Window, len(windows))
	for i, w := range windows {
		result[i] = Window{Open: w.Open.String(), Close: w.Close.String()}
	}
	return result
}
