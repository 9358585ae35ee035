package schedule

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

// windowRow окно в JSONB-колонке
type windowRow struct {
	Open  types.MinuteOfDay `json:"open"`
	Close types.MinuteOfDay `json:"close"`
}

// holidayRow исключение в JSONB-колонке
type holidayRow struct {
	Date    string      `json:"date"`
	Windows []windowRow `json:"windows"`
}

var weekdayByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func encodeWeeklyHours(hours map[time.Weekday][]domain.TimeWindow) (string, error) {
	rows := make(map[string][]windowRow, len(hours))
	for day, windows := range hours {
		rows[strings.ToLower(day.String())] = toWindowRows(windows)
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return string(data), nil
}

func decodeWeeklyHours(data []byte) (map[time.Weekday][]domain.TimeWindow, error) {
	rows := make(map[string][]windowRow)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: weekly hours: %v", ErrDecode, err)
		}
	}

	hours := make(map[time.Weekday][]domain.TimeWindow, len(rows))
	for name, windows := range rows {
		day, ok := weekdayByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrDecode, name)
		}
		hours[day] = fromWindowRows(windows)
	}
	return hours, nil
}

func encodeHolidays(holidays []domain.HolidayOverride) (string, error) {
	rows := make([]holidayRow, len(holidays))
	for i, h := range holidays {
		rows[i] = holidayRow{Date: h.Date.Format(domain.DateFormat), Windows: toWindowRows(h.Windows)}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncode, err)
	}
	return string(data), nil
}

func decodeHolidays(data []byte, loc *time.Location) ([]domain.HolidayOverride, error) {
	rows := make([]holidayRow, 0)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: holidays: %v", ErrDecode, err)
		}
	}

	holidays := make([]domain.HolidayOverride, len(rows))
	for i, row := range rows {
		date, err := domain.ParseDate(row.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: holiday date %q: %v", ErrDecode, row.Date, err)
		}
		holidays[i] = domain.HolidayOverride{Date: date, Windows: fromWindowRows(row.Windows)}
	}
	return holidays, nil
}

func toWindowRows(windows []domain.TimeWindow) []windowRow {
	rows := make([]windowRow, len(windows))
	for i, w := range windows {
		rows[i] = windowRow{Open: w.Open, Close: w.Close}
	}
	return rows
}

func fromWindowRows(rows []windowRow) []domain.TimeWindow {
	windows := make([]domain.TimeWindow, len(rows))
	for i, r := range rows {
		windows[i] = domain.TimeWindow{Open: r.Open, Close: r.Close}
	}
	return windows
}
