package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MinutesPerDay количество минут в сутках
const MinutesPerDay = 24 * 60

var (
	// ErrInvalidFormat возвращается при некорректном формате времени
	ErrInvalidFormat = errors.New("invalid time string format")

	// ErrOutOfRange возвращается, когда значение выходит за пределы суток
	ErrOutOfRange = errors.New("minute of day out of range")
)

// MinuteOfDay время внутри календарного дня в минутах от полуночи (0..1439).
// Значение 1440 допускается только как граница закрытия окна ("24:00").
type MinuteOfDay int

// NewMinuteOfDay создаёт MinuteOfDay из часов и минут
func NewMinuteOfDay(hour, minute int) MinuteOfDay {
	return MinuteOfDay(hour*60 + minute)
}

// MinuteOfDayFromTime возвращает минуту суток для момента времени в его локации
func MinuteOfDayFromTime(t time.Time) MinuteOfDay {
	return MinuteOfDay(t.Hour()*60 + t.Minute())
}

// ParseMinuteOfDay парсит строку формата "HH:MM".
// "24:00" принимается как конец суток.
func ParseMinuteOfDay(s string) (MinuteOfDay, error) {
	var hour, minute int
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if minute < 0 || minute > 59 || hour < 0 || hour > 24 || (hour == 24 && minute != 0) {
		return 0, fmt.Errorf("%w: %q", ErrOutOfRange, s)
	}
	return NewMinuteOfDay(hour, minute), nil
}

// Hour возвращает час
func (m MinuteOfDay) Hour() int {
	return int(m) / 60
}

// Minute возвращает минуты внутри часа
func (m MinuteOfDay) Minute() int {
	return int(m) % 60
}

// Validate проверяет, что значение лежит в пределах суток (включая границу 24:00)
func (m MinuteOfDay) Validate() error {
	if m < 0 || m > MinutesPerDay {
		return fmt.Errorf("%w: %d", ErrOutOfRange, int(m))
	}
	return nil
}

// AddMinutes возвращает время, сдвинутое на n минут.
// Переход через полночь не поддерживается.
func (m MinuteOfDay) AddMinutes(n int) (MinuteOfDay, error) {
	res := m + MinuteOfDay(n)
	if err := res.Validate(); err != nil {
		return 0, err
	}
	return res, nil
}

// IsBefore возвращает true, если m строго раньше other
func (m MinuteOfDay) IsBefore(other MinuteOfDay) bool {
	return m < other
}

// IsAfter возвращает true, если m строго позже other
func (m MinuteOfDay) IsAfter(other MinuteOfDay) bool {
	return m > other
}

// On возвращает момент времени на указанную дату в локации даты
func (m MinuteOfDay) On(date time.Time) time.Time {
	y, mon, d := date.Date()
	return time.Date(y, mon, d, m.Hour(), m.Minute(), 0, 0, date.Location())
}

// String форматирует значение как "HH:MM"
func (m MinuteOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", m.Hour(), m.Minute())
}

// MarshalJSON сериализует значение как строку "HH:MM"
func (m MinuteOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON принимает строку "HH:MM"
func (m *MinuteOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	parsed, err := ParseMinuteOfDay(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value реализует driver.Valuer, в БД хранится целое число минут
func (m MinuteOfDay) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan реализует sql.Scanner
func (m *MinuteOfDay) Scan(src interface{}) error {
	switch v := src.(type) {
	case int64:
		*m = MinuteOfDay(v)
	case int32:
		*m = MinuteOfDay(v)
	case []byte:
		var n int
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		*m = MinuteOfDay(n)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrInvalidFormat, src)
	}
	return m.Validate()
}
