package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

func TestWeeklyHoursCodec(t *testing.T) {
	hours := map[time.Weekday][]domain.TimeWindow{
		time.Monday:   {{Open: 540, Close: 720}, {Open: 840, Close: 1080}},
		time.Saturday: {{Open: 1140, Close: 1260}},
	}

	encoded, err := encodeWeeklyHours(hours)
	require.NoError(t, err)
	assert.Contains(t, encoded, `"saturday":[{"open":"19:00","close":"21:00"}]`)

	decoded, err := decodeWeeklyHours([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, hours, decoded)
}

func TestWeeklyHoursCodec_UnknownDay(t *testing.T) {
	_, err := decodeWeeklyHours([]byte(`{"funday":[]}`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestHolidaysCodec(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	holidays := []domain.HolidayOverride{
		{Date: time.Date(2026, 1, 1, 0, 0, 0, 0, loc), Windows: []domain.TimeWindow{}},
		{Date: time.Date(2026, 3, 8, 0, 0, 0, 0, loc), Windows: []domain.TimeWindow{{Open: 600, Close: 900}}},
	}

	encoded, err := encodeHolidays(holidays)
	require.NoError(t, err)

	decoded, err := decodeHolidays([]byte(encoded), loc)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	assert.True(t, decoded[0].Date.Equal(holidays[0].Date))
	assert.Empty(t, decoded[0].Windows)
	assert.Equal(t, holidays[1].Windows, decoded[1].Windows)
}

func TestDecode_Empty(t *testing.T) {
	hours, err := decodeWeeklyHours(nil)
	require.NoError(t, err)
	assert.Empty(t, hours)

	holidays, err := decodeHolidays(nil, time.UTC)
	require.NoError(t, err)
	assert.Empty(t, holidays)
}
