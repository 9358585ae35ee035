package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-BeautyBooking/pkg/types"
)

func testBooking(status BookingStatus) *Booking {
	return &Booking{
		ID:         uuid.New(),
		ProviderID: 10,
		ClientID:   20,
		ServiceID:  30,
		Date:       time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Time:       types.NewMinuteOfDay(10, 0),
		Status:     status,
	}
}

var (
	client   = Actor{UserID: 20, Role: RoleClient}
	provider = Actor{UserID: 10, Role: RoleProvider}
	admin    = Actor{UserID: 1, Role: RoleAdmin}
	stranger = Actor{UserID: 99, Role: RoleClient}
	later    = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	earlier  = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
)

func TestNextStatus_Table(t *testing.T) {
	tests := []struct {
		from    BookingStatus
		action  Action
		want    BookingStatus
		wantErr error
	}{
		{StatusPending, ActionAccept, StatusConfirmed, nil},
		{StatusPending, ActionDecline, StatusCancelled, nil},
		{StatusPending, ActionCancel, StatusCancelled, nil},
		{StatusPending, ActionComplete, "", ErrInvalidTransition},
		{StatusConfirmed, ActionCancel, StatusCancelled, nil},
		{StatusConfirmed, ActionComplete, StatusCompleted, nil},
		{StatusConfirmed, ActionAccept, "", ErrInvalidTransition},
		{StatusConfirmed, ActionDecline, "", ErrInvalidTransition},
		{StatusCancelled, ActionCancel, "", ErrInvalidTransition},
		{StatusCompleted, ActionCancel, "", ErrInvalidTransition},
		{StatusCompleted, ActionComplete, "", ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.action), func(t *testing.T) {
			got, err := NextStatus(tt.from, tt.action)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextStatus_TerminalIsBookingTerminal(t *testing.T) {
	_, err := NextStatus(StatusCompleted, ActionAccept)
	assert.ErrorIs(t, err, ErrBookingTerminal)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = NextStatus(StatusCancelled, ActionCancel)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorize(t *testing.T) {
	tests := []struct {
		name    string
		actor   Actor
		status  BookingStatus
		action  Action
		now     time.Time
		want    BookingStatus
		wantErr error
	}{
		{"provider accepts pending", provider, StatusPending, ActionAccept, later, StatusConfirmed, nil},
		{"client cannot accept", client, StatusPending, ActionAccept, later, "", ErrForbidden},
		{"admin declines pending", admin, StatusPending, ActionDecline, later, StatusCancelled, nil},
		{"client cancels pending", client, StatusPending, ActionCancel, later, StatusCancelled, nil},
		{"provider cannot cancel pending", provider, StatusPending, ActionCancel, later, "", ErrForbidden},
		{"provider cancels confirmed", provider, StatusConfirmed, ActionCancel, later, StatusCancelled, nil},
		{"client cancels confirmed", client, StatusConfirmed, ActionCancel, later, StatusCancelled, nil},
		{"stranger forbidden", stranger, StatusConfirmed, ActionCancel, later, "", ErrForbidden},
		{"foreign provider forbidden", Actor{UserID: 11, Role: RoleProvider}, StatusPending, ActionAccept, later, "", ErrForbidden},
		{"complete before start", provider, StatusConfirmed, ActionComplete, earlier, "", ErrNotYetDue},
		{"complete after start", provider, StatusConfirmed, ActionComplete, later, StatusCompleted, nil},
		{"system completes", SystemActor, StatusConfirmed, ActionComplete, later, StatusCompleted, nil},
		{"client cannot complete", client, StatusConfirmed, ActionComplete, later, "", ErrForbidden},
		{"completed rejects cancel", admin, StatusCompleted, ActionCancel, later, "", ErrInvalidTransition},
		{"stranger on terminal still forbidden", stranger, StatusCancelled, ActionCancel, later, "", ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Authorize(tt.actor, testBooking(tt.status), tt.action, tt.now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReservationFlow_InitialStatus(t *testing.T) {
	s, ok := FlowSelfService.InitialStatus()
	require.True(t, ok)
	assert.Equal(t, StatusConfirmed, s)

	s, ok = FlowNegotiated.InitialStatus()
	require.True(t, ok)
	assert.Equal(t, StatusPending, s)

	_, ok = ReservationFlow("instant").InitialStatus()
	assert.False(t, ok)
}

func TestLifecycleEvent_Type(t *testing.T) {
	b := testBooking(StatusConfirmed)

	created := NewLifecycleEvent(b, "", SystemActor, later)
	assert.Equal(t, "booking.created", created.EventType())

	b.Status = StatusCancelled
	cancelled := NewLifecycleEvent(b, StatusConfirmed, client, later)
	assert.Equal(t, "booking.cancelled", cancelled.EventType())
	assert.Equal(t, StatusConfirmed, cancelled.From)
	assert.Equal(t, StatusCancelled, cancelled.To)
}

func TestTimeWindow(t *testing.T) {
	w := TimeWindow{Open: types.NewMinuteOfDay(9, 0), Close: types.NewMinuteOfDay(12, 0)}
	assert.True(t, w.IsValid())
	assert.False(t, TimeWindow{Open: 600, Close: 600}.IsValid())
	assert.False(t, TimeWindow{Open: 1380, Close: 60}.IsValid())

	assert.True(t, w.Overlaps(TimeWindow{Open: types.NewMinuteOfDay(11, 0), Close: types.NewMinuteOfDay(13, 0)}))
	assert.False(t, w.Overlaps(TimeWindow{Open: types.NewMinuteOfDay(12, 0), Close: types.NewMinuteOfDay(13, 0)}))
}
