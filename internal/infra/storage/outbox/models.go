package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/m04kA/SMC-BeautyBooking/internal/domain"
)

// EventPayload JSON-представление события жизненного цикла для потребителей
type EventPayload struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	BookingID  string    `json:"booking_id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    int64     `json:"actor_id"`
	ActorRole  string    `json:"actor_role"`
	Reason     string    `json:"reason,omitempty"`
	ProviderID int64     `json:"provider_id"`
	ClientID   int64     `json:"client_id"`
	Date       string    `json:"date"`
	Time       string    `json:"time"`
	Timestamp  time.Time `json:"timestamp"`
}

// EncodeEvent сериализует событие
func EncodeEvent(event domain.LifecycleEvent) ([]byte, error) {
	payload := EventPayload{
		EventID:    event.EventID.String(),
		EventType:  event.EventType(),
		BookingID:  event.BookingID.String(),
		FromStatus: string(event.From),
		ToStatus:   string(event.To),
		ActorID:    event.Actor.UserID,
		ActorRole:  string(event.Actor.Role),
		Reason:     event.Reason,
		ProviderID: event.ProviderID,
		ClientID:   event.ClientID,
		Date:       event.Date.Format(domain.DateFormat),
		Time:       event.Time.String(),
		Timestamp:  event.Timestamp.UTC(),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncodePayload, err)
	}
	return data, nil
}
