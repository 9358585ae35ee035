package change_booking_status

// ChangeStatusRequest HTTP request model, тело необязательно
type ChangeStatusRequest struct {
	Reason *string `json:"reason,omitempty"`
}
