package domain

import "github.com/m04kA/SMC-BeautyBooking/pkg/types"

// Occupancy состояние слота
type Occupancy string

const (
	SlotFree     Occupancy = "free"
	SlotOccupied Occupancy = "occupied"
)

// SlotAvailability слот сетки и его занятость
type SlotAvailability struct {
	Time      types.MinuteOfDay
	Occupancy Occupancy
}

// IsFree returns true if no active booking holds the slot
func (s SlotAvailability) IsFree() bool {
	return s.Occupancy == SlotFree
}
