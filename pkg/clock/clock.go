package clock

import "time"

// Real возвращает текущее время в заданной локации.
// Нулевое значение использует time.Local.
type Real struct {
	Location *time.Location
}

// Now возвращает текущее время
func (c Real) Now() time.Time {
	if c.Location == nil {
		return time.Now()
	}
	return time.Now().In(c.Location)
}

// Fixed всегда возвращает одно и то же время. Используется в тестах.
type Fixed struct {
	At time.Time
}

// Now возвращает зафиксированное время
func (c Fixed) Now() time.Time {
	return c.At
}
