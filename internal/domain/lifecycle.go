package domain

import (
	"fmt"
	"time"
)

// Action действие над существующим бронированием
type Action string

const (
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionCancel   Action = "cancel"
	ActionComplete Action = "complete"
)

// IsValid returns true for a known action
func (a Action) IsValid() bool {
	switch a {
	case ActionAccept, ActionDecline, ActionCancel, ActionComplete:
		return true
	}
	return false
}

// ErrBookingTerminal бронирование отменено или завершено.
// Совпадает и с ErrInvalidTransition, и с ErrForbidden.
var ErrBookingTerminal = fmt.Errorf("%w: %w: booking is in a terminal status", ErrInvalidTransition, ErrForbidden)

// edge ребро автомата состояний и роли, которым оно доступно
type edge struct {
	to    BookingStatus
	roles []Role
}

// transitions полная таблица переходов. Всё, чего в ней нет, запрещено.
var transitions = map[BookingStatus]map[Action]edge{
	StatusPending: {
		ActionAccept:  {to: StatusConfirmed, roles: []Role{RoleProvider, RoleAdmin}},
		ActionDecline: {to: StatusCancelled, roles: []Role{RoleProvider, RoleAdmin}},
		ActionCancel:  {to: StatusCancelled, roles: []Role{RoleClient, RoleAdmin}},
	},
	StatusConfirmed: {
		ActionCancel:   {to: StatusCancelled, roles: []Role{RoleClient, RoleProvider, RoleAdmin}},
		ActionComplete: {to: StatusCompleted, roles: []Role{RoleProvider, RoleSystem, RoleAdmin}},
	},
	StatusCancelled: {},
	StatusCompleted: {},
}

// NextStatus возвращает статус, в который переводит action
func NextStatus(from BookingStatus, action Action) (BookingStatus, error) {
	if from.IsTerminal() {
		return "", ErrBookingTerminal
	}
	e, ok := transitions[from][action]
	if !ok {
		return "", fmt.Errorf("%w: %s from %s", ErrInvalidTransition, action, from)
	}
	return e.to, nil
}

// Authorize проверяет право актора выполнить action над бронированием.
// Порядок проверок: принадлежность, допустимость перехода, роль на ребре, срок.
func Authorize(actor Actor, b *Booking, action Action, now time.Time) (BookingStatus, error) {
	if !actor.IsPrivileged() && !actor.IsParty(b) {
		return "", ErrForbidden
	}

	to, err := NextStatus(b.Status, action)
	if err != nil {
		return "", err
	}

	e := transitions[b.Status][action]
	if !hasRole(e.roles, actor.Role) {
		return "", fmt.Errorf("%w: %s cannot %s a %s booking", ErrForbidden, actor.Role, action, b.Status)
	}

	if action == ActionComplete && now.Before(b.StartsAt()) {
		return "", ErrNotYetDue
	}

	return to, nil
}

func hasRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
