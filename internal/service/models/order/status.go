package order

import (
	"database/sql/driver"
	"errors"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid status")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

// IsTerminal reports whether the status allows no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusFulfilled || s == StatusCancelled
}

// CanTransitionTo reports whether the move from s to next is allowed.
// Orders only ever move forward: a pending order becomes fulfilled or
// cancelled, terminal orders stay where they are.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusPending && next.IsTerminal()
}

func ParseStatus(v string) (Status, error) {
	switch v {
	case StatusPending.String():
		return StatusPending, nil
	case StatusFulfilled.String():
		return StatusFulfilled, nil
	case StatusCancelled.String():
		return StatusCancelled, nil
	default:
		return "", ErrInvalidStatus
	}
}
