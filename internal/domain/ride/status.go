package ride

import (
	"errors"
	"strings"
)

// Status is a ride status as stored in the `rides.status` column.
type Status string

const (
	StatusRequested  Status = "requested"
	StatusConfirmed  Status = "confirmed"
	StatusArrived    Status = "arrived"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// LiveStatuses are the statuses a ride is monitored in, in query order.
var LiveStatuses = []Status{StatusConfirmed, StatusArrived, StatusInProgress}

var ErrInvalidStatus = errors.New("invalid ride status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(in string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed ride status constants.
func (status Status) Valid() bool {
	switch status {
	case StatusRequested, StatusConfirmed, StatusArrived, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Live reports whether the ride is in one of the monitored statuses.
func (status Status) Live() bool {
	switch status {
	case StatusConfirmed, StatusArrived, StatusInProgress:
		return true
	default:
		return false
	}
}

// Started reports whether the passenger is on board.
func (status Status) Started() bool {
	return status == StatusInProgress
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}
