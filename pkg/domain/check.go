package domain

import (
	"time"

	"github.com/google/uuid"
)

// CheckID uniquely identifies a stored anagram check.
type CheckID uuid.UUID

// String returns the canonical UUID form of the ID.
func (id CheckID) String() string { return uuid.UUID(id).String() }

// CheckStatus represents the lifecycle state of a check.
type CheckStatus string

const (
	// CheckStatusPending indicates the check was enqueued but not processed yet.
	CheckStatusPending CheckStatus = "PENDING"
	// CheckStatusCompleted indicates the check finished and Result is set.
	CheckStatusCompleted CheckStatus = "COMPLETED"
	// CheckStatusFailed indicates processing gave up; see LastError and Attempts.
	CheckStatusFailed CheckStatus = "FAILED"
)

// Valid reports whether s is one of the known statuses.
func (s CheckStatus) Valid() bool {
	switch s {
	case CheckStatusPending, CheckStatusCompleted, CheckStatusFailed:
		return true
	default:
		return false
	}
}

// CheckResult is the outcome of comparing the two inputs of a check. The
// lowercase and sorted forms are empty when LengthMismatch is set.
type CheckResult struct {
	Anagram        bool   `json:"anagram"`
	LengthMismatch bool   `json:"lengthMismatch,omitempty"`
	LowerA         string `json:"lowerA,omitempty"`
	LowerB         string `json:"lowerB,omitempty"`
	SortedA        string `json:"sortedA,omitempty"`
	SortedB        string `json:"sortedB,omitempty"`
}

// Check is a single request to compare two strings and its current state.
type Check struct {
	ID     CheckID `json:"id"`
	UserID UserID  `json:"userId"`

	A string `json:"a"`
	B string `json:"b"`

	Status CheckStatus `json:"status"`
	// Result is nil until the check completes.
	Result *CheckResult `json:"result,omitempty"`

	// Attempts counts how many times a worker processed this check.
	Attempts uint `json:"attempts"`
	// LastError is the most recent processing error, if any.
	LastError string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	// DeletedAt marks a soft-deleted check; zero value means not deleted.
	DeletedAt time.Time `json:"-"`
}
