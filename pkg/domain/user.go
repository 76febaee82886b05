package domain

import "github.com/google/uuid"

// UserID identifies the owner of checks, taken from the JWT subject.
type UserID uuid.UUID

// String returns the canonical UUID form of the ID.
func (id UserID) String() string { return uuid.UUID(id).String() }
