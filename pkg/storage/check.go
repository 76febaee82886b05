package storage

import (
	"context"
	"time"

	"anagram/pkg/domain"
)

// CheckUpdates describes the fields applied to an existing check. Zero
// values leave the stored column unchanged.
type CheckUpdates struct {
	// Status is the new status. Empty keeps the current one.
	Status domain.CheckStatus
	// Result, when provided, replaces the stored result.
	Result *domain.CheckResult
	// LastError, when provided, sets the last error text. An empty string
	// clears it.
	LastError *string
	// MaxAttempts guards a Failed status: it only applies once attempts after
	// the increment reach MaxAttempts. A value <= 0 disables the guard.
	MaxAttempts int
}

// Cursor is the position of a check in the newest-first listing. Checks
// created in the same transaction share created_at, so the id breaks ties.
type Cursor struct {
	CreatedAt time.Time
	ID        domain.CheckID
}

// UserChecks is a page of checks with the cursor for the next one.
type UserChecks struct {
	Checks []domain.Check
	// NextCursor points at the last returned check, nil on the last page.
	NextCursor *Cursor
}

// CheckStorage persists anagram checks. Soft-deleted checks are invisible to
// every read and update.
type CheckStorage interface {
	// StoreChecks inserts checks and returns them with generated fields.
	StoreChecks(ctx context.Context, checks ...domain.Check) ([]domain.Check, error)
	// UpdateCheckByID applies updates, increments attempts and sets
	// updated_at. Returns nil when no such check exists.
	UpdateCheckByID(ctx context.Context, ID domain.CheckID, updates CheckUpdates) (*domain.Check, error)
	// DeleteCheck soft-deletes a user's check and returns it, or nil if it
	// was not found.
	DeleteCheck(ctx context.Context, userID domain.UserID, ID domain.CheckID) (*domain.Check, error)
	// UserChecks returns up to limit checks positioned after cursor (nil
	// means from the start), newest first, optionally filtered by status.
	UserChecks(ctx context.Context,
		userID domain.UserID,
		status domain.CheckStatus,
		cursor *Cursor,
		limit uint) (UserChecks, error)
	// CheckByID fetches a user's check. Returns nil when not found.
	CheckByID(ctx context.Context, userID domain.UserID, ID domain.CheckID) (*domain.Check, error)
	// PendingCheckByID fetches a pending check of any user. Returns nil when
	// the check is missing, deleted or no longer pending.
	PendingCheckByID(ctx context.Context, ID domain.CheckID) (*domain.Check, error)
}
