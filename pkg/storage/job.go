package storage

import (
	"context"

	"github.com/riverqueue/river"
)

// JobStorage enqueues background jobs in the same database as the checks so
// that a check and its job are committed together.
//
//	added, err := storage.AddJob(ctx, checker.JobArgs{CheckID: id}, nil)
type JobStorage interface {
	// AddJob enqueues a job and reports whether it was inserted (false when
	// skipped as a unique duplicate). Inside a transaction the insert is
	// part of it.
	AddJob(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (bool, error)
}
