package checker

import (
	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

// JobArgs contains the arguments for an async anagram check submitted to River.
type JobArgs struct {
	// CheckID is the stored check to process. It is unique so that a check is
	// never queued twice while a job for it is still alive.
	CheckID uuid.UUID `json:"checkId" river:"unique"`

	// maxAttempts configures the maximum number of times River should retry the job.
	maxAttempts int
}

// NewJobArgs returns the job arguments for processing the given check.
func NewJobArgs(checkID uuid.UUID, maxAttempts int) JobArgs {
	return JobArgs{CheckID: checkID, maxAttempts: maxAttempts}
}

// Kind returns the River job kind used to register and dispatch the check worker.
func (args JobArgs) Kind() string { return "CheckAnagramJob" }

// InsertOpts returns the River options that control how the job is enqueued.
func (args JobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		MaxAttempts: args.maxAttempts,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
			ByState: []rivertype.JobState{
				rivertype.JobStateAvailable,
				rivertype.JobStatePending,
				rivertype.JobStateRunning,
				rivertype.JobStateRetryable,
				rivertype.JobStateScheduled,
			},
		},
	}
}
