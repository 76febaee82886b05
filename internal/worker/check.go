package worker

import (
	"context"
	"errors"
	"fmt"

	"anagram/internal/checker"
	"anagram/pkg/domain"
	"anagram/pkg/logger"
	"anagram/pkg/serrors"

	"github.com/riverqueue/river"
	"go.uber.org/zap"
)

// CheckWorker is a River worker that processes async anagram checks.
//
// A job whose check is gone or no longer pending is cancelled. Any other
// error is recorded on the check and returned so River retries the job; the
// check turns FAILED once it runs out of attempts.
type CheckWorker struct {
	river.WorkerDefaults[checker.JobArgs]

	checker checker.Checker
}

// NewCheckWorker constructs a CheckWorker using the provided checker.
func NewCheckWorker(checker checker.Checker) *CheckWorker {
	return &CheckWorker{checker: checker}
}

// Work processes a single check job.
func (w *CheckWorker) Work(ctx context.Context, job *river.Job[checker.JobArgs]) error {
	ctx = logger.WithFields(ctx,
		zap.Int64("jobID", job.ID),
		zap.Int("attempt", job.Attempt),
		zap.Stringer("checkID", job.Args.CheckID))
	checkID := domain.CheckID(job.Args.CheckID)

	if _, err := w.checker.Process(ctx, checkID); err != nil {
		if errors.Is(err, serrors.ErrNotFound) {
			logger.Info(ctx, "check is not pending anymore, cancelling job")

			return river.JobCancel(err) //nolint: wrapcheck
		}

		logger.Error(ctx, "error in processing check", zap.Error(err))

		if markErr := w.checker.MarkFailed(ctx, checkID, err); markErr != nil {
			logger.Error(ctx, "could not mark check as failed", zap.Error(markErr))
		}

		return fmt.Errorf("could not process check: %w", err)
	}

	logger.Info(ctx, "check processed successfully")

	return nil
}
