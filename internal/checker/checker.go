package checker

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"anagram/internal/config"
	"anagram/pkg/anagram"
	"anagram/pkg/domain"
	"anagram/pkg/logger"
	"anagram/pkg/metrics"
	"anagram/pkg/serrors"
	"anagram/pkg/storage"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CursorLayout is the time layout of the created_at part of pagination
// cursors returned by UserChecks.
const CursorLayout = time.RFC3339Nano

// cursorSep joins the created_at and id parts of a cursor.
const cursorSep = "_"

// EncodeCursor formats c as the opaque cursor string handed to clients:
// created_at in UTC followed by the check id.
func EncodeCursor(c storage.Cursor) string {
	return c.CreatedAt.UTC().Format(CursorLayout) + cursorSep + c.ID.String()
}

// ParseCursor parses a cursor produced by EncodeCursor.
func ParseCursor(s string) (*storage.Cursor, error) {
	created, id, ok := strings.Cut(s, cursorSep)
	if !ok {
		return nil, serrors.With(serrors.ErrBadRequest, "invalid cursor")
	}

	t, err := time.Parse(CursorLayout, created)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
	}
	checkID, err := uuid.Parse(id)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid cursor")
	}

	return &storage.Cursor{CreatedAt: t, ID: domain.CheckID(checkID)}, nil
}

// Options configure input validation and async processing.
type Options struct {
	// MaxInputLength caps the number of characters of each input. Zero
	// disables the cap.
	MaxInputLength int
	// MaxAttempts is the number of times the background worker processes a
	// check before it is marked failed.
	MaxAttempts int
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		MaxInputLength: cfg.Checker.MaxInputLength,
		MaxAttempts:    cfg.Checker.MaxAttempts,
	}
}

// checker is the concrete implementation of the Checker interface.
type checker struct {
	options  Options
	storage  storage.Storage
	recorder *metrics.CheckRecorder
	tracer   trace.Tracer
}

// New creates a Checker backed by the provided storage. recorder may be nil.
func New(storage storage.Storage, recorder *metrics.CheckRecorder, options Options) Checker {
	return &checker{
		options:  options,
		storage:  storage,
		recorder: recorder,
		tracer:   otel.Tracer("anagram/checker"),
	}
}

func (c checker) validate(a, b string) error {
	if c.options.MaxInputLength <= 0 {
		return nil
	}

	for _, in := range []struct{ name, value string }{{"a", a}, {"b", b}} {
		if utf8.RuneCountInString(in.value) > c.options.MaxInputLength {
			return serrors.With(serrors.ErrBadRequest,
				"input %s exceeds %d characters", in.name, c.options.MaxInputLength)
		}
	}

	return nil
}

// validateStored additionally rejects what PostgreSQL text cannot hold:
// invalid UTF-8 and NUL characters. Compare does not store and accepts both.
func (c checker) validateStored(a, b string) error {
	if err := c.validate(a, b); err != nil {
		return err
	}

	for _, in := range []struct{ name, value string }{{"a", a}, {"b", b}} {
		if !utf8.ValidString(in.value) {
			return serrors.With(serrors.ErrBadRequest, "input %s is not valid UTF-8", in.name)
		}
		if strings.IndexByte(in.value, 0) >= 0 {
			return serrors.With(serrors.ErrBadRequest, "input %s contains a NUL character", in.name)
		}
	}

	return nil
}

// compute runs the comparison inside a span and records it.
func (c checker) compute(ctx context.Context, mode, a, b string) anagram.Comparison {
	ctx, span := c.tracer.Start(ctx, "anagram.compare", trace.WithAttributes(attribute.String("mode", mode)))
	defer span.End()

	start := time.Now()
	cmp := anagram.Compare(a, b)
	c.recorder.Record(ctx, mode, cmp.Anagram, time.Since(start))

	cmp.Log(ctx)
	span.SetAttributes(
		attribute.Bool("anagram", cmp.Anagram),
		attribute.Bool("lengthMismatch", cmp.LengthMismatch),
	)

	return cmp
}

// Compare validates the inputs and compares them without storing anything.
func (c checker) Compare(ctx context.Context, a, b string) (anagram.Comparison, error) {
	if err := c.validate(a, b); err != nil {
		return anagram.Comparison{}, err
	}

	return c.compute(ctx, metrics.ModeCompare, a, b), nil
}

// Check compares a and b synchronously and stores the completed check for the user.
func (c checker) Check(ctx context.Context, userID domain.UserID, a, b string) (*domain.Check, error) {
	if err := c.validateStored(a, b); err != nil {
		return nil, err
	}

	cmp := c.compute(ctx, metrics.ModeSync, a, b)
	res, err := c.storage.StoreChecks(ctx, domain.Check{
		UserID: userID,
		A:      a,
		B:      b,
		Status: domain.CheckStatusCompleted,
		Result: ResultFromComparison(cmp),
	})
	if err != nil {
		return nil, fmt.Errorf("could not store check: %w", err)
	}

	return &res[0], nil
}

// Enqueue stores a pending check and enqueues a background job to process it.
// Both are committed in a single transaction.
func (c checker) Enqueue(ctx context.Context, userID domain.UserID, a, b string) (*domain.Check, error) {
	if err := c.validateStored(a, b); err != nil {
		return nil, err
	}

	var check *domain.Check
	if err := c.storage.WithTx(ctx, func(tx storage.AllStorage) error {
		res, err := tx.StoreChecks(ctx, domain.Check{
			UserID: userID,
			A:      a,
			B:      b,
			Status: domain.CheckStatusPending,
		})
		if err != nil {
			return fmt.Errorf("could not store check: %w", err)
		}
		check = &res[0]

		if _, err := tx.AddJob(ctx, NewJobArgs(uuid.UUID(check.ID), c.options.MaxAttempts), nil); err != nil {
			return fmt.Errorf("could not add job: %w", err)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not enqueue check: %w", err)
	}

	return check, nil
}

// Process computes a pending check and marks it completed. It returns a
// not-found error when the check was deleted or is no longer pending.
func (c checker) Process(ctx context.Context, checkID domain.CheckID) (*domain.Check, error) {
	ctx = logger.WithFields(ctx, zap.Stringer("checkID", checkID))

	pending, err := c.storage.PendingCheckByID(ctx, checkID)
	if err != nil {
		return nil, fmt.Errorf("could not get pending check: %w", err)
	}
	if pending == nil {
		return nil, serrors.With(serrors.ErrNotFound, "no pending check %s", checkID)
	}

	// inputs were validated when the check was enqueued
	cmp := c.compute(ctx, metrics.ModeAsync, pending.A, pending.B)

	noError := ""
	updated, err := c.storage.UpdateCheckByID(ctx, checkID, storage.CheckUpdates{
		Status:    domain.CheckStatusCompleted,
		Result:    ResultFromComparison(cmp),
		LastError: &noError,
	})
	if err != nil {
		return nil, fmt.Errorf("could not update check: %w", err)
	}
	if updated == nil {
		return nil, serrors.With(serrors.ErrNotFound, "check %s was deleted", checkID)
	}

	logger.Debug(ctx, "check processed", zap.Bool("anagram", cmp.Anagram))

	return updated, nil
}

// MarkFailed records a failed processing attempt. The check only becomes
// FAILED once it has used all of its attempts.
func (c checker) MarkFailed(ctx context.Context, checkID domain.CheckID, cause error) error {
	msg := cause.Error()
	if _, err := c.storage.UpdateCheckByID(ctx, checkID, storage.CheckUpdates{
		Status:      domain.CheckStatusFailed,
		LastError:   &msg,
		MaxAttempts: c.options.MaxAttempts,
	}); err != nil {
		return fmt.Errorf("could not mark check as failed: %w", err)
	}

	return nil
}

// UserChecks returns a page of checks for the given user filtered by status.
// cursor is empty for the first page or a value from EncodeCursor; the next
// cursor is empty on the last page.
func (c checker) UserChecks(ctx context.Context,
	userID domain.UserID,
	status domain.CheckStatus,
	cursor string,
	limit uint) ([]domain.Check, string, error) {
	if status != "" && !status.Valid() {
		return nil, "", serrors.With(serrors.ErrBadRequest, "invalid status %q", status)
	}

	var after *storage.Cursor
	if cursor != "" {
		parsed, err := ParseCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		after = parsed
	}

	page, err := c.storage.UserChecks(ctx, userID, status, after, limit)
	if err != nil {
		return nil, "", fmt.Errorf("could not get user checks: %w", err)
	}

	var next string
	if page.NextCursor != nil {
		next = EncodeCursor(*page.NextCursor)
	}

	return page.Checks, next, nil
}

// Result fetches a single check by ID for the given user.
func (c checker) Result(ctx context.Context, userID domain.UserID, checkID domain.CheckID) (*domain.Check, error) {
	res, err := c.storage.CheckByID(ctx, userID, checkID)
	if err != nil {
		return nil, fmt.Errorf("could not get check: %w", err)
	}
	if res == nil {
		return nil, serrors.With(serrors.ErrNotFound, "check not found")
	}

	return res, nil
}

// Delete soft-deletes a check belonging to the given user. A queued job for
// the check finds nothing pending and is cancelled by the worker.
func (c checker) Delete(ctx context.Context, userID domain.UserID, checkID domain.CheckID) error {
	res, err := c.storage.DeleteCheck(ctx, userID, checkID)
	if err != nil {
		return fmt.Errorf("could not delete check: %w", err)
	}
	if res == nil {
		return serrors.With(serrors.ErrNotFound, "check not found")
	}

	return nil
}

// ResultFromComparison converts a comparison to the stored result form.
func ResultFromComparison(cmp anagram.Comparison) *domain.CheckResult {
	return &domain.CheckResult{
		Anagram:        cmp.Anagram,
		LengthMismatch: cmp.LengthMismatch,
		LowerA:         cmp.LowerA,
		LowerB:         cmp.LowerB,
		SortedA:        cmp.SortedA,
		SortedB:        cmp.SortedB,
	}
}
