package checker_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"anagram/internal/checker"
	"anagram/pkg/domain"
	"anagram/pkg/serrors"
	"anagram/pkg/storage"
	mockstorage "anagram/pkg/storage/mock"

	"github.com/google/uuid"
	"github.com/riverqueue/river"
	"go.uber.org/mock/gomock"
)

func newTestChecker(t *testing.T) (*gomock.Controller, *mockstorage.MockStorage, checker.Checker) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mockstorage.NewMockStorage(ctrl)
	c := checker.New(st, nil, checker.Options{MaxInputLength: 8, MaxAttempts: 3})

	return ctrl, st, c
}

// helper to wire Storage.WithTx to execute callback with a MockAllStorage.
func expectWithTx(
	t *testing.T,
	ctrl *gomock.Controller,
	m *mockstorage.MockStorage,
	fn func(tx *mockstorage.MockAllStorage)) {
	t.Helper()

	m.EXPECT().WithTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, cb func(storage.AllStorage) error) error {
			tx := mockstorage.NewMockAllStorage(ctrl)
			if fn != nil {
				fn(tx)
			}

			return cb(tx)
		},
	)
}

func withID(id domain.CheckID) func(context.Context, ...domain.Check) ([]domain.Check, error) {
	return func(_ context.Context, checks ...domain.Check) ([]domain.Check, error) {
		ret := checks
		ret[0].ID = id

		return ret, nil
	}
}

func TestChecker_Compare(t *testing.T) {
	_, _, c := newTestChecker(t)

	cmp, err := c.Compare(context.Background(), "Listen", "Silent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmp.Anagram {
		t.Fatalf("expected anagram, got %+v", cmp)
	}
	if cmp.SortedA != "eilnst" || cmp.SortedB != "eilnst" {
		t.Fatalf("unexpected sorted forms: %q %q", cmp.SortedA, cmp.SortedB)
	}
}

func TestChecker_Compare_InputTooLong(t *testing.T) {
	_, _, c := newTestChecker(t)

	_, err := c.Compare(context.Background(), "abc", strings.Repeat("x", 9))
	if err == nil || !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "input b") {
		t.Fatalf("expected error to name input b, got %v", err)
	}
}

func TestChecker_Compare_NoLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := checker.New(mockstorage.NewMockStorage(ctrl), nil, checker.Options{})

	long := strings.Repeat("ab", 5000)
	cmp, err := c.Compare(context.Background(), long, long)
	if err != nil || !cmp.Anagram {
		t.Fatalf("unexpected: cmp.Anagram=%v err=%v", cmp.Anagram, err)
	}
}

func TestChecker_Check(t *testing.T) {
	_, st, c := newTestChecker(t)
	userID := domain.UserID(uuid.New())
	id := domain.CheckID(uuid.New())

	st.EXPECT().StoreChecks(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, checks ...domain.Check) ([]domain.Check, error) {
			if len(checks) != 1 {
				t.Fatalf("expected one check input")
			}
			if checks[0].Status != domain.CheckStatusCompleted || checks[0].Result == nil {
				t.Fatalf("expected completed check with result, got %+v", checks[0])
			}

			return withID(id)(context.Background(), checks...)
		},
	)

	_, err := c.Check(context.Background(), userID, "Dormitory", "dirtyroom")
	if err == nil || !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for long input, got %v", err)
	}

	check, err := c.Check(context.Background(), userID, "evil", "Vile")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.ID != id || check.UserID != userID {
		t.Fatalf("unexpected check: %+v", check)
	}
	if !check.Result.Anagram || check.Result.LowerB != "vile" {
		t.Fatalf("unexpected result: %+v", check.Result)
	}
}

func TestChecker_StoredInputMustBeText(t *testing.T) {
	tests := []struct {
		name    string
		a, b    string
		message string
	}{
		{"nul in a", "\x00", "\x00", "input a contains a NUL character"},
		{"nul in b", "ab", "b\x00", "input b contains a NUL character"},
		{"invalid utf8 in a", "\xff", "a", "input a is not valid UTF-8"},
		{"invalid utf8 in b", "ab", "a\xc3", "input b is not valid UTF-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// no storage expectations: nothing may reach the database
			_, _, c := newTestChecker(t)

			_, err := c.Check(context.Background(), domain.UserID{}, tt.a, tt.b)
			if !errors.Is(err, serrors.ErrBadRequest) || err.Error() != tt.message {
				t.Fatalf("Check: expected ErrBadRequest %q, got %v", tt.message, err)
			}

			_, err = c.Enqueue(context.Background(), domain.UserID{}, tt.a, tt.b)
			if !errors.Is(err, serrors.ErrBadRequest) || err.Error() != tt.message {
				t.Fatalf("Enqueue: expected ErrBadRequest %q, got %v", tt.message, err)
			}
		})
	}
}

func TestChecker_Compare_AcceptsAnyBytes(t *testing.T) {
	_, _, c := newTestChecker(t)

	cmp, err := c.Compare(context.Background(), "a\x00\xff", "\xff\x00a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cmp.Anagram {
		t.Fatalf("expected anagram, got %+v", cmp)
	}
}

func TestChecker_Check_StoreError(t *testing.T) {
	_, st, c := newTestChecker(t)

	st.EXPECT().StoreChecks(gomock.Any(), gomock.Any()).Return(nil, errors.New("store err"))
	if _, err := c.Check(context.Background(), domain.UserID{}, "a", "a"); err == nil {
		t.Fatalf("expected error from StoreChecks")
	}
}

func TestChecker_Enqueue(t *testing.T) {
	ctrl, st, c := newTestChecker(t)
	id := domain.CheckID(uuid.New())

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().StoreChecks(gomock.Any(), gomock.Any()).DoAndReturn(withID(id))
		tx.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).DoAndReturn(
			func(_ context.Context, args river.JobArgs, _ *river.InsertOpts) (bool, error) {
				jobArgs, ok := args.(checker.JobArgs)
				if !ok {
					t.Fatalf("unexpected job args type %T", args)
				}
				if jobArgs.CheckID != uuid.UUID(id) {
					t.Fatalf("expected job for %s, got %s", id, jobArgs.CheckID)
				}
				if jobArgs.InsertOpts().MaxAttempts != 3 {
					t.Fatalf("expected 3 max attempts, got %d", jobArgs.InsertOpts().MaxAttempts)
				}

				return true, nil
			},
		)
	})

	check, err := c.Enqueue(context.Background(), domain.UserID{}, "abc", "cab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Status != domain.CheckStatusPending {
		t.Fatalf("expected status PENDING, got %s", check.Status)
	}
	if check.Result != nil {
		t.Fatalf("expected no result for pending check")
	}
}

func TestChecker_Enqueue_InputTooLong(t *testing.T) {
	_, st, c := newTestChecker(t)
	st.EXPECT().WithTx(gomock.Any(), gomock.Any()).Times(0)

	_, err := c.Enqueue(context.Background(), domain.UserID{}, strings.Repeat("a", 9), "a")
	if err == nil || !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestChecker_Enqueue_PropagatesErrors(t *testing.T) {
	ctrl, st, c := newTestChecker(t)

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().StoreChecks(gomock.Any(), gomock.Any()).Return(nil, errors.New("store err"))
	})
	if _, err := c.Enqueue(context.Background(), domain.UserID{}, "a", "b"); err == nil {
		t.Fatalf("expected error from StoreChecks")
	}

	expectWithTx(t, ctrl, st, func(tx *mockstorage.MockAllStorage) {
		tx.EXPECT().StoreChecks(gomock.Any(), gomock.Any()).DoAndReturn(withID(domain.CheckID{}))
		tx.EXPECT().AddJob(gomock.Any(), gomock.Any(), gomock.Nil()).Return(false, errors.New("add err"))
	})
	if _, err := c.Enqueue(context.Background(), domain.UserID{}, "a", "b"); err == nil {
		t.Fatalf("expected error from AddJob")
	}
}

func TestChecker_Process(t *testing.T) {
	_, st, c := newTestChecker(t)
	id := domain.CheckID(uuid.New())

	st.EXPECT().PendingCheckByID(gomock.Any(), id).Return(&domain.Check{
		ID: id, A: "Hello", B: "hello!", Status: domain.CheckStatusPending,
	}, nil)
	st.EXPECT().UpdateCheckByID(gomock.Any(), id, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.CheckID, updates storage.CheckUpdates) (*domain.Check, error) {
			if updates.Status != domain.CheckStatusCompleted || updates.Result == nil {
				t.Fatalf("expected completed update with result")
			}
			if !updates.Result.LengthMismatch || updates.Result.Anagram {
				t.Fatalf("expected length mismatch, got %+v", updates.Result)
			}
			if updates.LastError == nil || *updates.LastError != "" {
				t.Fatalf("expected last error to be cleared")
			}

			return &domain.Check{ID: id, Status: updates.Status, Result: updates.Result, Attempts: 1}, nil
		},
	)

	check, err := c.Process(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if check.Status != domain.CheckStatusCompleted || check.Attempts != 1 {
		t.Fatalf("unexpected check: %+v", check)
	}
}

func TestChecker_Process_NotPending(t *testing.T) {
	_, st, c := newTestChecker(t)
	id := domain.CheckID(uuid.New())

	st.EXPECT().PendingCheckByID(gomock.Any(), id).Return(nil, nil)
	if _, err := c.Process(context.Background(), id); !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// deleted between read and update
	st.EXPECT().PendingCheckByID(gomock.Any(), id).Return(&domain.Check{ID: id, A: "a", B: "a"}, nil)
	st.EXPECT().UpdateCheckByID(gomock.Any(), id, gomock.Any()).Return(nil, nil)
	if _, err := c.Process(context.Background(), id); !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st.EXPECT().PendingCheckByID(gomock.Any(), id).Return(nil, errors.New("boom"))
	if _, err := c.Process(context.Background(), id); err == nil || errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestChecker_MarkFailed(t *testing.T) {
	_, st, c := newTestChecker(t)
	id := domain.CheckID(uuid.New())

	st.EXPECT().UpdateCheckByID(gomock.Any(), id, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ domain.CheckID, updates storage.CheckUpdates) (*domain.Check, error) {
			if updates.Status != domain.CheckStatusFailed || updates.MaxAttempts != 3 {
				t.Fatalf("unexpected updates: %+v", updates)
			}
			if updates.LastError == nil || *updates.LastError != "db gone" {
				t.Fatalf("expected last error to be recorded")
			}

			return &domain.Check{ID: id}, nil
		},
	)
	if err := c.MarkFailed(context.Background(), id, errors.New("db gone")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st.EXPECT().UpdateCheckByID(gomock.Any(), id, gomock.Any()).Return(nil, errors.New("boom"))
	if err := c.MarkFailed(context.Background(), id, errors.New("db gone")); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestChecker_UserChecks_SuccessAndPagination(t *testing.T) {
	_, st, c := newTestChecker(t)
	userID := domain.UserID{}
	status := domain.CheckStatusCompleted
	after := storage.Cursor{
		CreatedAt: time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond),
		ID:        domain.CheckID(uuid.New()),
	}
	next := storage.Cursor{CreatedAt: after.CreatedAt, ID: domain.CheckID(uuid.New())}

	page := storage.UserChecks{
		Checks:     []domain.Check{{A: "ab", B: "ba"}},
		NextCursor: &next,
	}

	st.EXPECT().UserChecks(gomock.Any(), userID, status, gomock.Any(), uint(10)).DoAndReturn(
		func(_ context.Context, _ domain.UserID, _ domain.CheckStatus, cursor *storage.Cursor, _ uint) (storage.UserChecks, error) {
			if cursor == nil || !cursor.CreatedAt.Equal(after.CreatedAt) || cursor.ID != after.ID {
				t.Fatalf("unexpected cursor %+v", cursor)
			}

			return page, nil
		},
	)

	checks, nextCursor, err := c.UserChecks(context.Background(), userID, status, checker.EncodeCursor(after), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(checks) != 1 || checks[0].A != "ab" {
		t.Fatalf("unexpected checks: %+v", checks)
	}
	if nextCursor != checker.EncodeCursor(next) {
		t.Fatalf("unexpected next cursor %q", nextCursor)
	}
}

func TestChecker_UserChecks_FirstPage(t *testing.T) {
	_, st, c := newTestChecker(t)
	userID := domain.UserID(uuid.New())

	st.EXPECT().UserChecks(gomock.Any(), userID, domain.CheckStatus(""), gomock.Nil(), uint(5)).
		Return(storage.UserChecks{}, nil)

	checks, next, err := c.UserChecks(context.Background(), userID, "", "", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(checks) != 0 || next != "" {
		t.Fatalf("expected an empty last page, got %d checks and cursor %q", len(checks), next)
	}
}

func TestCursor_RoundTrip(t *testing.T) {
	id := domain.CheckID(uuid.New())
	created := time.Date(2026, 3, 1, 12, 30, 0, 123456000, time.FixedZone("UTC+7", 7*3600))

	encoded := checker.EncodeCursor(storage.Cursor{CreatedAt: created, ID: id})
	if strings.Contains(encoded, "+") {
		t.Fatalf("cursor %q must be safe to put in a query string", encoded)
	}

	parsed, err := checker.ParseCursor(encoded)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.CreatedAt.Equal(created) || parsed.ID != id {
		t.Fatalf("unexpected cursor %+v", parsed)
	}
}

func TestChecker_UserChecks_InvalidInput(t *testing.T) {
	_, _, c := newTestChecker(t)

	for _, cursor := range []string{
		"not-a-time",
		"2026-03-01T12:30:00Z",
		"2026-03-01T12:30:00Z_not-a-uuid",
		"yesterday_" + uuid.NewString(),
	} {
		_, _, err := c.UserChecks(context.Background(), domain.UserID{}, "", cursor, 5)
		if err == nil || !errors.Is(err, serrors.ErrBadRequest) {
			t.Fatalf("cursor %q: expected ErrBadRequest, got %v", cursor, err)
		}
	}

	_, _, err := c.UserChecks(context.Background(), domain.UserID{}, "DONE", "", 5)
	if err == nil || !errors.Is(err, serrors.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}
}

func TestChecker_Result(t *testing.T) {
	_, st, c := newTestChecker(t)
	userID := domain.UserID{}
	id := domain.CheckID{}

	st.EXPECT().CheckByID(gomock.Any(), userID, id).Return(&domain.Check{A: "x"}, nil)
	check, err := c.Result(context.Background(), userID, id)
	if err != nil || check == nil || check.A != "x" {
		t.Fatalf("unexpected: check=%+v err=%v", check, err)
	}

	st.EXPECT().CheckByID(gomock.Any(), userID, id).Return(nil, nil)
	_, err = c.Result(context.Background(), userID, id)
	if err == nil || !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st.EXPECT().CheckByID(gomock.Any(), userID, id).Return(nil, errors.New("boom"))
	if _, err = c.Result(context.Background(), userID, id); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestChecker_Delete(t *testing.T) {
	_, st, c := newTestChecker(t)
	userID := domain.UserID{}
	id := domain.CheckID{}

	st.EXPECT().DeleteCheck(gomock.Any(), userID, id).Return(&domain.Check{}, nil)
	if err := c.Delete(context.Background(), userID, id); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st.EXPECT().DeleteCheck(gomock.Any(), userID, id).Return(nil, nil)
	err := c.Delete(context.Background(), userID, id)
	if err == nil || !errors.Is(err, serrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	st.EXPECT().DeleteCheck(gomock.Any(), userID, id).Return(nil, errors.New("boom"))
	if err := c.Delete(context.Background(), userID, id); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
