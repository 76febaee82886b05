package v1handler

import (
	"io"
	"net/http"
	"strconv"

	"anagram/pkg/domain"
	"anagram/pkg/serrors"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Compare answers whether the query parameters a and b are anagrams. Nothing
// is stored and no authentication is needed.
func (h Handler) Compare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	if !q.Has("a") || !q.Has("b") {
		writeError(ctx, w, serrors.With(serrors.ErrBadRequest, "query parameters a and b are required"))

		return
	}

	cmp, err := h.deps.Checker.Compare(ctx, q.Get("a"), q.Get("b"))
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		encodeComparison(e, cmp)
	})
}

// CreateCheck stores a check for the caller. Synchronous checks are returned
// completed with 201; async ones are returned pending with 202.
func (h Handler) CreateCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	req, err := DecodeCreateCheckRequest(jx.DecodeBytes(body))
	if err != nil {
		writeError(ctx, w, serrors.Wrap(serrors.ErrBadRequest, err, "invalid request body: %s", err.Error()))

		return
	}

	var (
		check  *domain.Check
		status int
	)
	if req.Async {
		check, err = h.deps.Checker.Enqueue(ctx, GetUserIDFromContext(ctx), req.A, req.B)
		status = http.StatusAccepted
	} else {
		check, err = h.deps.Checker.Check(ctx, GetUserIDFromContext(ctx), req.A, req.B)
		status = http.StatusCreated
	}
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	w.Header().Set("Location", "/v1/checks/"+check.ID.String())
	writeJSON(ctx, w, status, func(e *jx.Encoder) {
		encodeCheck(e, check)
	})
}

// ListChecks returns a page of the caller's checks, newest first.
func (h Handler) ListChecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	limit := DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxLimit {
			writeError(ctx, w, serrors.With(serrors.ErrBadRequest, "limit must be between 1 and %d", MaxLimit))

			return
		}
		limit = n
	}

	checks, nextCursor, err := h.deps.Checker.UserChecks(ctx,
		GetUserIDFromContext(ctx),
		domain.CheckStatus(q.Get("status")),
		q.Get("cursor"),
		uint(limit)) //nolint: gosec
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		encodeCheckList(e, checks, nextCursor)
	})
}

// GetCheck returns one of the caller's checks.
func (h Handler) GetCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathCheckID(r)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	check, err := h.deps.Checker.Result(ctx, GetUserIDFromContext(ctx), id)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	writeJSON(ctx, w, http.StatusOK, func(e *jx.Encoder) {
		encodeCheck(e, check)
	})
}

// DeleteCheck deletes one of the caller's checks.
func (h Handler) DeleteCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := pathCheckID(r)
	if err != nil {
		writeError(ctx, w, err)

		return
	}

	if err := h.deps.Checker.Delete(ctx, GetUserIDFromContext(ctx), id); err != nil {
		writeError(ctx, w, err)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathCheckID(r *http.Request) (domain.CheckID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return domain.CheckID{}, serrors.Wrap(serrors.ErrBadRequest, err, "invalid check id")
	}

	return domain.CheckID(id), nil
}

