// Package v1handler implements the v1 HTTP API of the anagram service.
package v1handler

import (
	"context"
	"errors"
	"net/http"

	"anagram/internal/checker"
	"anagram/pkg/logger"
	"anagram/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

type Deps struct {
	Checker checker.Checker
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Register mounts the v1 routes on mux. Routes that act on a user's checks
// require a bearer token validated by sec.
func (h *Handler) Register(mux *http.ServeMux, sec *SecHandler) {
	mux.HandleFunc("GET /v1/compare", h.Compare)

	mux.Handle("POST /v1/checks", sec.RequireBearer(http.HandlerFunc(h.CreateCheck)))
	mux.Handle("GET /v1/checks", sec.RequireBearer(http.HandlerFunc(h.ListChecks)))
	mux.Handle("GET /v1/checks/{id}", sec.RequireBearer(http.HandlerFunc(h.GetCheck)))
	mux.Handle("DELETE /v1/checks/{id}", sec.RequireBearer(http.HandlerFunc(h.DeleteCheck)))
}

// Error is the body of every error response.
type Error struct {
	Code    string
	Message string
}

// ErrorResponse is an Error with the HTTP status it is sent with.
type ErrorResponse struct {
	StatusCode int
	Response   Error
}

type kindInfo struct {
	status  int
	message string
}

//nolint: gochecknoglobals
var kinds = map[serrors.Kind]kindInfo{
	serrors.ErrBadRequest:   {http.StatusBadRequest, "bad request"},
	serrors.ErrUnauthorized: {http.StatusUnauthorized, "unauthorized"},
	serrors.ErrForbidden:    {http.StatusForbidden, "forbidden"},
	serrors.ErrNotFound:     {http.StatusNotFound, "resource not found"},
	serrors.ErrConflict:     {http.StatusConflict, "conflict"},
	serrors.ErrInternal:     {http.StatusInternalServerError, "internal error"},
	serrors.ErrTimeout:      {http.StatusGatewayTimeout, "request timed out"},
	serrors.ErrUnavailable:  {http.StatusServiceUnavailable, "service unavailable"},
	serrors.ErrRateLimited:  {http.StatusTooManyRequests, "too many requests"},
}

// NewError maps err to the response sent to the client. Errors without a
// semantic kind are reported as internal errors and their text is only
// logged.
func (h Handler) NewError(ctx context.Context, err error) *ErrorResponse {
	return newError(ctx, err)
}

func newError(ctx context.Context, err error) *ErrorResponse {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		err = serrors.Wrap(serrors.ErrBadRequest, err, "request body exceeds %d bytes", maxBytesErr.Limit)
	case errors.Is(err, context.DeadlineExceeded):
		err = serrors.Wrap(serrors.ErrTimeout, err, "")
	}

	kind := serrors.KindOf(err)
	info, ok := kinds[kind]
	if !ok {
		kind, info = serrors.ErrInternal, kinds[serrors.ErrInternal]
	}

	if info.status >= http.StatusInternalServerError {
		logger.Error(ctx, "request failed", zap.Error(err))
	} else {
		logger.Debug(ctx, "request rejected", zap.Error(err))
	}

	message := info.message
	var semantic *serrors.Error
	if kind != serrors.ErrInternal && errors.As(err, &semantic) && semantic.Message() != "" {
		message = semantic.Message()
	}

	return &ErrorResponse{
		StatusCode: info.status,
		Response: Error{
			Code:    kind.Error(),
			Message: message,
		},
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	res := newError(ctx, err)
	writeJSON(ctx, w, res.StatusCode, func(e *jx.Encoder) {
		encodeError(e, res.Response)
	})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, encode func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	encode(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(e.Bytes()); err != nil {
		logger.Warn(ctx, "could not write response", zap.Error(err))
	}
}
