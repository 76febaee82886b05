package v1handler

import (
	"time"

	"anagram/pkg/anagram"
	"anagram/pkg/domain"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// CreateCheckRequest is the body of POST /v1/checks.
type CreateCheckRequest struct {
	A     string
	B     string
	Async bool
}

// DecodeCreateCheckRequest reads a CreateCheckRequest. Both strings are
// required; unknown fields are ignored.
func DecodeCreateCheckRequest(d *jx.Decoder) (CreateCheckRequest, error) {
	var (
		req        CreateCheckRequest
		hasA, hasB bool
	)

	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "a":
			req.A, err = d.Str()
			hasA = true
		case "b":
			req.B, err = d.Str()
			hasB = true
		case "async":
			req.Async, err = d.Bool()
		default:
			err = d.Skip()
		}

		if err != nil {
			return errors.Wrapf(err, "decode field %q", key)
		}

		return nil
	}); err != nil {
		return req, errors.Wrap(err, "decode request")
	}

	switch {
	case !hasA:
		return req, errors.New(`missing required field "a"`)
	case !hasB:
		return req, errors.New(`missing required field "b"`)
	}

	return req, nil
}

func encodeError(e *jx.Encoder, err Error) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(err.Code) })
		e.Field("message", func(e *jx.Encoder) { e.StrEscape(err.Message) })
	})
}

func encodeComparison(e *jx.Encoder, cmp anagram.Comparison) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("a", func(e *jx.Encoder) { e.StrEscape(cmp.A) })
		e.Field("b", func(e *jx.Encoder) { e.StrEscape(cmp.B) })
		e.Field("anagram", func(e *jx.Encoder) { e.Bool(cmp.Anagram) })
	})
}

func encodeResult(e *jx.Encoder, res *domain.CheckResult) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("anagram", func(e *jx.Encoder) { e.Bool(res.Anagram) })
		e.Field("lengthMismatch", func(e *jx.Encoder) { e.Bool(res.LengthMismatch) })
		if res.LengthMismatch {
			return
		}
		e.Field("lowerA", func(e *jx.Encoder) { e.StrEscape(res.LowerA) })
		e.Field("lowerB", func(e *jx.Encoder) { e.StrEscape(res.LowerB) })
		e.Field("sortedA", func(e *jx.Encoder) { e.StrEscape(res.SortedA) })
		e.Field("sortedB", func(e *jx.Encoder) { e.StrEscape(res.SortedB) })
	})
}

func encodeCheck(e *jx.Encoder, check *domain.Check) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(check.ID.String()) })
		e.Field("a", func(e *jx.Encoder) { e.StrEscape(check.A) })
		e.Field("b", func(e *jx.Encoder) { e.StrEscape(check.B) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(check.Status)) })
		if check.Result != nil {
			e.Field("result", func(e *jx.Encoder) { encodeResult(e, check.Result) })
		}
		e.Field("attempts", func(e *jx.Encoder) { e.UInt(check.Attempts) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(check.CreatedAt.Format(time.RFC3339Nano)) })
		if !check.UpdatedAt.IsZero() {
			e.Field("updatedAt", func(e *jx.Encoder) { e.Str(check.UpdatedAt.Format(time.RFC3339Nano)) })
		}
	})
}

func encodeCheckList(e *jx.Encoder, checks []domain.Check, nextCursor string) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for i := range checks {
					encodeCheck(e, &checks[i])
				}
			})
		})
		e.Field("nextCursor", func(e *jx.Encoder) {
			if nextCursor == "" {
				e.Null()

				return
			}
			e.Str(nextCursor)
		})
	})
}
