package v1handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anagram/internal/api/handler/v1handler"
	"anagram/internal/checker"
	mockchecker "anagram/internal/checker/mock"
	"anagram/pkg/anagram"
	"anagram/pkg/domain"
	"anagram/pkg/serrors"
	mockstorage "anagram/pkg/storage/mock"

	"github.com/go-faster/jx"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// jsonField returns the raw JSON value of a top-level field of body.
func jsonField(t *testing.T, body []byte, field string) string {
	t.Helper()

	var raw string
	require.NoError(t, jx.DecodeBytes(body).Obj(func(d *jx.Decoder, key string) error {
		if key != field {
			return d.Skip()
		}
		v, err := d.Raw()
		raw = v.String()

		return err
	}))

	return raw
}

type apiTest struct {
	checker *mockchecker.MockChecker
	mux     *http.ServeMux
	userID  domain.UserID
	token   string
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()

	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)

	ctrl := gomock.NewController(t)
	mock := mockchecker.NewMockChecker(ctrl)
	mux := http.NewServeMux()
	v1handler.New(v1handler.Deps{Checker: mock}).Register(mux, sh)

	uid := uuid.New()
	now := time.Now()

	return &apiTest{
		checker: mock,
		mux:     mux,
		userID:  domain.UserID(uid),
		token:   signJWTRS256(t, priv, uid.String(), now, now.Add(time.Hour)),
	}
}

func (a *apiTest) do(method, target, body string, auth bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if auth {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)

	return rec
}

func TestCompare(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().Compare(gomock.Any(), "Listen", "Silent").
		Return(anagram.Compare("Listen", "Silent"), nil)

	rec := a.do(http.MethodGet, "/v1/compare?a=Listen&b=Silent", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"a":"Listen","b":"Silent","anagram":true}`, rec.Body.String())
}

func TestCompare_EmptyStringsAllowed(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().Compare(gomock.Any(), "", "").Return(anagram.Compare("", ""), nil)

	rec := a.do(http.MethodGet, "/v1/compare?a=&b=", "", false)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "true", jsonField(t, rec.Body.Bytes(), "anagram"))
}

func TestCompare_MissingParam(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(http.MethodGet, "/v1/compare?a=abc", "", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, `"BAD_REQUEST"`, jsonField(t, rec.Body.Bytes(), "code"))
}

func TestCompare_CheckerError(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().Compare(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(anagram.Comparison{}, serrors.With(serrors.ErrBadRequest, "input a exceeds 8 characters"))

	rec := a.do(http.MethodGet, "/v1/compare?a=aaaaaaaaa&b=a", "", false)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, `"input a exceeds 8 characters"`, jsonField(t, rec.Body.Bytes(), "message"))
}

func TestCreateCheck_Sync(t *testing.T) {
	a := newAPITest(t)
	id := domain.CheckID(uuid.New())
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a.checker.EXPECT().Check(gomock.Any(), a.userID, "evil", "vile").Return(&domain.Check{
		ID:     id,
		UserID: a.userID,
		A:      "evil",
		B:      "vile",
		Status: domain.CheckStatusCompleted,
		Result: &domain.CheckResult{
			Anagram: true,
			LowerA:  "evil", LowerB: "vile",
			SortedA: "eilv", SortedB: "eilv",
		},
		CreatedAt: created,
	}, nil)

	rec := a.do(http.MethodPost, "/v1/checks", `{"a":"evil","b":"vile"}`, true)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/v1/checks/"+id.String(), rec.Header().Get("Location"))
	require.JSONEq(t, `{
		"id": "`+id.String()+`",
		"a": "evil",
		"b": "vile",
		"status": "COMPLETED",
		"result": {
			"anagram": true,
			"lengthMismatch": false,
			"lowerA": "evil",
			"lowerB": "vile",
			"sortedA": "eilv",
			"sortedB": "eilv"
		},
		"attempts": 0,
		"createdAt": "2026-01-02T03:04:05Z"
	}`, rec.Body.String())
}

func TestCreateCheck_Async(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().Enqueue(gomock.Any(), a.userID, "ab", "ba").Return(&domain.Check{
		ID: domain.CheckID(uuid.New()), A: "ab", B: "ba", Status: domain.CheckStatusPending,
	}, nil)

	rec := a.do(http.MethodPost, "/v1/checks", `{"a":"ab","b":"ba","async":true,"extra":[1,2]}`, true)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, `"PENDING"`, jsonField(t, rec.Body.Bytes(), "status"))
	require.Empty(t, jsonField(t, rec.Body.Bytes(), "result"))
}

func TestCreateCheck_InvalidBody(t *testing.T) {
	a := newAPITest(t)

	for _, body := range []string{``, `{`, `{"a":"x"}`, `{"a":1,"b":"x"}`, `[]`} {
		rec := a.do(http.MethodPost, "/v1/checks", body, true)
		require.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
	}
}

func TestCreateCheck_RequiresAuth(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(http.MethodPost, "/v1/checks", `{"a":"x","b":"x"}`, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListChecks(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().UserChecks(gomock.Any(), a.userID, domain.CheckStatusFailed, "c1", uint(v1handler.DefaultLimit)).
		Return([]domain.Check{{A: "a", B: "b", Status: domain.CheckStatusFailed}}, "c2", nil)

	rec := a.do(http.MethodGet, "/v1/checks?status=FAILED&cursor=c1", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `"c2"`, jsonField(t, rec.Body.Bytes(), "nextCursor"))
	require.True(t, strings.HasPrefix(jsonField(t, rec.Body.Bytes(), "items"), `[{"id"`))
}

func TestListChecks_LastPage(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().UserChecks(gomock.Any(), a.userID, domain.CheckStatus(""), "", uint(5)).
		Return(nil, "", nil)

	rec := a.do(http.MethodGet, "/v1/checks?limit=5", "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"items":[],"nextCursor":null}`, rec.Body.String())
}

func TestListChecks_InvalidLimit(t *testing.T) {
	a := newAPITest(t)

	for _, limit := range []string{"0", "101", "-1", "ten"} {
		rec := a.do(http.MethodGet, "/v1/checks?limit="+limit, "", true)
		require.Equal(t, http.StatusBadRequest, rec.Code, "limit %q", limit)
	}
}

func TestGetCheck(t *testing.T) {
	a := newAPITest(t)
	id := domain.CheckID(uuid.New())

	a.checker.EXPECT().Result(gomock.Any(), a.userID, id).Return(&domain.Check{
		ID: id, Status: domain.CheckStatusCompleted,
		Result: &domain.CheckResult{LengthMismatch: true},
	}, nil)

	rec := a.do(http.MethodGet, "/v1/checks/"+id.String(), "", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"anagram":false,"lengthMismatch":true}`, jsonField(t, rec.Body.Bytes(), "result"))
}

func TestGetCheck_NotFound(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().Result(gomock.Any(), a.userID, gomock.Any()).
		Return(nil, serrors.With(serrors.ErrNotFound, "check not found"))

	rec := a.do(http.MethodGet, "/v1/checks/"+uuid.NewString(), "", true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"code":"NOT_FOUND","message":"check not found"}`, rec.Body.String())
}

func TestGetCheck_InvalidID(t *testing.T) {
	a := newAPITest(t)

	rec := a.do(http.MethodGet, "/v1/checks/not-a-uuid", "", true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteCheck(t *testing.T) {
	a := newAPITest(t)
	id := domain.CheckID(uuid.New())

	a.checker.EXPECT().Delete(gomock.Any(), a.userID, id).Return(nil)

	rec := a.do(http.MethodDelete, "/v1/checks/"+id.String(), "", true)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Empty(t, rec.Body.String())
}

func TestInternalErrorHidesCause(t *testing.T) {
	a := newAPITest(t)

	a.checker.EXPECT().Delete(gomock.Any(), a.userID, gomock.Any()).
		DoAndReturn(func(context.Context, domain.UserID, domain.CheckID) error {
			return context.Canceled
		})

	rec := a.do(http.MethodDelete, "/v1/checks/"+uuid.NewString(), "", true)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"code":"INTERNAL","message":"internal error"}`, rec.Body.String())
}

func TestCreateCheck_NonTextInput(t *testing.T) {
	priv, pubPEM := genRSAKeys(t)
	sh := newSecHandlerForTest(t, pubPEM)

	// a real checker over a storage mock without expectations: rejected
	// input must never reach the database
	ctrl := gomock.NewController(t)
	chk := checker.New(mockstorage.NewMockStorage(ctrl), nil, checker.Options{MaxAttempts: 3})
	mux := http.NewServeMux()
	v1handler.New(v1handler.Deps{Checker: chk}).Register(mux, sh)

	uid := uuid.New()
	now := time.Now()
	token := signJWTRS256(t, priv, uid.String(), now, now.Add(time.Hour))

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"escaped nul", `{"a":"\u0000","b":"\u0000"}`, `"input a contains a NUL character"`},
		{"escaped nul async", `{"a":"ab","b":"b\u0000","async":true}`, `"input b contains a NUL character"`},
		{"raw invalid utf8", "{\"a\":\"\xff\",\"b\":\"a\"}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/checks", strings.NewReader(tt.body))
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.Equal(t, `"BAD_REQUEST"`, jsonField(t, rec.Body.Bytes(), "code"))
			if tt.message != "" {
				require.Equal(t, tt.message, jsonField(t, rec.Body.Bytes(), "message"))
			}
		})
	}
}
