package api_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"anagram/internal/api"
	"anagram/internal/api/handler/v1handler"
	mockchecker "anagram/internal/checker/mock"
	"anagram/pkg/anagram"
	"anagram/pkg/logger"
	"anagram/pkg/metrics"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	logger.Setup(logger.DevelopmentEnvironment)
	m.Run()
}

func genKeys(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)

	return priv, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// newTestServer starts the full server and returns a valid bearer token for it.
func newTestServer(t *testing.T) (*httptest.Server, *mockchecker.MockChecker, string) {
	t.Helper()

	priv, pubPEM := genKeys(t)
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(priv)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	mock := mockchecker.NewMockChecker(ctrl)

	reg := prometheus.NewRegistry()
	mp, err := metrics.NewMeterProvider(reg)
	require.NoError(t, err)

	srv, err := api.NewServer(api.Deps{
		Deps:          v1handler.Deps{Checker: mock},
		MeterProvider: mp,
		Gatherer:      reg,
	}, api.Options{
		SecHandlerOptions: &v1handler.SecHandlerOptions{PublicKey: pubPEM},
		RequestTimeout:    5 * time.Second,
		MaxBodyBytes:      64,
		AllowedOrigins:    []string{"*"},
		MetricsPath:       "/metrics",
	})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)

	return ts, mock, token
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	res, err := http.Get(url) //nolint: noctx
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	return res, string(body)
}

func TestNewServer_RequiresPublicKey(t *testing.T) {
	_, err := api.NewServer(api.Deps{}, api.Options{MetricsPath: "/metrics"})
	require.Error(t, err)
}

func TestServer_CompareThroughMiddleware(t *testing.T) {
	ts, mock, _ := newTestServer(t)
	mock.EXPECT().Compare(gomock.Any(), "abc", "cab").Return(anagram.Compare("abc", "cab"), nil)

	res, body := get(t, ts.URL+"/v1/compare?a=abc&b=cab")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"a":"abc","b":"cab","anagram":true}`, body)
	require.NotEmpty(t, res.Header.Get("X-Request-Id"))
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))

	// the request above is now visible in the metrics endpoint
	res, body = get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Contains(t, body, "http_server_request_duration")
}

func TestServer_BodyLimit(t *testing.T) {
	ts, _, token := newTestServer(t)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/v1/checks",
		strings.NewReader(`{"a":"`+strings.Repeat("x", 100)+`","b":"x"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusBadRequest, res.StatusCode)
	require.Contains(t, string(body), "request body exceeds 64 bytes")
}

func TestServer_Docs(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res, body := get(t, ts.URL+"/specs/v1.yaml")
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "application/yaml", res.Header.Get("Content-Type"))
	require.Contains(t, body, "operationId: compare")

	res, _ = get(t, ts.URL+"/v1/docs/")
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServer_Pprof(t *testing.T) {
	ts, _, _ := newTestServer(t)

	res, _ := get(t, ts.URL+"/debug/pprof/")
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestServer_UnknownMethod(t *testing.T) {
	ts, _, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/v1/compare", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, res.StatusCode)
}
