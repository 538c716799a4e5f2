package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactkeval/option-picker/internal/data"
	"github.com/contactkeval/option-picker/internal/strategy"
	"github.com/contactkeval/option-picker/internal/testutil"
)

var expiry = time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prov := testutil.NewFakeProvider().SetSpot("XYZ", 100)
	for k := 50.0; k <= 150; k += 5 {
		prov.AddContract("XYZ", expiry, data.Call, k, 0.05*(200-k))
		prov.AddContract("XYZ", expiry, data.Put, k, 0.05*k)
	}
	return NewEngine(NewHandler(prov, strategy.Selector{Parallel: true}, 20))
}

func do(t *testing.T, g *gin.Engine, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestHealth(t *testing.T) {
	w, _ := do(t, newTestEngine(t), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStrategyGet(t *testing.T) {
	g := newTestEngine(t)

	w, out := do(t, g, http.MethodGet, "/api/v1/strategy?ticker=XYZ&expiration=2025-03-21&date=2025-02-21&target=135", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "Long Call", out["strategy"])
	assert.Equal(t, 100.0, out["current_price"])
	assert.Equal(t, 3.5, out["net_cost"])
	assert.Equal(t, "2025-02-21", out["as_of"])
	assert.Len(t, out["curve"], 20)
	assert.Len(t, out["legs"], 1)
}

func TestStrategyGet_ExplicitAndOverrides(t *testing.T) {
	g := newTestEngine(t)

	w, out := do(t, g, http.MethodGet,
		"/api/v1/strategy?ticker=XYZ&expiration=2025-03-21&current=100&target=95&strategy=iron-condor&short_call_strike=CURRENT%2B1&points=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "Iron Condor", out["strategy"])
	legs := out["legs"].([]any)
	require.Len(t, legs, 4)
	assert.Equal(t, 101.0, legs[2].(map[string]any)["strike"])
	assert.Len(t, out["curve"], 5)
}

func TestStrategyGet_Errors(t *testing.T) {
	g := newTestEngine(t)
	tests := map[string]struct {
		query string
		code  int
	}{
		"missing ticker":   {"expiration=2025-03-21&target=100", http.StatusBadRequest},
		"bad expiration":   {"ticker=XYZ&expiration=21-03-2025&target=100", http.StatusBadRequest},
		"negative target":  {"ticker=XYZ&expiration=2025-03-21&target=-5", http.StatusBadRequest},
		"unknown strategy": {"ticker=XYZ&expiration=2025-03-21&target=100&strategy=straddle", http.StatusBadRequest},
		"bad expression":   {"ticker=XYZ&expiration=2025-03-21&target=100&long_put_strike=FOO", http.StatusBadRequest},
		"no spot":          {"ticker=NOPE&expiration=2025-03-21&target=100", http.StatusBadGateway},
		"no chain":         {"ticker=NOPE&expiration=2025-03-21&current=100&target=100", http.StatusBadGateway},
		"unlisted expiry":  {"ticker=XYZ&expiration=2025-04-17&target=100", http.StatusBadGateway},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			w, out := do(t, g, http.MethodGet, "/api/v1/strategy?"+tt.query, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())
			assert.NotEmpty(t, out["error"])
		})
	}
}

func TestPayoffPost(t *testing.T) {
	g := newTestEngine(t)

	body := `{"legs":[{"strike":100,"is_call":true,"is_long":true,"premium":5},{"strike":110,"is_call":true,"is_long":false,"premium":2}],"low":90,"high":120,"points":4}`
	w, out := do(t, g, http.MethodPost, "/api/v1/payoff", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, 3.0, out["net_cost"])
	curve := out["curve"].([]any)
	require.Len(t, curve, 4)
	assert.Equal(t, map[string]any{"price": 90.0, "profit": -3.0}, curve[0])
	assert.Equal(t, map[string]any{"price": 120.0, "profit": 7.0}, curve[3])

	summary := out["summary"].(map[string]any)
	assert.Equal(t, 7.0, summary["max_profit"])
	assert.Equal(t, -3.0, summary["max_loss"])
	assert.Equal(t, []any{103.0}, summary["breakevens"])
}

func TestPayoffPost_DefaultRange(t *testing.T) {
	w, out := do(t, newTestEngine(t), http.MethodPost, "/api/v1/payoff",
		`{"legs":[{"strike":100,"is_call":false,"is_long":true,"premium":4}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	curve := out["curve"].([]any)
	require.Len(t, curve, 20)
	assert.Equal(t, 75.0, curve[0].(map[string]any)["price"])
	assert.Equal(t, 125.0, curve[19].(map[string]any)["price"])
}

func TestPayoffPost_Invalid(t *testing.T) {
	g := newTestEngine(t)
	for _, body := range []string{
		`not json`,
		`{"legs":[]}`,
		`{"legs":[{"strike":0,"is_call":true,"is_long":true,"premium":1}]}`,
		`{"legs":[{"strike":100,"is_call":true,"is_long":true,"premium":-1}]}`,
		`{"legs":[{"strike":100,"is_call":true,"is_long":true,"premium":1}],"low":120,"high":90}`,
	} {
		w, _ := do(t, g, http.MethodPost, "/api/v1/payoff", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer(addr, newTestEngine(t)).Run(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
