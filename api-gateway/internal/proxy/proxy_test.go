package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoUpstream answers with what it received.
func echoUpstream(t *testing.T, name string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Upstream", name)
		w.Header().Set("X-Seen-Request-ID", r.Header.Get(middleware.RequestIDHeader))
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, r.Method+" "+r.URL.RequestURI()+" "+string(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newGateway(t *testing.T) (*gin.Engine, Upstreams) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetJWTSecret("gateway-test-secret")

	up := Upstreams{
		Auth:        echoUpstream(t, "auth").URL,
		User:        echoUpstream(t, "user").URL,
		Budget:      echoUpstream(t, "budget").URL,
		Transaction: echoUpstream(t, "transaction").URL,
		Coach:       echoUpstream(t, "coach").URL,
		Verify:      echoUpstream(t, "verify").URL,
	}
	r := gin.New()
	r.Use(middleware.LoggingMiddleware())
	Register(r, up, &http.Client{Timeout: time.Second})
	return r, up
}

func bearer(t *testing.T) string {
	t.Helper()
	token, err := middleware.IssueToken("usr-001", "a@b.in", time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRoutesReachOwningService(t *testing.T) {
	router, _ := newGateway(t)

	tests := []struct {
		method   string
		path     string
		auth     bool
		upstream string
	}{
		{http.MethodPost, "/v1/auth/login", false, "auth"},
		{http.MethodPost, "/v1/users", false, "user"},
		{http.MethodGet, "/v1/users/profile", true, "user"},
		{http.MethodGet, "/v1/transactions?days=60", true, "transaction"},
		{http.MethodPost, "/v1/transactions/sms", true, "transaction"},
		{http.MethodGet, "/v1/budgets/current", true, "budget"},
		{http.MethodPatch, "/v1/alerts/alt-1/read", true, "budget"},
		{http.MethodPost, "/v1/ai/ask", true, "coach"},
		{http.MethodPost, "/v1/verify/link", true, "verify"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{"k":"v"}`))
			req.Header.Set(middleware.RequestIDHeader, "req-42")
			if tt.auth {
				req.Header.Set("Authorization", bearer(t))
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusCreated, w.Code)
			assert.Equal(t, tt.upstream, w.Header().Get("X-Upstream"))
			assert.Equal(t, "req-42", w.Header().Get("X-Seen-Request-ID"))
			assert.Equal(t, []string{"req-42"}, w.Header().Values(middleware.RequestIDHeader))
			assert.Equal(t, tt.method+" "+tt.path+` {"k":"v"}`, w.Body.String())
		})
	}
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	router, _ := newGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/budgets/current", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("X-Upstream"))
}

func TestUnreachableUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	r := gin.New()
	r.POST("/v1/auth/login", Forward(&http.Client{Timeout: time.Second}, dead.URL))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"message":"Service unavailable"}`, w.Body.String())
}

func TestLoadUpstreams(t *testing.T) {
	t.Setenv("COACH_SERVICE_URL", "http://coach:8085/")
	v := viper.New()
	v.AutomaticEnv()

	up := LoadUpstreams(v)
	assert.Equal(t, "http://coach:8085", up.Coach)
	assert.Equal(t, "http://localhost:8081", up.Auth)
}
