package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fincoach/fincoach/shared/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProtectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware(), Recovery())
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		userID, _ := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func TestAuthMiddleware(t *testing.T) {
	SetJWTSecret("test-secret")
	valid, err := IssueToken("usr-001", "alice@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := IssueToken("usr-001", "alice@example.com", -time.Minute)
	require.NoError(t, err)
	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "usr-001"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name           string
		header         string
		expectedStatus int
	}{
		{name: "success - valid bearer token", header: "Bearer " + valid, expectedStatus: http.StatusOK},
		{name: "unauthorised - missing header", header: "", expectedStatus: http.StatusUnauthorized},
		{name: "unauthorised - wrong scheme", header: "Basic " + valid, expectedStatus: http.StatusUnauthorized},
		{name: "unauthorised - expired token", header: "Bearer " + expired, expectedStatus: http.StatusUnauthorized},
		{name: "unauthorised - alg none", header: "Bearer " + unsigned, expectedStatus: http.StatusUnauthorized},
		{name: "unauthorised - garbage", header: "Bearer not.a.token", expectedStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newProtectedRouter().ServeHTTP(w, req)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected %d got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareAcceptsTokenCookie(t *testing.T) {
	SetJWTSecret("test-secret")
	valid, err := IssueToken("usr-001", "alice@example.com", time.Hour)
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: TokenCookie, Value: valid})
	w := httptest.NewRecorder()
	newProtectedRouter().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "usr-001")
}

func TestParseTokenRejectsOtherSecret(t *testing.T) {
	SetJWTSecret("first")
	token, err := IssueToken("usr-001", "alice@example.com", time.Hour)
	require.NoError(t, err)

	SetJWTSecret("second")
	_, err = ParseToken(token)
	assert.Error(t, err)
}

func TestLoggingMiddlewareSetsRequestID(t *testing.T) {
	r := newProtectedRouter()

	req, _ := http.NewRequest(http.MethodGet, "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req, _ = http.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	w := httptest.NewRecorder()
	newProtectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error"}`, w.Body.String())
}

func TestRecoveryLogsPanicWithRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	logger.SetGlobal(logger.NewWithWriter(buf))

	req, _ := http.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "req-boom")
	w := httptest.NewRecorder()
	newProtectedRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "Panic recovered")
	assert.Contains(t, buf.String(), `"requestId":"req-boom"`)
	assert.Contains(t, buf.String(), `"path":"/panic"`)
}

type amountRequest struct {
	Amount   decimal.Decimal  `json:"amount" validate:"gt=0"`
	Budget   *decimal.Decimal `json:"monthlyBudget" validate:"omitempty,gte=0"`
	Type     string           `json:"type" validate:"required,oneof=Expense Income"`
	Internal string           `json:"-"`
}

func TestValidateRequestDecimals(t *testing.T) {
	negative := decimal.NewFromInt(-5)

	tests := []struct {
		name       string
		req        amountRequest
		wantFields []string
	}{
		{
			name: "valid",
			req:  amountRequest{Amount: decimal.RequireFromString("12.50"), Type: "Expense"},
		},
		{
			name:       "zero amount",
			req:        amountRequest{Amount: decimal.Zero, Type: "Expense"},
			wantFields: []string{"amount"},
		},
		{
			name:       "negative budget and bad type",
			req:        amountRequest{Amount: decimal.NewFromInt(1), Budget: &negative, Type: "Refund"},
			wantFields: []string{"monthlyBudget", "type"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateRequest(tt.req)
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}
