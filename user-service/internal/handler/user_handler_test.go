package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fincoach/fincoach/shared/cqrs"
	"github.com/fincoach/fincoach/shared/errs"
	"github.com/fincoach/fincoach/shared/models"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ---- mock implementations ----

type mockUserCommander struct {
	registerFn func(cqrs.RegisterUserCommand) (*models.UserView, error)
	updateFn   func(cqrs.UpdateProfileCommand) (*models.UserView, error)
}

func (m *mockUserCommander) RegisterUser(_ context.Context, cmd cqrs.RegisterUserCommand) (*models.UserView, error) {
	if m.registerFn != nil {
		return m.registerFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdateProfile(_ context.Context, cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockUserQuerier struct {
	getFn func(cqrs.GetProfileQuery) (*models.UserView, error)
}

func (m *mockUserQuerier) GetProfile(_ context.Context, q cqrs.GetProfileQuery) (*models.UserView, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	}
}

func newUserTestRouter(cmds UserCommander, qrys UserQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuthUser(authUserID))
	h := NewUserHandler(cmds, qrys)
	v1 := r.Group("/v1/users")
	v1.POST("", h.RegisterUser)
	v1.GET("/profile", h.GetProfile)
	v1.PATCH("/profile", h.UpdateProfile)
	return r
}

func userDoRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var uTestUserView = &models.UserView{
	ID: "usr-001", Username: "alice", Email: "alice@example.com",
	MonthlyBudget: decimal.NewFromInt(10000),
	CreatedAt:     time.Now(), UpdatedAt: time.Now(),
}

func uValidRegisterBody() map[string]interface{} {
	return map[string]interface{}{
		"username": "alice", "email": "alice@example.com",
		"password": "securepass123", "monthlyBudget": 10000,
	}
}

// ---- tests ----

func TestRegisterUser(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		registerFn     func(cqrs.RegisterUserCommand) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name: "success - creates new user",
			body: uValidRegisterBody(),
			registerFn: func(cmd cqrs.RegisterUserCommand) (*models.UserView, error) {
				if !cmd.MonthlyBudget.Equal(decimal.NewFromInt(10000)) {
					return nil, fmt.Errorf("unexpected budget %s", cmd.MonthlyBudget)
				}
				return uTestUserView, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "success - budget defaults to zero",
			body:           map[string]interface{}{"username": "bob", "email": "bob@example.com", "password": "secret"},
			registerFn:     func(cmd cqrs.RegisterUserCommand) (*models.UserView, error) { return uTestUserView, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "conflict - email already registered",
			body:           uValidRegisterBody(),
			registerFn:     func(cmd cqrs.RegisterUserCommand) (*models.UserView, error) { return nil, errs.ErrEmailExists },
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "server error - store unavailable",
			body:           uValidRegisterBody(),
			registerFn:     func(cmd cqrs.RegisterUserCommand) (*models.UserView, error) { return nil, errs.ErrStoreUnavailable },
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "bad request - missing required fields",
			body:           map[string]interface{}{"email": "alice@example.com"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - invalid email format",
			body:           map[string]interface{}{"username": "alice", "email": "not-valid", "password": "pass12345"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - short password",
			body:           map[string]interface{}{"username": "alice", "email": "alice@example.com", "password": "12345"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - negative budget",
			body:           map[string]interface{}{"username": "alice", "email": "alice@example.com", "password": "123456", "monthlyBudget": -1},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{registerFn: tt.registerFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, "")
			w := userDoRequest(router, http.MethodPost, "/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRegisterUserNeverReturnsPasswordHash(t *testing.T) {
	cmds := &mockUserCommander{registerFn: func(cmd cqrs.RegisterUserCommand) (*models.UserView, error) { return uTestUserView, nil }}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, "")
	w := userDoRequest(router, http.MethodPost, "/v1/users", uValidRegisterBody())
	if strings.Contains(w.Body.String(), "password") {
		t.Errorf("response leaks password data: %s", w.Body.String())
	}
}

func TestGetProfile(t *testing.T) {
	tests := []struct {
		name           string
		authUserID     string
		getFn          func(cqrs.GetProfileQuery) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name:       "success - fetch own profile",
			authUserID: "usr-001",
			getFn: func(q cqrs.GetProfileQuery) (*models.UserView, error) {
				if q.UserID != "usr-001" {
					return nil, errs.ErrUserNotFound
				}
				return uTestUserView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - user does not exist",
			authUserID:     "usr-999",
			getFn:          func(q cqrs.GetProfileQuery) (*models.UserView, error) { return nil, errs.ErrUserNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "server error - store unavailable",
			authUserID:     "usr-001",
			getFn:          func(q cqrs.GetProfileQuery) (*models.UserView, error) { return nil, errs.ErrStoreUnavailable },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{getFn: tt.getFn}, tt.authUserID)
			w := userDoRequest(router, http.MethodGet, "/v1/users/profile", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		updateFn       func(cqrs.UpdateProfileCommand) (*models.UserView, error)
		expectedStatus int
	}{
		{
			name: "success - budget only",
			body: map[string]interface{}{"monthlyBudget": 15000},
			updateFn: func(cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
				if cmd.Username != nil || cmd.MonthlyBudget == nil {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return uTestUserView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "success - username only",
			body: map[string]interface{}{"username": "alice2"},
			updateFn: func(cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
				if cmd.Username == nil || *cmd.Username != "alice2" || cmd.MonthlyBudget != nil {
					return nil, fmt.Errorf("unexpected command %+v", cmd)
				}
				return uTestUserView, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found - user was removed",
			body:           map[string]interface{}{"username": "alice2"},
			updateFn:       func(cmd cqrs.UpdateProfileCommand) (*models.UserView, error) { return nil, errs.ErrUserNotFound },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - negative budget",
			body:           map[string]interface{}{"monthlyBudget": -100},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "bad request - blank username rejected by the service",
			body: map[string]interface{}{"username": "  "},
			updateFn: func(cmd cqrs.UpdateProfileCommand) (*models.UserView, error) {
				return nil, fmt.Errorf("%w: username must not be empty", errs.ErrInvalidInput)
			},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{updateFn: tt.updateFn}, &mockUserQuerier{}, "usr-001")
			w := userDoRequest(router, http.MethodPatch, "/v1/users/profile", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
