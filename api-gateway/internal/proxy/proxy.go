// Package proxy forwards public /v1 routes to the owning service.
package proxy

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fincoach/fincoach/shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Upstreams holds the base URL of every service behind the gateway.
type Upstreams struct {
	Auth        string
	User        string
	Budget      string
	Transaction string
	Coach       string
	Verify      string
}

// LoadUpstreams reads AUTH_SERVICE_URL and friends, defaulting to the local ports.
func LoadUpstreams(v *viper.Viper) Upstreams {
	v.SetDefault("auth_service_url", "http://localhost:8081")
	v.SetDefault("user_service_url", "http://localhost:8082")
	v.SetDefault("budget_service_url", "http://localhost:8083")
	v.SetDefault("transaction_service_url", "http://localhost:8084")
	v.SetDefault("coach_service_url", "http://localhost:8085")
	v.SetDefault("verify_service_url", "http://localhost:8086")
	url := func(key string) string { return strings.TrimSuffix(v.GetString(key), "/") }
	return Upstreams{
		Auth:        url("auth_service_url"),
		User:        url("user_service_url"),
		Budget:      url("budget_service_url"),
		Transaction: url("transaction_service_url"),
		Coach:       url("coach_service_url"),
		Verify:      url("verify_service_url"),
	}
}

// NewClient returns the client used for upstream calls. Coach calls wait on
// the model, so the timeout is generous.
func NewClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}

// Register mounts every public route. Authenticated routes are rejected at
// the gateway before they reach a service; the service checks the token again.
func Register(router gin.IRouter, up Upstreams, client *http.Client) {
	auth := middleware.AuthMiddleware()

	router.POST("/v1/auth/login", Forward(client, up.Auth))
	router.POST("/v1/auth/refresh", Forward(client, up.Auth))
	router.POST("/v1/auth/logout", auth, Forward(client, up.Auth))

	router.POST("/v1/users", Forward(client, up.User))
	router.GET("/v1/users/profile", auth, Forward(client, up.User))
	router.PATCH("/v1/users/profile", auth, Forward(client, up.User))

	router.Any("/v1/transactions", auth, Forward(client, up.Transaction))
	router.Any("/v1/transactions/*path", auth, Forward(client, up.Transaction))

	router.Any("/v1/budgets/*path", auth, Forward(client, up.Budget))
	router.GET("/v1/alerts", auth, Forward(client, up.Budget))
	router.Any("/v1/alerts/*path", auth, Forward(client, up.Budget))

	router.Any("/v1/ai/*path", auth, Forward(client, up.Coach))
	router.Any("/v1/verify/*path", auth, Forward(client, up.Verify))
}

// hopHeaders are connection-scoped and must not be forwarded.
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// Forward relays the request to serviceURL with the same path and query and
// copies the response back. The request ID travels with it.
func Forward(client *http.Client, serviceURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
		if err != nil {
			middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create request")
			return
		}
		req.ContentLength = c.Request.ContentLength
		copyHeaders(req.Header, c.Request.Header)
		if id := c.GetString(middleware.RequestIDKey); id != "" {
			req.Header.Set(middleware.RequestIDHeader, id)
		}

		resp, err := client.Do(req)
		if err != nil {
			log.Ctx(c.Request.Context()).Error().Err(err).Str("upstream", serviceURL).Msg("Error proxying request")
			middleware.RespondWithError(c, http.StatusBadGateway, "Service unavailable")
			return
		}
		defer resp.Body.Close()

		// The gateway already echoed the request id.
		resp.Header.Del(middleware.RequestIDHeader)
		copyHeaders(c.Writer.Header(), resp.Header)
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			log.Ctx(c.Request.Context()).Warn().Err(err).Msg("Response copy interrupted")
		}
	}
}

func copyHeaders(dst, src http.Header) {
	for key, values := range src {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
