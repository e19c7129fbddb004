package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillhub/internal/config"
	"skillhub/internal/ratelimit"
)

func TestClientKey(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = ClientKey(c)
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "x-forwarded-for takes the first entry",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1", "X-Real-IP": "10.0.0.2"},
			want:    "203.0.113.7",
		},
		{
			name:    "x-real-ip when no forwarded-for",
			headers: map[string]string{"X-Real-IP": "198.51.100.4"},
			want:    "198.51.100.4",
		},
		{
			name:    "cloudflare header as last resort",
			headers: map[string]string{"CF-Connecting-IP": "192.0.2.9"},
			want:    "192.0.2.9",
		},
		{
			name: "no headers falls back to unknown",
			want: "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			_, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.NewLimiter(time.Hour)
	defer limiter.Close()

	app := fiber.New()
	app.Use(RequestID())
	app.Use(RateLimit(limiter, "test", config.RateLimitRule{MaxRequests: 2, WindowSec: 60}))
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	do := func(ip string) *http.Response {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Real-IP", ip)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	t.Run("allows until the quota is spent", func(t *testing.T) {
		first := do("203.0.113.1")
		assert.Equal(t, fiber.StatusOK, first.StatusCode)
		assert.Equal(t, "2", first.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", first.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, first.Header.Get("X-RateLimit-Reset"))

		second := do("203.0.113.1")
		assert.Equal(t, fiber.StatusOK, second.StatusCode)
		assert.Equal(t, "0", second.Header.Get("X-RateLimit-Remaining"))
	})

	t.Run("denies over quota with retry-after and envelope", func(t *testing.T) {
		third := do("203.0.113.1")
		assert.Equal(t, fiber.StatusTooManyRequests, third.StatusCode)
		assert.NotEmpty(t, third.Header.Get("Retry-After"))

		body, err := io.ReadAll(third.Body)
		require.NoError(t, err)
		var payload struct {
			RequestID string `json:"request_id"`
			Error     struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, "RATE_LIMITED", payload.Error.Code)
		assert.NotEmpty(t, payload.RequestID)
	})

	t.Run("other clients are unaffected", func(t *testing.T) {
		other := do("203.0.113.2")
		assert.Equal(t, fiber.StatusOK, other.StatusCode)
	})
}
