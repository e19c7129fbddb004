package middleware

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"skillhub/internal/config"
	"skillhub/internal/ratelimit"
)

// ClientKey derives the rate-limit identity of a request. Proxy headers
// are checked in order of trust; an out-of-band request with none of
// them maps to a single shared "unknown" bucket.
func ClientKey(c *fiber.Ctx) string {
	if xff := c.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client.
		if i := strings.IndexByte(xff, ','); i >= 0 {
			xff = xff[:i]
		}
		if ip := strings.TrimSpace(xff); ip != "" {
			return ip
		}
	}
	if ip := c.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := c.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	return "unknown"
}

// RateLimit enforces a fixed-window quota per client per scope. Scopes
// isolate the counters of different endpoints so a burst of searches
// cannot exhaust a client's submit allowance.
func RateLimit(limiter *ratelimit.Limiter, scope string, rule config.RateLimitRule) fiber.Handler {
	window := time.Duration(rule.WindowSec) * time.Second

	return func(c *fiber.Ctx) error {
		res := limiter.Check(scope+":"+ClientKey(c), rule.MaxRequests, window)

		c.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

		if !res.Allowed {
			c.Set("Retry-After", strconv.Itoa(res.RetryAfter(time.Now())))
			rid, _ := c.Locals(RequestIDLocalKey).(string)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"request_id": rid,
				"error": fiber.Map{
					"code":    "RATE_LIMITED",
					"message": "rate limit exceeded, please try again later",
				},
			})
		}

		return c.Next()
	}
}
