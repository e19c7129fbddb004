package handler

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"skillhub/internal/config"
	"skillhub/internal/http/middleware"
	"skillhub/internal/ratelimit"
	"skillhub/internal/service"
)

// HealthCheck reports readiness by pinging the database.
//
//	@Summary	Readiness probe
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	errorPayload
//	@Router		/health [get]
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process is up.
//
//	@Summary	Liveness probe
//	@Tags		health
//	@Success	200
//	@Router		/healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

// SubmitSkill accepts a new skill document for processing.
//
//	@Summary	Submit a skill
//	@Tags		skills
//	@Accept		json
//	@Produce	json
//	@Param		payload	body		service.SubmitInput	true	"skill submission"
//	@Success	201		{object}	model.Skill
//	@Failure	400		{object}	errorPayload
//	@Router		/api/skills [post]
func SubmitSkill(svc service.SkillService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.SubmitInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "request body must be valid JSON")
		}

		skill, err := svc.Submit(c.UserContext(), in)
		if err != nil {
			var ve *service.ValidationError
			if errors.As(err, &ve) {
				return writeErrorDetails(c, fiber.StatusBadRequest, "VALIDATION_FAILED", "submission rejected", ve.Violations)
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(skill)
	}
}

// SearchSkills lists skills matching the query, paginated.
//
//	@Summary	Search skills
//	@Tags		skills
//	@Produce	json
//	@Param		q			query		string	false	"text query"
//	@Param		category	query		string	false	"category filter"
//	@Param		sort		query		string	false	"recent | popular | quality"
//	@Param		page		query		int		false	"page number"
//	@Param		limit		query		int		false	"page size"
//	@Success	200			{object}	service.SkillSearchResult
//	@Failure	400			{object}	errorPayload
//	@Router		/api/skills/search [get]
func SearchSkills(svc service.SkillService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		page, err := strconv.Atoi(c.Query("page", "1"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "invalid page")
		}
		limit, err := strconv.Atoi(c.Query("limit", "20"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}

		res, err := svc.Search(c.UserContext(), service.SearchParams{
			Query:    c.Query("q"),
			Category: c.Query("category"),
			Sort:     c.Query("sort"),
			Page:     page,
			Limit:    limit,
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetSkill returns a skill's metadata record.
//
//	@Summary	Get skill metadata
//	@Tags		skills
//	@Produce	json
//	@Param		id	path		string	true	"skill id"
//	@Success	200	{object}	model.Skill
//	@Failure	404	{object}	errorPayload
//	@Router		/api/skills/{id} [get]
func GetSkill(svc service.SkillService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		skill, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "skill not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(skill)
	}
}

// GetSkillContent returns the sanitized markdown body of a skill and
// counts the fetch as a download.
//
//	@Summary	Fetch skill content
//	@Tags		skills
//	@Produce	plain
//	@Param		id	path	string	true	"skill id"
//	@Success	200
//	@Failure	404	{object}	errorPayload
//	@Router		/api/skills/{id}/content [get]
func GetSkillContent(svc service.SkillService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.FetchContent(c.UserContext(), id)
		if err != nil {
			return writeContentError(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		c.Set("X-Skill-Name", res.SkillName)
		c.Set("X-Skill-Author", res.AuthorName)
		return c.Status(fiber.StatusOK).Send(res.Content)
	}
}

// DownloadSkill serves the sanitized markdown as a file attachment named
// after the skill, and counts it as a download.
//
//	@Summary	Download skill file
//	@Tags		skills
//	@Produce	plain
//	@Param		id	path	string	true	"skill id"
//	@Success	200
//	@Failure	404	{object}	errorPayload
//	@Router		/api/skills/{id}/download [get]
func DownloadSkill(svc service.SkillService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := svc.FetchContent(c.UserContext(), id)
		if err != nil {
			return writeContentError(c, err)
		}
		c.Set(fiber.HeaderContentType, "text/markdown; charset=utf-8")
		c.Set("X-Skill-Name", res.SkillName)
		c.Set("X-Skill-Author", res.AuthorName)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+downloadFilename(res.SkillName)+`"`)
		return c.Status(fiber.StatusOK).Send(res.Content)
	}
}

// writeContentError maps FetchContent failures shared by the content and
// download endpoints.
func writeContentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "skill not found")
	case errors.Is(err, service.ErrContentMissing):
		return writeError(c, fiber.StatusInternalServerError, "CONTENT_MISSING", "skill content unavailable")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// downloadFilename turns a skill name into a safe attachment filename:
// every non-alphanumeric character becomes a hyphen, lowercased, ".md" appended.
func downloadFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String() + ".md"
}

// RegisterRoutes attaches all HTTP routes to the provided Fiber app. The
// limiter may be nil, in which case no per-endpoint quotas are enforced
// (tests rely on this).
func RegisterRoutes(app *fiber.App, db *sql.DB, svc service.SkillService, limiter *ratelimit.Limiter, rl config.RateLimitConfig) {
	gate := func(scope string, rule config.RateLimitRule) fiber.Handler {
		if limiter == nil {
			return middleware.Noop()
		}
		return middleware.RateLimit(limiter, scope, rule)
	}

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")
	api.Post("/skills", gate("submit", rl.Submit), SubmitSkill(svc))
	// Register /search ahead of /:id so it is not captured as an id.
	api.Get("/skills/search", gate("search", rl.Search), SearchSkills(svc))
	api.Get("/skills/:id", gate("metadata", rl.Metadata), GetSkill(svc))
	api.Get("/skills/:id/content", gate("content", rl.Content), GetSkillContent(svc))
	api.Get("/skills/:id/download", gate("download", rl.Download), DownloadSkill(svc))
}
