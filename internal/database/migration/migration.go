package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_table_skills",
		SQL: `CREATE TABLE IF NOT EXISTS skills (
  id                    UUID             PRIMARY KEY,
  name                  TEXT             NOT NULL,
  description           TEXT             NOT NULL,
  author_name           TEXT             NOT NULL,
  author_email          TEXT             NOT NULL,
  author_description    TEXT,
  keywords              JSONB            NOT NULL DEFAULT '[]',
  categories            JSONB            NOT NULL DEFAULT '[]',
  original_url          TEXT             NOT NULL,
  processed_url         TEXT             NOT NULL,
  security_issues_found BOOLEAN          NOT NULL DEFAULT FALSE,
  modifications_made    JSONB            NOT NULL DEFAULT '[]',
  quality_score         DOUBLE PRECISION NOT NULL DEFAULT 0.5,
  downloads             BIGINT           NOT NULL DEFAULT 0 CHECK (downloads >= 0),
  uploaded_at           TIMESTAMPTZ      NOT NULL DEFAULT now(),
  updated_at            TIMESTAMPTZ      NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_skills_uploaded_at",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_skills_uploaded_at ON skills (uploaded_at DESC);`,
	},
	{
		Name: "create_index_skills_downloads",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_skills_downloads ON skills (downloads DESC);`,
	},
	{
		Name: "create_index_skills_quality_score",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_skills_quality_score ON skills (quality_score DESC);`,
	},
	{
		Name: "create_index_skills_categories",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_skills_categories ON skills USING GIN (categories);`,
	},
}

// EnsureMigrated checks if the 'skills' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.skills') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
