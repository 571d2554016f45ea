package migration

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Migration represents a database migration
type Migration struct {
	Name string
	Up   func(ctx context.Context, pool *pgxpool.Pool) error
}

// RunMigrations executes all necessary database migrations on startup
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("Starting database migrations")

	migrations := []Migration{
		{Name: "create_users", Up: createUsers},
		{Name: "create_templates", Up: createTemplates},
		{Name: "create_resumes", Up: createResumes},
	}

	for _, m := range migrations {
		if err := m.Up(ctx, pool); err != nil {
			slog.Error("Migration failed", "name", m.Name, "error", err)
			return err
		}
		slog.Info("Migration completed", "name", m.Name)
	}

	slog.Info("All migrations completed successfully")
	return nil
}

func createUsers(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			subscription_status TEXT NOT NULL DEFAULT '',
			subscription_period_end TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func createTemplates(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS templates (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT '',
			is_premium BOOLEAN NOT NULL DEFAULT FALSE,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			template_html TEXT NOT NULL,
			template_css TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func createResumes(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS resumes (
			id UUID PRIMARY KEY,
			session_id TEXT NOT NULL DEFAULT '',
			user_id UUID REFERENCES users(id) ON DELETE SET NULL,
			template_id UUID REFERENCES templates(id) ON DELETE SET NULL,
			full_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			city TEXT NOT NULL DEFAULT '',
			postal_code TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			linkedin_url TEXT NOT NULL DEFAULT '',
			github_url TEXT NOT NULL DEFAULT '',
			photo TEXT NOT NULL DEFAULT '',
			date_of_birth TEXT NOT NULL DEFAULT '',
			nationality TEXT NOT NULL DEFAULT '',
			driving_license TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			experience_data JSONB NOT NULL DEFAULT '[]'::jsonb,
			education_data JSONB NOT NULL DEFAULT '[]'::jsonb,
			skills_data JSONB NOT NULL DEFAULT '[]'::jsonb,
			languages_data JSONB NOT NULL DEFAULT '[]'::jsonb,
			certifications_data JSONB NOT NULL DEFAULT '[]'::jsonb,
			projects_data JSONB NOT NULL DEFAULT '[]'::jsonb,
			custom_sections JSONB NOT NULL DEFAULT '[]'::jsonb,
			is_paid BOOLEAN NOT NULL DEFAULT FALSE,
			payment_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_accessed TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_resumes_session ON resumes(session_id) WHERE session_id <> '';
		CREATE INDEX IF NOT EXISTS idx_resumes_user ON resumes(user_id) WHERE user_id IS NOT NULL;
	`)
	return err
}

// SeedDefaultTemplate inserts the bundled classic template when the catalog
// is empty. Best-effort: a missing templates directory is not fatal.
func SeedDefaultTemplate(ctx context.Context, pool *pgxpool.Pool, dir string) {
	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM templates`).Scan(&count); err != nil {
		slog.Warn("Template seed skipped", "error", err)
		return
	}
	if count > 0 {
		return
	}

	html, err := os.ReadFile(filepath.Join(dir, "classic.html"))
	if err != nil {
		slog.Warn("Template seed skipped", "error", err)
		return
	}
	css, err := os.ReadFile(filepath.Join(dir, "classic.css"))
	if err != nil {
		slog.Warn("Template seed skipped", "error", err)
		return
	}

	_, err = pool.Exec(ctx, `INSERT INTO templates
		(id, name, description, is_premium, is_active, template_html, template_css)
		VALUES (gen_random_uuid(), 'Classique', 'Mise en page sobre sur une colonne', FALSE, TRUE, $1, $2)`,
		string(html), string(css))
	if err != nil {
		slog.Warn("Template seed failed", "error", err)
		return
	}
	slog.Info("Seeded default template", "name", "Classique")
}
