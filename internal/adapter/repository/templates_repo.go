package repository

import (
	"context"
	"errors"

	"cvbuilder-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type TemplatesRepo struct {
	pool *pgxpool.Pool
}

func NewTemplatesRepo(pool *pgxpool.Pool) *TemplatesRepo {
	return &TemplatesRepo{pool: pool}
}

const templateColumns = `id, name, description, thumbnail, is_premium, is_active, template_html, template_css, created_at, updated_at`

func scanTemplate(row pgx.Row) (*domain.Template, error) {
	var t domain.Template
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Thumbnail, &t.IsPremium,
		&t.IsActive, &t.HTML, &t.CSS, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplatesRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM templates WHERE id=$1`, id)
	return scanTemplate(row)
}

// FirstActiveFree returns the fallback template: the oldest active free
// one, so the fallback stays stable as new templates are added.
func (r *TemplatesRepo) FirstActiveFree(ctx context.Context) (*domain.Template, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+templateColumns+`
		FROM templates WHERE is_active AND NOT is_premium
		ORDER BY created_at, name LIMIT 1`, )
	tpl, err := scanTemplate(row)
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return nil, domain.ErrNoTemplateAvailable
	}
	return tpl, err
}

// List returns active templates for the catalog, optionally filtered by
// premium flag. Detail bodies (HTML/CSS) are included; handlers decide
// what to expose.
func (r *TemplatesRepo) List(ctx context.Context, premium *bool) ([]domain.Template, error) {
	query := `SELECT ` + templateColumns + ` FROM templates WHERE is_active`
	args := []interface{}{}
	if premium != nil {
		query += ` AND is_premium=$1`
		args = append(args, *premium)
	}
	query += ` ORDER BY is_premium, name`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Template{}
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *tpl)
	}
	return out, rows.Err()
}
