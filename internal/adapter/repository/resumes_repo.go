package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"cvbuilder-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type ResumesRepo struct {
	pool *pgxpool.Pool
}

func NewResumesRepo(pool *pgxpool.Pool) *ResumesRepo {
	return &ResumesRepo{pool: pool}
}

const resumeColumns = `id, session_id, user_id, template_id,
	full_name, email, phone, address, city, postal_code,
	website, linkedin_url, github_url, photo, date_of_birth,
	nationality, driving_license, title, summary,
	experience_data, education_data, skills_data, languages_data,
	certifications_data, projects_data, custom_sections,
	is_paid, payment_type, created_at, updated_at, last_accessed`

func scanResume(row pgx.Row) (*domain.Resume, error) {
	var (
		r    domain.Resume
		seqs [7][]byte
	)
	err := row.Scan(&r.ID, &r.SessionID, &r.UserID, &r.TemplateID,
		&r.FullName, &r.Email, &r.Phone, &r.Address, &r.City, &r.PostalCode,
		&r.Website, &r.LinkedinURL, &r.GithubURL, &r.Photo, &r.DateOfBirth,
		&r.Nationality, &r.DrivingLicense, &r.Title, &r.Summary,
		&seqs[0], &seqs[1], &seqs[2], &seqs[3], &seqs[4], &seqs[5], &seqs[6],
		&r.IsPaid, &r.PaymentType, &r.CreatedAt, &r.UpdatedAt, &r.LastAccessed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResumeNotFound
		}
		return nil, err
	}

	targets := []*[]interface{}{
		&r.Experience, &r.Education, &r.Skills, &r.Languages,
		&r.Certifications, &r.Projects, &r.CustomSections,
	}
	for i, raw := range seqs {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, targets[i]); err != nil {
			return nil, err
		}
	}
	return &r, nil
}

func marshalSequences(r *domain.Resume) ([7][]byte, error) {
	sources := [][]interface{}{
		r.Experience, r.Education, r.Skills, r.Languages,
		r.Certifications, r.Projects, r.CustomSections,
	}
	var out [7][]byte
	for i, seq := range sources {
		if seq == nil {
			seq = []interface{}{}
		}
		raw, err := json.Marshal(seq)
		if err != nil {
			return out, err
		}
		out[i] = raw
	}
	return out, nil
}

func (r *ResumesRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resume, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+resumeColumns+` FROM resumes WHERE id=$1`, id)
	return scanResume(row)
}

// Save upserts the full record. Timestamps are managed here: created_at is
// kept on conflict, updated_at always advances.
func (r *ResumesRepo) Save(ctx context.Context, res *domain.Resume) error {
	seqs, err := marshalSequences(res)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if res.CreatedAt.IsZero() {
		res.CreatedAt = now
	}
	res.UpdatedAt = now
	if res.LastAccessed.IsZero() {
		res.LastAccessed = now
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO resumes (`+resumeColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
			$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31)
		ON CONFLICT (id) DO UPDATE SET
			session_id=EXCLUDED.session_id,
			user_id=EXCLUDED.user_id,
			template_id=EXCLUDED.template_id,
			full_name=EXCLUDED.full_name,
			email=EXCLUDED.email,
			phone=EXCLUDED.phone,
			address=EXCLUDED.address,
			city=EXCLUDED.city,
			postal_code=EXCLUDED.postal_code,
			website=EXCLUDED.website,
			linkedin_url=EXCLUDED.linkedin_url,
			github_url=EXCLUDED.github_url,
			photo=EXCLUDED.photo,
			date_of_birth=EXCLUDED.date_of_birth,
			nationality=EXCLUDED.nationality,
			driving_license=EXCLUDED.driving_license,
			title=EXCLUDED.title,
			summary=EXCLUDED.summary,
			experience_data=EXCLUDED.experience_data,
			education_data=EXCLUDED.education_data,
			skills_data=EXCLUDED.skills_data,
			languages_data=EXCLUDED.languages_data,
			certifications_data=EXCLUDED.certifications_data,
			projects_data=EXCLUDED.projects_data,
			custom_sections=EXCLUDED.custom_sections,
			is_paid=EXCLUDED.is_paid,
			payment_type=EXCLUDED.payment_type,
			updated_at=EXCLUDED.updated_at,
			last_accessed=EXCLUDED.last_accessed`,
		res.ID, res.SessionID, res.UserID, res.TemplateID,
		res.FullName, res.Email, res.Phone, res.Address, res.City, res.PostalCode,
		res.Website, res.LinkedinURL, res.GithubURL, res.Photo, res.DateOfBirth,
		res.Nationality, res.DrivingLicense, res.Title, res.Summary,
		seqs[0], seqs[1], seqs[2], seqs[3], seqs[4], seqs[5], seqs[6],
		res.IsPaid, res.PaymentType, res.CreatedAt, res.UpdatedAt, res.LastAccessed)
	return err
}

// ListByOwner returns the resumes reachable by the caller, newest first.
// Either the user id or the session id may drive the match.
func (r *ResumesRepo) ListByOwner(ctx context.Context, userID *uuid.UUID, sessionID string) ([]domain.Resume, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+resumeColumns+` FROM resumes
		WHERE (user_id=$1 AND $1 IS NOT NULL) OR (session_id=$2 AND $2 <> '')
		ORDER BY updated_at DESC`, userID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Resume{}
	for rows.Next() {
		res, err := scanResume(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

// TouchLastAccessed records a read without bumping updated_at.
func (r *ResumesRepo) TouchLastAccessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE resumes SET last_accessed=$2 WHERE id=$1`, id, time.Now().UTC())
	return err
}

func (r *ResumesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resumes WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrResumeNotFound
	}
	return nil
}

// MigrateSession reassigns every resume of an anonymous session to the
// authenticated user and clears the session marker. Returns the ids moved.
func (r *ResumesRepo) MigrateSession(ctx context.Context, sessionID string, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `UPDATE resumes
		SET user_id=$2, session_id='', updated_at=$3
		WHERE session_id=$1 RETURNING id`, sessionID, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
