package repository

import (
	"context"
	"errors"
	"time"

	"cvbuilder-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// UsersRepo reads billing state from the users table. Entitlement checks
// go through here on every export, so a payment landing in the table takes
// effect on the next request.
type UsersRepo struct {
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{pool: pool}
}

func (r *UsersRepo) GetRequester(ctx context.Context, userID uuid.UUID) (domain.Requester, error) {
	var (
		req       domain.Requester
		status    string
		periodEnd *time.Time
	)
	err := r.pool.QueryRow(ctx, `SELECT is_premium, subscription_status, subscription_period_end
		FROM users WHERE id=$1`, userID).Scan(&req.IsPremium, &status, &periodEnd)
	if err != nil {
		// An unknown user gets no entitlements rather than an error: the
		// resume may reference a deleted account.
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Requester{}, nil
		}
		return domain.Requester{}, err
	}
	req.SubscriptionActive = status == "active" &&
		(periodEnd == nil || periodEnd.After(time.Now()))
	return req, nil
}
