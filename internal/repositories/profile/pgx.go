package profile

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/repositories"
	apperrors "github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
)

type PgxRepository struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

func NewPgxRepository(pool *pgxpool.Pool, logger logger.Logger) *PgxRepository {
	return &PgxRepository{
		pool:   pool,
		logger: logger.WithComponent("ProfileRepo"),
	}
}

var _ Repository = (*PgxRepository)(nil)

func (r *PgxRepository) Get(ctx context.Context, id string) (domain.Profile, error) {
	query, args, err := repositories.SqBuilder.
		Select("attributes").
		From("users").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Profile{}, repositories.ErrBadQuery
	}

	var attrs map[string]any
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&attrs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, ErrNotFound
		}
		return domain.Profile{}, apperrors.WrapKind(apperrors.ErrStoreUnavailable, err, "failed to fetch profile")
	}

	return domain.ProfileFromAttributes(attrs), nil
}

func (r *PgxRepository) Provision(ctx context.Context, id, email string) error {
	query, args, err := repositories.SqBuilder.
		Insert("users").
		Columns("id", "attributes").
		Values(id, sq.Expr("jsonb_build_object('email', ?::text, 'icon', '', 'created_at', now())", email)).
		Suffix("ON CONFLICT (id) DO UPDATE SET attributes = EXCLUDED.attributes").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return apperrors.WrapKind(apperrors.ErrStoreUnavailable, err, "failed to provision profile")
	}

	r.logger.Info("Profile provisioned", "user_id", id)
	return nil
}

func (r *PgxRepository) Update(ctx context.Context, id string, upd domain.ProfileUpdate) error {
	if upd.IsEmpty() {
		return nil
	}

	patch := make(map[string]any, 2)
	if upd.Email != nil {
		patch[domain.ProfileKeyEmail] = *upd.Email
	}
	if upd.Icon != nil {
		patch[domain.ProfileKeyIcon] = *upd.Icon
	}

	query, args, err := repositories.SqBuilder.
		Insert("users").
		Columns("id", "attributes").
		Values(id, sq.Expr("?::jsonb", patch)).
		Suffix("ON CONFLICT (id) DO UPDATE SET attributes = users.attributes || EXCLUDED.attributes").
		ToSql()
	if err != nil {
		return repositories.ErrBadQuery
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		return apperrors.WrapKind(apperrors.ErrStoreUnavailable, err, "failed to update profile")
	}
	return nil
}
