package post

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/internal/repositories"
	"github.com/orgball2608/news-mobile-core/pkg/errors"
	"github.com/orgball2608/news-mobile-core/pkg/logger"
)

type Pgx struct {
	pg     *pgxpool.Pool
	logger logger.Logger
}

func NewPgx(pg *pgxpool.Pool, logger logger.Logger) *Pgx {
	return &Pgx{
		pg:     pg,
		logger: logger.WithComponent("PostRepo"),
	}
}

var _ Repository = (*Pgx)(nil)

// List returns all posts ordered by server timestamp, newest first
func (p *Pgx) List(ctx context.Context) ([]domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Select("id::text", "title", "description", "image", "image_base64", "user_email", "user_id", `"timestamp"`).
		From("posts").
		OrderBy(`"timestamp" DESC`, "id DESC").
		ToSql()
	if err != nil {
		return nil, repositories.ErrBadQuery
	}

	rows, err := p.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WrapKind(errors.ErrStoreUnavailable, err, "failed to list posts")
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		var (
			post        domain.Post
			image       *string
			imageBase64 *string
			createdAt   time.Time
		)
		if err := rows.Scan(&post.ID, &post.Title, &post.Description, &image, &imageBase64,
			&post.AuthorEmail, &post.AuthorID, &createdAt); err != nil {
			return nil, errors.WrapKind(errors.ErrStoreUnavailable, err, "failed to read posts")
		}

		post.Image = deref(image)
		post.ImageBase64 = deref(imageBase64)
		post.CreatedAt = &createdAt
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.WrapKind(errors.ErrStoreUnavailable, err, "failed to list posts")
	}

	return posts, nil
}

// Create inserts a post with a server-assigned id and timestamp
func (p *Pgx) Create(ctx context.Context, draft domain.Post, authorID, authorEmail string) (domain.Post, error) {
	query, args, err := repositories.SqBuilder.
		Insert("posts").
		Columns("title", "description", "image_base64", "user_email", "user_id").
		Values(draft.Title, draft.Description, nullable(draft.ImageBase64), authorEmail, nullable(authorID)).
		Suffix(`RETURNING id::text, "timestamp"`).
		ToSql()
	if err != nil {
		return domain.Post{}, repositories.ErrBadQuery
	}

	var (
		id        string
		createdAt time.Time
	)
	if err := p.pg.QueryRow(ctx, query, args...).Scan(&id, &createdAt); err != nil {
		return domain.Post{}, errors.WrapKind(errors.ErrStoreUnavailable, err, "failed to create post")
	}

	p.logger.Debug("Post created", "id", id, "user_id", authorID)

	created := domain.Post{
		ID:          id,
		Title:       draft.Title,
		Description: draft.Description,
		ImageBase64: draft.ImageBase64,
		AuthorEmail: authorEmail,
		CreatedAt:   &createdAt,
	}
	if authorID != "" {
		created.AuthorID = &authorID
	}
	return created, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
