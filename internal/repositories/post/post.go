package post

import (
	"context"

	"github.com/orgball2608/news-mobile-core/internal/domain"
)

//go:generate go run go.uber.org/mock/mockgen -source=post.go -destination=mocks/mock.go
type Repository interface {
	// List returns every post, newest first. It never returns a partial result.
	List(ctx context.Context) ([]domain.Post, error)

	// Create inserts draft authored by authorID. The store assigns the id and
	// timestamp; author fields on the draft are ignored.
	Create(ctx context.Context, draft domain.Post, authorID, authorEmail string) (domain.Post, error)
}
