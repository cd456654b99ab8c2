package server

import (
	"time"

	"github.com/orgball2608/news-mobile-core/internal/domain"
	"github.com/orgball2608/news-mobile-core/pkg/formatter"
)

const excerptLength = 200

type Error struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Profile struct {
	Email     *string        `json:"email,omitempty"`
	Icon      *string        `json:"icon,omitempty"`
	CreatedAt *time.Time     `json:"created_at,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

type SessionResponse struct {
	Identity     *Identity `json:"identity"`
	Profile      *Profile  `json:"profile"`
	IsLoading    bool      `json:"is_loading"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

type ProfileUpdateRequest struct {
	Email *string `json:"email"`
	Icon  *string `json:"icon"`
}

type Post struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	AuthorEmail string     `json:"author_email"`
	AuthorID    *string    `json:"author_id"`
	CreatedAt   *time.Time `json:"created_at"`
}

type ListPostsResponse struct {
	Posts        []Post `json:"posts"`
	IsLoading    bool   `json:"is_loading"`
	ErrorMessage string `json:"error_message,omitempty"`
}

type Article struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Excerpt     string  `json:"excerpt,omitempty"`
	URL         string  `json:"url"`
	ImageURL    *string `json:"image_url"`
	PublishedAt string  `json:"published_at"`
	Published   string  `json:"published"`
	Source      string  `json:"source"`
}

type ListNewsResponse struct {
	Articles     []Article `json:"articles"`
	IsLoading    bool      `json:"is_loading"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func toIdentity(id *domain.Identity) *Identity {
	if id == nil {
		return nil
	}
	return &Identity{ID: id.ID, Email: id.Email}
}

func toProfile(p *domain.Profile) *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		Email:     p.Email,
		Icon:      p.Icon,
		CreatedAt: p.CreatedAt,
		Extra:     p.Extra,
	}
}

func toPosts(posts []domain.Post, imageBaseURL string) []Post {
	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, Post{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			ImageURL:    p.ImageRef().URL(imageBaseURL),
			AuthorEmail: p.AuthorEmail,
			AuthorID:    p.AuthorID,
			CreatedAt:   p.CreatedAt,
		})
	}
	return out
}

func toArticles(articles []domain.Article, loc *time.Location) []Article {
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		var excerpt string
		if a.Description != nil {
			excerpt = formatter.Excerpt(*a.Description, excerptLength)
		}
		out = append(out, Article{
			Title:       a.Title,
			Description: a.Description,
			Excerpt:     excerpt,
			URL:         a.URL,
			ImageURL:    a.URLToImage,
			PublishedAt: a.PublishedAt,
			Published:   formatter.PublishedAt(a.PublishedAt, loc),
			Source:      a.SourceName(),
		})
	}
	return out
}
