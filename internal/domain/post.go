package domain

import (
	"strings"
	"time"
)

type ImageKind int

const (
	ImageNone ImageKind = iota
	ImageInline
	ImageRemote
)

// ImageRef points at the picture attached to a post. Inline payloads are
// self-contained base64 JPEG data, remote paths are served by the static
// image origin.
type ImageRef struct {
	Kind   ImageKind
	Inline string
	Path   string
}

// URL resolves the reference for rendering. Inline payloads become data URIs.
func (r ImageRef) URL(baseURL string) string {
	switch r.Kind {
	case ImageInline:
		return "data:image/jpeg;base64," + r.Inline
	case ImageRemote:
		if strings.HasPrefix(r.Path, "http://") || strings.HasPrefix(r.Path, "https://") {
			return r.Path
		}
		return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(r.Path, "/")
	default:
		return ""
	}
}

type Post struct {
	ID          string     // Store-assigned, empty on drafts
	Title       string     // Display title
	Description string     // Free text, may be empty
	Image       string     // Remote path written by the web client (/static/uploads/...)
	ImageBase64 string     // Inline payload written by this client
	AuthorEmail string     // Denormalized at creation time
	AuthorID    *string    // Nil for legacy documents
	CreatedAt   *time.Time // Server timestamp, nil until the write is acknowledged
}

// IsDraft reports whether the post has not been persisted yet.
func (p Post) IsDraft() bool {
	return p.ID == "" || p.CreatedAt == nil
}

func (p Post) ImageRef() ImageRef {
	if p.ImageBase64 != "" {
		return ImageRef{Kind: ImageInline, Inline: p.ImageBase64}
	}
	if p.Image != "" {
		return ImageRef{Kind: ImageRemote, Path: p.Image}
	}
	return ImageRef{}
}
