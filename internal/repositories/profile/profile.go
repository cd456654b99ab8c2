package profile

import (
	"context"
	"errors"

	"github.com/orgball2608/news-mobile-core/internal/domain"
)

var ErrNotFound = errors.New("profile not found")

//go:generate go run go.uber.org/mock/mockgen -source=profile.go -destination=mocks/mock.go
type Repository interface {
	// Get returns the profile document of the identity
	Get(ctx context.Context, id string) (domain.Profile, error)

	// Provision writes the initial document created at sign-up: email, an
	// empty icon and a server-assigned creation time
	Provision(ctx context.Context, id, email string) error

	// Update merges the given attributes into the document, creating it if needed
	Update(ctx context.Context, id string, upd domain.ProfileUpdate) error
}
