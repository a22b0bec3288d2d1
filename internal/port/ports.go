// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/timesheet-charts-go/internal/domain"
)

// MergeService merges uploaded CSV exports into one dataset CSV.
type MergeService interface {
	Merge(ctx context.Context, token string, req *domain.MergeRequest) (*domain.MergeResult, error)
}

// Authenticator exchanges credentials for an access token.
type Authenticator interface {
	Login(ctx context.Context, req *domain.LoginRequest) (string, error)
}

// TokenStore persists the access token between requests (and restarts).
// Load returns "" when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// DatasetStore keeps merged CSV snapshots.
type DatasetStore interface {
	Save(ctx context.Context, ds *domain.Dataset) error
	Get(ctx context.Context, id string) (*domain.Dataset, error)
	List(ctx context.Context, limit int) ([]domain.DatasetInfo, error)
	Delete(ctx context.Context, id string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
	DeletePrefix(prefix string) int
}

// Session holds the token used against the merge service.
type Session interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	Clear(ctx context.Context) error
	Status(ctx context.Context) (*domain.SessionStatus, error)
}
