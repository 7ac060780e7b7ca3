package ports

import (
	"context"

	"github.com/fmtdata/datafill/internal/core/domain"
)

// Listing defaults and bounds. The service clamps before calling a store.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListDatasetsFilter carries the query parameters for listing datasets.
type ListDatasetsFilter struct {
	Category string // optional: exact match
	Search   string // optional: case-insensitive substring on name or description
	Page     int    // 1-based
	Limit    int    // rows per page, at most MaxLimit
}

// Skip is the number of rows before the requested page.
func (f ListDatasetsFilter) Skip() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// DatasetStore persists datasets. Implementations must be indistinguishable
// to callers: same errors, same ordering (created_at desc, id desc), same
// case-insensitive name uniqueness.
type DatasetStore interface {
	Create(ctx context.Context, d *domain.Dataset) error
	Get(ctx context.Context, id string) (*domain.Dataset, error)
	// List returns one page of datasets matching filter and the total match count.
	List(ctx context.Context, filter ListDatasetsFilter) ([]*domain.Dataset, int64, error)
	// ListPublic returns every dataset keyed by its lowercase name.
	ListPublic(ctx context.Context) (map[string]domain.PublicDataset, error)
	// Categories returns the distinct non-blank categories sorted ascending.
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id string, patch domain.DatasetPatch) (*domain.Dataset, error)
	Delete(ctx context.Context, id string) error

	Ping(ctx context.Context) error
	// Backend names the implementation ("redis" or "mongo").
	Backend() string
}
