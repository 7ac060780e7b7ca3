package ports

import (
	"context"

	"github.com/fmtdata/datafill/internal/core/domain"
)

// CreateDatasetInput carries the fields accepted on creation.
type CreateDatasetInput struct {
	Name        string
	Description string
	Category    string
	Data        []string
	// Session is the caller's session, nil when unauthenticated.
	Session *domain.UserSession
}

// UpdateDatasetInput carries a partial update; nil fields are left untouched.
type UpdateDatasetInput struct {
	ID          string
	Name        *string
	Description *string
	Category    *string
	Data        *[]string
}

// ListDatasetsInput carries the raw list parameters; the service clamps them.
type ListDatasetsInput struct {
	Category string
	Search   string
	Page     int
	Limit    int
}

// ListDatasetsResult is returned by ListDatasets.
type ListDatasetsResult struct {
	Items []*domain.Dataset
	Total int64
	Page  int
	Limit int
}

// SearchDatasetsInput carries the parameters of the ranked search endpoint.
type SearchDatasetsInput struct {
	Query    string
	Category string
	Limit    int
}

// SearchDatasetsResult is returned by SearchDatasets.
type SearchDatasetsResult struct {
	Items []*domain.Dataset
	Query string
}

// DatasetService defines use-case operations for datasets.
type DatasetService interface {
	CreateDataset(ctx context.Context, input CreateDatasetInput) (*domain.Dataset, error)
	GetDataset(ctx context.Context, id string) (*domain.Dataset, error)
	ListDatasets(ctx context.Context, input ListDatasetsInput) (*ListDatasetsResult, error)
	SearchDatasets(ctx context.Context, input SearchDatasetsInput) (*SearchDatasetsResult, error)
	PublicDatasets(ctx context.Context) (map[string]domain.PublicDataset, error)
	Categories(ctx context.Context) ([]string, error)
	UpdateDataset(ctx context.Context, input UpdateDatasetInput) (*domain.Dataset, error)
	DeleteDataset(ctx context.Context, id string) error
}
