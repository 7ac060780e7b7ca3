package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// InstrumentStore wraps a DatasetStore and records StoreOperationDuration
// for every call.
func InstrumentStore(next ports.DatasetStore) ports.DatasetStore {
	return &instrumentedStore{next: next}
}

type instrumentedStore struct {
	next ports.DatasetStore
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	StoreOperationDuration.
		WithLabelValues(s.next.Backend(), op, resultLabel(err)).
		Observe(time.Since(start).Seconds())
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDatasetNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrDuplicateName):
		return "duplicate"
	default:
		return "error"
	}
}

func (s *instrumentedStore) Create(ctx context.Context, d *domain.Dataset) error {
	start := time.Now()
	err := s.next.Create(ctx, d)
	s.observe("create", start, err)
	return err
}

func (s *instrumentedStore) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	start := time.Now()
	d, err := s.next.Get(ctx, id)
	s.observe("get", start, err)
	return d, err
}

func (s *instrumentedStore) List(ctx context.Context, f ports.ListDatasetsFilter) ([]*domain.Dataset, int64, error) {
	start := time.Now()
	items, total, err := s.next.List(ctx, f)
	s.observe("list", start, err)
	return items, total, err
}

func (s *instrumentedStore) ListPublic(ctx context.Context) (map[string]domain.PublicDataset, error) {
	start := time.Now()
	out, err := s.next.ListPublic(ctx)
	s.observe("list_public", start, err)
	return out, err
}

func (s *instrumentedStore) Categories(ctx context.Context) ([]string, error) {
	start := time.Now()
	out, err := s.next.Categories(ctx)
	s.observe("categories", start, err)
	return out, err
}

func (s *instrumentedStore) Update(ctx context.Context, id string, p domain.DatasetPatch) (*domain.Dataset, error) {
	start := time.Now()
	d, err := s.next.Update(ctx, id, p)
	s.observe("update", start, err)
	return d, err
}

func (s *instrumentedStore) Delete(ctx context.Context, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, id)
	s.observe("delete", start, err)
	return err
}

func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumentedStore) Backend() string {
	return s.next.Backend()
}
