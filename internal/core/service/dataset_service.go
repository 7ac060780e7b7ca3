package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/api/metrics"
	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

const (
	defaultSearchLimit = 20
	// timestampPrecision matches what MongoDB persists, so both stores
	// return identical timestamps.
	timestampPrecision = time.Millisecond
)

type DatasetService struct {
	store  ports.DatasetStore
	logger zerolog.Logger
	now    func() time.Time
	newID  func() (string, error)
}

func NewDatasetService(store ports.DatasetStore, logger zerolog.Logger) *DatasetService {
	return &DatasetService{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  newDatasetID,
	}
}

// newDatasetID returns a UUIDv7. Its string form sorts by creation time,
// which the Redis store relies on to break created_at ties like Mongo does.
func newDatasetID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// CreateDataset validates input, assigns id and timestamps and persists.
func (s *DatasetService) CreateDataset(ctx context.Context, input ports.CreateDatasetInput) (*domain.Dataset, error) {
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	category := strings.TrimSpace(input.Category)

	verr := &domain.ValidationError{}
	checkName(verr, name)
	checkLength(verr, "description", description, domain.MaxDescriptionLength)
	checkLength(verr, "category", category, domain.MaxCategoryLength)
	checkData(verr, input.Data)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("create dataset: generate id: %w", err)
	}

	createdBy := domain.AnonymousCreator
	if input.Session != nil && input.Session.ID != "" {
		createdBy = input.Session.ID
	}

	now := s.timestamp()
	d := &domain.Dataset{
		ID:          id,
		Name:        name,
		Description: description,
		Category:    category,
		Data:        append([]string(nil), input.Data...),
		CreatedAt:   now,
		UpdatedAt:   now,
		CreatedBy:   createdBy,
	}

	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}

	metrics.DatasetsCreatedTotal.WithLabelValues(s.store.Backend()).Inc()
	s.logger.Info().Str("dataset_id", d.ID).Str("name", d.Name).Str("created_by", createdBy).Msg("dataset created")
	return d, nil
}

func (s *DatasetService) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrDatasetNotFound
	}
	return s.store.Get(ctx, id)
}

// ListDatasets clamps paging parameters and returns one page.
func (s *DatasetService) ListDatasets(ctx context.Context, input ports.ListDatasetsInput) (*ports.ListDatasetsResult, error) {
	filter := ports.ListDatasetsFilter{
		Category: strings.TrimSpace(input.Category),
		Search:   strings.TrimSpace(input.Search),
		Page:     input.Page,
		Limit:    input.Limit,
	}
	if filter.Page < 1 {
		filter.Page = ports.DefaultPage
	}
	if filter.Limit <= 0 {
		filter.Limit = ports.DefaultLimit
	}
	if filter.Limit > ports.MaxLimit {
		filter.Limit = ports.MaxLimit
	}

	items, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}

	return &ports.ListDatasetsResult{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// SearchDatasets ranks the most recent matches by how closely the name
// matches the query, then truncates to the requested limit.
func (s *DatasetService) SearchDatasets(ctx context.Context, input ports.SearchDatasetsInput) (*ports.SearchDatasetsResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		verr := &domain.ValidationError{}
		verr.Add("q", "search query required")
		return nil, verr
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > ports.MaxLimit {
		limit = ports.MaxLimit
	}

	items, _, err := s.store.List(ctx, ports.ListDatasetsFilter{
		Category: strings.TrimSpace(input.Category),
		Search:   query,
		Page:     1,
		Limit:    ports.MaxLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("search datasets: %w", err)
	}

	rankByName(items, query)
	if len(items) > limit {
		items = items[:limit]
	}
	return &ports.SearchDatasetsResult{Items: items, Query: query}, nil
}

func (s *DatasetService) PublicDatasets(ctx context.Context) (map[string]domain.PublicDataset, error) {
	out, err := s.store.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("public datasets: %w", err)
	}
	return out, nil
}

func (s *DatasetService) Categories(ctx context.Context) ([]string, error) {
	out, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("categories: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

// UpdateDataset merges the supplied fields. UpdatedAt always moves forward,
// even when two writes land within the same millisecond.
func (s *DatasetService) UpdateDataset(ctx context.Context, input ports.UpdateDatasetInput) (*domain.Dataset, error) {
	patch := domain.DatasetPatch{Data: input.Data}

	verr := &domain.ValidationError{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		checkName(verr, name)
		patch.Name = &name
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		checkLength(verr, "description", description, domain.MaxDescriptionLength)
		patch.Description = &description
	}
	if input.Category != nil {
		category := strings.TrimSpace(*input.Category)
		checkLength(verr, "category", category, domain.MaxCategoryLength)
		patch.Category = &category
	}
	if input.Data != nil {
		checkData(verr, *input.Data)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	existing, err := s.GetDataset(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	patch.UpdatedAt = s.nextUpdatedAt(existing.UpdatedAt)

	updated, err := s.store.Update(ctx, input.ID, patch)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("dataset_id", updated.ID).Msg("dataset updated")
	return updated, nil
}

func (s *DatasetService) DeleteDataset(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrDatasetNotFound
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("dataset_id", id).Msg("dataset deleted")
	return nil
}

func (s *DatasetService) timestamp() time.Time {
	return s.now().UTC().Truncate(timestampPrecision)
}

func (s *DatasetService) nextUpdatedAt(prev time.Time) time.Time {
	t := s.timestamp()
	if !t.After(prev) {
		t = prev.Add(timestampPrecision)
	}
	return t
}

func checkName(verr *domain.ValidationError, name string) {
	if name == "" {
		verr.Add("name", "name is required")
		return
	}
	checkLength(verr, "name", name, domain.MaxNameLength)
}

func checkLength(verr *domain.ValidationError, field, value string, max int) {
	if utf8.RuneCountInString(value) > max {
		verr.Add(field, fmt.Sprintf("%s must be at most %d characters", field, max))
	}
}

func checkData(verr *domain.ValidationError, data []string) {
	if len(data) == 0 {
		verr.Add("data", "data array cannot be empty")
	}
}

// rankByName orders exact name matches first, then prefix, then substring,
// then description-only matches. The sort is stable so created_at order
// survives within a rank.
func rankByName(items []*domain.Dataset, query string) {
	q := strings.ToLower(query)
	rank := func(d *domain.Dataset) int {
		name := strings.ToLower(d.Name)
		switch {
		case name == q:
			return 0
		case strings.HasPrefix(name, q):
			return 1
		case strings.Contains(name, q):
			return 2
		default:
			return 3
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return rank(items[i]) < rank(items[j])
	})
}
