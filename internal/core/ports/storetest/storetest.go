// Package storetest is a conformance suite every ports.DatasetStore must pass.
// Backends call Run from their own tests with a factory that returns an
// empty store.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) ports.DatasetStore

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s ports.DatasetStore)
	}{
		{"CreateAndGet", testCreateAndGet},
		{"GetUnknown", testGetUnknown},
		{"DuplicateNameIgnoresCase", testDuplicateName},
		{"ListPagination", testListPagination},
		{"ListFilters", testListFilters},
		{"ListPublic", testListPublic},
		{"Categories", testCategories},
		{"UpdatePartial", testUpdatePartial},
		{"UpdateRename", testUpdateRename},
		{"UpdateUnknown", testUpdateUnknown},
		{"Delete", testDelete},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

// NewDataset builds a valid record created offset after the suite epoch.
func NewDataset(t *testing.T, name string, offset time.Duration) *domain.Dataset {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	at := epoch.Add(offset)
	return &domain.Dataset{
		ID:        id.String(),
		Name:      name,
		Data:      []string{"a", "b"},
		CreatedAt: at,
		UpdatedAt: at,
		CreatedBy: domain.AnonymousCreator,
	}
}

func mustCreate(t *testing.T, s ports.DatasetStore, d *domain.Dataset) *domain.Dataset {
	t.Helper()
	require.NoError(t, s.Create(context.Background(), d))
	return d
}

func testCreateAndGet(t *testing.T, s ports.DatasetStore) {
	ctx := context.Background()
	d := NewDataset(t, "first-names", 0)
	d.Description = "Common first names"
	d.Category = "names"
	d.Data = []string{"Ann", "Bo", "Cy"}
	d.CreatedBy = "user-1"
	mustCreate(t, s, d)

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, "first-names", got.Name)
	assert.Equal(t, "Common first names", got.Description)
	assert.Equal(t, "names", got.Category)
	assert.Equal(t, []string{"Ann", "Bo", "Cy"}, got.Data)
	assert.True(t, d.CreatedAt.Equal(got.CreatedAt))
	assert.True(t, d.UpdatedAt.Equal(got.UpdatedAt))
	assert.Equal(t, "user-1", got.CreatedBy)
}

func testGetUnknown(t *testing.T, s ports.DatasetStore) {
	_, err := s.Get(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func testDuplicateName(t *testing.T, s ports.DatasetStore) {
	mustCreate(t, s, NewDataset(t, "Colors", 0))

	err := s.Create(context.Background(), NewDataset(t, "colors", time.Second))
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	_, total, err := s.List(context.Background(), ports.ListDatasetsFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func testListPagination(t *testing.T, s ports.DatasetStore) {
	created := make([]*domain.Dataset, 25)
	for i := range created {
		created[i] = mustCreate(t, s, NewDataset(t, fmt.Sprintf("set-%02d", i), time.Duration(i)*time.Second))
	}

	items, total, err := s.List(context.Background(), ports.ListDatasetsFilter{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(25), total)
	require.Len(t, items, 10)
	// newest first: page 2 holds the 11th..20th newest
	for i, d := range items {
		assert.Equal(t, created[24-10-i].ID, d.ID)
	}

	items, _, err = s.List(context.Background(), ports.ListDatasetsFilter{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, items, 5)

	items, total, err = s.List(context.Background(), ports.ListDatasetsFilter{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(25), total)
}

func testListFilters(t *testing.T, s ports.DatasetStore) {
	a := NewDataset(t, "first-names", 0)
	a.Category = "names"
	b := NewDataset(t, "last-names", time.Second)
	b.Category = "names"
	c := NewDataset(t, "cities", 2*time.Second)
	c.Category = "location"
	c.Description = "Major cities (Names of places)"
	for _, d := range []*domain.Dataset{a, b, c} {
		mustCreate(t, s, d)
	}

	items, total, err := s.List(context.Background(), ports.ListDatasetsFilter{Category: "names", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)
	assert.Equal(t, a.ID, items[1].ID)

	items, total, err = s.List(context.Background(), ports.ListDatasetsFilter{Search: "NAMES", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, items, 3)

	// regex metacharacters are matched literally
	items, total, err = s.List(context.Background(), ports.ListDatasetsFilter{Search: "(names", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, c.ID, items[0].ID)

	items, total, err = s.List(context.Background(), ports.ListDatasetsFilter{Category: "names", Search: "last", Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, b.ID, items[0].ID)
}

func testListPublic(t *testing.T, s ports.DatasetStore) {
	mustCreate(t, s, &domain.Dataset{
		ID:        uuid.NewString(),
		Name:      "First-Names",
		Data:      []string{"Ann", "Bo"},
		CreatedAt: epoch,
		UpdatedAt: epoch,
		CreatedBy: domain.AnonymousCreator,
	})
	withDesc := NewDataset(t, "colors", time.Second)
	withDesc.Description = "Design colors"
	mustCreate(t, s, withDesc)

	got, err := s.ListPublic(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.PublicDataset{
		"first-names": {Description: "", Data: []string{"Ann", "Bo"}},
		"colors":      {Description: "Design colors", Data: []string{"a", "b"}},
	}, got)
}

func testCategories(t *testing.T, s ports.DatasetStore) {
	for i, cat := range []string{"names", "", "location", "names", "business"} {
		d := NewDataset(t, fmt.Sprintf("set-%d", i), time.Duration(i)*time.Second)
		d.Category = cat
		mustCreate(t, s, d)
	}

	got, err := s.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"business", "location", "names"}, got)
}

func testUpdatePartial(t *testing.T, s ports.DatasetStore) {
	ctx := context.Background()
	d := NewDataset(t, "emails", 0)
	d.Description = "Sample emails"
	d.Category = "contact"
	mustCreate(t, s, d)

	data := []string{"x@example.com"}
	later := d.UpdatedAt.Add(time.Minute)
	updated, err := s.Update(ctx, d.ID, domain.DatasetPatch{Data: &data, UpdatedAt: later})
	require.NoError(t, err)
	assert.Equal(t, data, updated.Data)
	assert.Equal(t, "emails", updated.Name)
	assert.Equal(t, "Sample emails", updated.Description)
	assert.Equal(t, "contact", updated.Category)
	assert.True(t, later.Equal(updated.UpdatedAt))
	assert.True(t, d.CreatedAt.Equal(updated.CreatedAt))

	got, err := s.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)
	assert.True(t, later.Equal(got.UpdatedAt))
}

func testUpdateRename(t *testing.T, s ports.DatasetStore) {
	ctx := context.Background()
	a := mustCreate(t, s, NewDataset(t, "cities", 0))
	mustCreate(t, s, NewDataset(t, "countries", time.Second))

	taken := "Countries"
	_, err := s.Update(ctx, a.ID, domain.DatasetPatch{Name: &taken, UpdatedAt: epoch.Add(time.Hour)})
	assert.ErrorIs(t, err, domain.ErrDuplicateName)

	// a case-only rename keeps the name owned by the same record
	recased := "Cities"
	_, err = s.Update(ctx, a.ID, domain.DatasetPatch{Name: &recased, UpdatedAt: epoch.Add(time.Hour)})
	require.NoError(t, err)

	renamed := "towns"
	_, err = s.Update(ctx, a.ID, domain.DatasetPatch{Name: &renamed, UpdatedAt: epoch.Add(2 * time.Hour)})
	require.NoError(t, err)

	// the old name is free again
	require.NoError(t, s.Create(ctx, NewDataset(t, "cities", 3*time.Second)))

	public, err := s.ListPublic(ctx)
	require.NoError(t, err)
	assert.Contains(t, public, "towns")
	assert.Contains(t, public, "cities")
	assert.Contains(t, public, "countries")
}

func testUpdateUnknown(t *testing.T, s ports.DatasetStore) {
	name := "ghost"
	_, err := s.Update(context.Background(), uuid.NewString(), domain.DatasetPatch{Name: &name, UpdatedAt: epoch})
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func testDelete(t *testing.T, s ports.DatasetStore) {
	ctx := context.Background()
	d := mustCreate(t, s, NewDataset(t, "companies", 0))

	require.NoError(t, s.Delete(ctx, d.ID))

	_, err := s.Get(ctx, d.ID)
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
	assert.ErrorIs(t, s.Delete(ctx, d.ID), domain.ErrDatasetNotFound)

	_, total, err := s.List(ctx, ports.ListDatasetsFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)

	// name is reusable after delete
	require.NoError(t, s.Create(ctx, NewDataset(t, "companies", time.Second)))
}
