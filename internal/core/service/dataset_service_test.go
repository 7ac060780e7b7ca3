package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub store
// ---------------------------------------------------------------------------

type stubDatasetStore struct {
	byID       map[string]*domain.Dataset
	lastFilter ports.ListDatasetsFilter
	createErr  error // if set, Create returns this error
	calls      int   // store calls made, used to assert validation short-circuits
}

func newStubDatasetStore() *stubDatasetStore {
	return &stubDatasetStore{byID: make(map[string]*domain.Dataset)}
}

func (r *stubDatasetStore) Backend() string              { return "stub" }
func (r *stubDatasetStore) Ping(_ context.Context) error { return nil }

func (r *stubDatasetStore) Create(_ context.Context, d *domain.Dataset) error {
	r.calls++
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.byID {
		if existing.NameKey() == d.NameKey() {
			return domain.ErrDuplicateName
		}
	}
	r.byID[d.ID] = d.Clone()
	return nil
}

func (r *stubDatasetStore) Get(_ context.Context, id string) (*domain.Dataset, error) {
	r.calls++
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return d.Clone(), nil
}

// List mirrors the ordering and filtering of the real stores.
func (r *stubDatasetStore) List(_ context.Context, f ports.ListDatasetsFilter) ([]*domain.Dataset, int64, error) {
	r.calls++
	r.lastFilter = f

	var matched []*domain.Dataset
	q := strings.ToLower(f.Search)
	for _, d := range r.byID {
		if f.Category != "" && d.Category != f.Category {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(d.Name), q) && !strings.Contains(strings.ToLower(d.Description), q) {
			continue
		}
		matched = append(matched, d.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	skip := f.Skip()
	if skip >= len(matched) {
		return []*domain.Dataset{}, total, nil
	}
	end := skip + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], total, nil
}

func (r *stubDatasetStore) ListPublic(_ context.Context) (map[string]domain.PublicDataset, error) {
	out := make(map[string]domain.PublicDataset, len(r.byID))
	for _, d := range r.byID {
		out[d.NameKey()] = domain.PublicDataset{Description: d.Description, Data: d.Data}
	}
	return out, nil
}

func (r *stubDatasetStore) Categories(_ context.Context) ([]string, error) {
	return nil, nil
}

func (r *stubDatasetStore) Update(_ context.Context, id string, p domain.DatasetPatch) (*domain.Dataset, error) {
	r.calls++
	d, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	d.Apply(p)
	return d.Clone(), nil
}

func (r *stubDatasetStore) Delete(_ context.Context, id string) error {
	r.calls++
	if _, ok := r.byID[id]; !ok {
		return domain.ErrDatasetNotFound
	}
	delete(r.byID, id)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestService returns a service whose clock advances one second per call
// and whose ids are sequential, so created_at order is deterministic.
func newTestService(store *stubDatasetStore) *DatasetService {
	svc := NewDatasetService(store, zerolog.Nop())
	tick := 0
	svc.now = func() time.Time {
		tick++
		return baseTime.Add(time.Duration(tick) * time.Second)
	}
	seq := 0
	svc.newID = func() (string, error) {
		seq++
		return fmt.Sprintf("id-%04d", seq), nil
	}
	return svc
}

func strPtr(s string) *string { return &s }

func mustCreate(t *testing.T, svc *DatasetService, name string, data ...string) *domain.Dataset {
	t.Helper()
	if len(data) == 0 {
		data = []string{"a"}
	}
	d, err := svc.CreateDataset(context.Background(), ports.CreateDatasetInput{Name: name, Data: data})
	if err != nil {
		t.Fatalf("create %q: %v", name, err)
	}
	return d
}

func violationFields(t *testing.T, err error) map[string]bool {
	t.Helper()
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ValidationError, got %v", err)
	}
	out := map[string]bool{}
	for _, v := range ve.Violations {
		out[v.Field] = true
	}
	return out
}

// ---------------------------------------------------------------------------
// CreateDataset
// ---------------------------------------------------------------------------

func TestCreateDataset_Success(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)

	d, err := svc.CreateDataset(context.Background(), ports.CreateDatasetInput{
		Name:        "  first-names ",
		Description: "Common first names",
		Category:    "names",
		Data:        []string{"Ann", "Bo", "Cy"},
		Session:     &domain.UserSession{ID: "user-1"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if d.ID != "id-0001" {
		t.Errorf("expected generated id, got %q", d.ID)
	}
	if d.Name != "first-names" {
		t.Errorf("expected trimmed name, got %q", d.Name)
	}
	if strings.Join(d.Data, ",") != "Ann,Bo,Cy" {
		t.Errorf("data must be preserved in order, got %v", d.Data)
	}
	if d.CreatedBy != "user-1" {
		t.Errorf("expected createdBy user-1, got %q", d.CreatedBy)
	}
	if !d.CreatedAt.Equal(d.UpdatedAt) {
		t.Errorf("createdAt and updatedAt must match on create")
	}
	if _, ok := store.byID[d.ID]; !ok {
		t.Errorf("dataset was not persisted")
	}
}

func TestCreateDataset_AnonymousCreator(t *testing.T) {
	svc := newTestService(newStubDatasetStore())

	d := mustCreate(t, svc, "colors")
	if d.CreatedBy != domain.AnonymousCreator {
		t.Errorf("expected %q, got %q", domain.AnonymousCreator, d.CreatedBy)
	}
}

func TestCreateDataset_TruncatesToMilliseconds(t *testing.T) {
	svc := NewDatasetService(newStubDatasetStore(), zerolog.Nop())
	svc.now = func() time.Time { return baseTime.Add(1234567 * time.Nanosecond) }

	d := mustCreate(t, svc, "colors")
	if d.CreatedAt.Nanosecond() != 1000000 {
		t.Errorf("expected millisecond precision, got %v", d.CreatedAt)
	}
}

func TestCreateDataset_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  ports.CreateDatasetInput
		fields []string
	}{
		{"empty data", ports.CreateDatasetInput{Name: "x"}, []string{"data"}},
		{"blank name", ports.CreateDatasetInput{Name: "   ", Data: []string{"a"}}, []string{"name"}},
		{"name too long", ports.CreateDatasetInput{Name: strings.Repeat("n", 101), Data: []string{"a"}}, []string{"name"}},
		{"description too long", ports.CreateDatasetInput{Name: "x", Description: strings.Repeat("d", 501), Data: []string{"a"}}, []string{"description"}},
		{"everything wrong", ports.CreateDatasetInput{Category: strings.Repeat("c", 101)}, []string{"name", "category", "data"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubDatasetStore()
			svc := newTestService(store)

			_, err := svc.CreateDataset(context.Background(), tt.input)
			fields := violationFields(t, err)
			for _, f := range tt.fields {
				if !fields[f] {
					t.Errorf("expected violation on %q, got %v", f, fields)
				}
			}
			if store.calls != 0 {
				t.Errorf("store must not be called on validation failure")
			}
		})
	}
}

func TestCreateDataset_NameLimitCountsCharacters(t *testing.T) {
	svc := newTestService(newStubDatasetStore())

	// 100 multi-byte runes is within the limit.
	if _, err := svc.CreateDataset(context.Background(), ports.CreateDatasetInput{
		Name: strings.Repeat("é", 100),
		Data: []string{"a"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateDataset_Duplicate(t *testing.T) {
	svc := newTestService(newStubDatasetStore())
	mustCreate(t, svc, "Colors")

	_, err := svc.CreateDataset(context.Background(), ports.CreateDatasetInput{Name: "colors", Data: []string{"a"}})
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCreateDataset_StoreError(t *testing.T) {
	store := newStubDatasetStore()
	store.createErr = errors.New("connection reset")
	svc := newTestService(store)

	_, err := svc.CreateDataset(context.Background(), ports.CreateDatasetInput{Name: "x", Data: []string{"a"}})
	if err == nil || err.Error() != "connection reset" {
		t.Fatalf("expected store error, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// GetDataset / DeleteDataset
// ---------------------------------------------------------------------------

func TestGetDataset_EmptyID(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)

	if _, err := svc.GetDataset(context.Background(), " "); !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
	if store.calls != 0 {
		t.Errorf("store must not be called for an empty id")
	}
}

func TestDeleteDataset(t *testing.T) {
	svc := newTestService(newStubDatasetStore())
	d := mustCreate(t, svc, "colors")

	if err := svc.DeleteDataset(context.Background(), d.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.GetDataset(context.Background(), d.ID); !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("get after delete: expected ErrDatasetNotFound, got %v", err)
	}
	if err := svc.DeleteDataset(context.Background(), d.ID); !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("second delete: expected ErrDatasetNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// ListDatasets
// ---------------------------------------------------------------------------

func TestListDatasets_ClampsPaging(t *testing.T) {
	tests := []struct {
		name              string
		page, limit       int
		wantPage, wantLim int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative", -3, -1, 1, 10},
		{"too large", 2, 500, 2, 100},
		{"as given", 3, 25, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStubDatasetStore()
			svc := newTestService(store)

			res, err := svc.ListDatasets(context.Background(), ports.ListDatasetsInput{Page: tt.page, Limit: tt.limit})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Page != tt.wantPage || res.Limit != tt.wantLim {
				t.Errorf("expected page=%d limit=%d, got page=%d limit=%d", tt.wantPage, tt.wantLim, res.Page, res.Limit)
			}
			if store.lastFilter.Page != tt.wantPage || store.lastFilter.Limit != tt.wantLim {
				t.Errorf("store received unclamped filter %+v", store.lastFilter)
			}
		})
	}
}

func TestListDatasets_SecondPage(t *testing.T) {
	svc := newTestService(newStubDatasetStore())
	var created []*domain.Dataset
	for i := 0; i < 25; i++ {
		created = append(created, mustCreate(t, svc, fmt.Sprintf("set-%02d", i)))
	}

	res, err := svc.ListDatasets(context.Background(), ports.ListDatasetsInput{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 25 || len(res.Items) != 10 {
		t.Fatalf("expected 10 of 25, got %d of %d", len(res.Items), res.Total)
	}
	// newest first: the 11th newest is created[14]
	if res.Items[0].ID != created[14].ID || res.Items[9].ID != created[5].ID {
		t.Errorf("unexpected page window: first=%s last=%s", res.Items[0].Name, res.Items[9].Name)
	}
}

// ---------------------------------------------------------------------------
// SearchDatasets
// ---------------------------------------------------------------------------

func TestSearchDatasets_RequiresQuery(t *testing.T) {
	svc := newTestService(newStubDatasetStore())

	_, err := svc.SearchDatasets(context.Background(), ports.SearchDatasetsInput{Query: "  "})
	if fields := violationFields(t, err); !fields["q"] {
		t.Fatalf("expected violation on q, got %v", fields)
	}
}

func TestSearchDatasets_RanksByName(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)

	descOnly, _ := svc.CreateDataset(context.Background(), ports.CreateDatasetInput{
		Name: "people", Description: "assorted names", Data: []string{"a"},
	})
	substring := mustCreate(t, svc, "first-names")
	prefix := mustCreate(t, svc, "names-extended")
	exact := mustCreate(t, svc, "Names")

	res, err := svc.SearchDatasets(context.Background(), ports.SearchDatasetsInput{Query: "names"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{exact.ID, prefix.ID, substring.ID, descOnly.ID}
	if len(res.Items) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(res.Items))
	}
	for i, id := range want {
		if res.Items[i].ID != id {
			t.Errorf("rank %d: expected %s, got %s", i, id, res.Items[i].Name)
		}
	}
	if store.lastFilter.Limit != 100 || store.lastFilter.Page != 1 {
		t.Errorf("expected search to rank the first 100 matches, got %+v", store.lastFilter)
	}
}

func TestSearchDatasets_Limit(t *testing.T) {
	svc := newTestService(newStubDatasetStore())
	for i := 0; i < 30; i++ {
		mustCreate(t, svc, fmt.Sprintf("cities-%02d", i))
	}

	res, err := svc.SearchDatasets(context.Background(), ports.SearchDatasetsInput{Query: "cities"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Items) != 20 {
		t.Errorf("expected default limit 20, got %d", len(res.Items))
	}

	res, _ = svc.SearchDatasets(context.Background(), ports.SearchDatasetsInput{Query: "cities", Limit: 5})
	if len(res.Items) != 5 || res.Query != "cities" {
		t.Errorf("expected 5 results for cities, got %d for %q", len(res.Items), res.Query)
	}
}

// ---------------------------------------------------------------------------
// UpdateDataset
// ---------------------------------------------------------------------------

func TestUpdateDataset_Partial(t *testing.T) {
	svc := newTestService(newStubDatasetStore())
	d, err := svc.CreateDataset(context.Background(), ports.CreateDatasetInput{
		Name: "emails", Description: "Sample emails", Category: "contact", Data: []string{"a@b.c"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	data := []string{"x@example.com", "y@example.com"}
	updated, err := svc.UpdateDataset(context.Background(), ports.UpdateDatasetInput{ID: d.ID, Data: &data})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated.Name != "emails" || updated.Description != "Sample emails" || updated.Category != "contact" {
		t.Errorf("untouched fields changed: %+v", updated)
	}
	if strings.Join(updated.Data, ",") != "x@example.com,y@example.com" {
		t.Errorf("data not replaced: %v", updated.Data)
	}
	if !updated.UpdatedAt.After(d.UpdatedAt) {
		t.Errorf("updatedAt must increase: %v -> %v", d.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(d.CreatedAt) {
		t.Errorf("createdAt must not change")
	}
}

func TestUpdateDataset_UpdatedAtStrictlyIncreasesWithFrozenClock(t *testing.T) {
	svc := newTestService(newStubDatasetStore())
	d := mustCreate(t, svc, "colors")
	svc.now = func() time.Time { return d.UpdatedAt }

	first, err := svc.UpdateDataset(context.Background(), ports.UpdateDatasetInput{ID: d.ID, Category: strPtr("design")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.UpdateDataset(context.Background(), ports.UpdateDatasetInput{ID: d.ID, Category: strPtr("palette")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !first.UpdatedAt.After(d.UpdatedAt) || !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updatedAt must strictly increase: %v, %v, %v", d.UpdatedAt, first.UpdatedAt, second.UpdatedAt)
	}
}

func TestUpdateDataset_Validation(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)
	empty := []string{}

	_, err := svc.UpdateDataset(context.Background(), ports.UpdateDatasetInput{
		ID:   "whatever",
		Name: strPtr(" "),
		Data: &empty,
	})
	fields := violationFields(t, err)
	if !fields["name"] || !fields["data"] {
		t.Fatalf("expected name and data violations, got %v", fields)
	}
	if store.calls != 0 {
		t.Errorf("store must not be called on validation failure")
	}
}

func TestUpdateDataset_NotFound(t *testing.T) {
	svc := newTestService(newStubDatasetStore())

	_, err := svc.UpdateDataset(context.Background(), ports.UpdateDatasetInput{ID: "missing", Name: strPtr("x")})
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// PublicDatasets / Categories
// ---------------------------------------------------------------------------

func TestPublicDatasets_LowercaseKeys(t *testing.T) {
	svc := newTestService(newStubDatasetStore())
	mustCreate(t, svc, "First-Names", "Ann", "Bo")

	m, err := svc.PublicDatasets(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := m["first-names"]
	if !ok || strings.Join(got.Data, ",") != "Ann,Bo" || got.Description != "" {
		t.Fatalf("unexpected public map: %+v", m)
	}
}

func TestCategories_NeverNil(t *testing.T) {
	svc := newTestService(newStubDatasetStore())

	cats, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cats == nil {
		t.Fatal("expected empty slice, got nil")
	}
}
