package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

func TestSeedService_CreatesSamples(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)

	report, err := NewSeedService(svc, zerolog.Nop()).Seed(context.Background(), false)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if report.Created != len(SampleDatasets) || report.Skipped != 0 {
		t.Errorf("unexpected report %+v", report)
	}
	for _, d := range store.byID {
		if d.CreatedBy != domain.SeedCreator {
			t.Errorf("%s: expected createdBy %q, got %q", d.Name, domain.SeedCreator, d.CreatedBy)
		}
	}
}

func TestSeedService_SkipsExistingWithoutReset(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)
	mustCreate(t, svc, "Colors")

	report, err := NewSeedService(svc, zerolog.Nop()).Seed(context.Background(), false)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if report.Skipped != 1 || report.Created != len(SampleDatasets)-1 {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestSeedService_Reset(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)
	// more than one page of existing data
	for i := 0; i < 150; i++ {
		mustCreate(t, svc, fmt.Sprintf("old-%03d", i))
	}

	report, err := NewSeedService(svc, zerolog.Nop()).Seed(context.Background(), true)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if report.Deleted != 150 || report.Created != len(SampleDatasets) {
		t.Errorf("unexpected report %+v", report)
	}
	if len(store.byID) != len(SampleDatasets) {
		t.Errorf("expected only samples left, got %d datasets", len(store.byID))
	}
}

// danglingHead counts a full page of rows ahead of the real listing without
// returning them, like index entries whose record was removed.
type danglingHead struct {
	ports.DatasetService
}

func (d *danglingHead) ListDatasets(ctx context.Context, in ports.ListDatasetsInput) (*ports.ListDatasetsResult, error) {
	page := in.Page - 1
	if page < 1 {
		res, err := d.DatasetService.ListDatasets(ctx, ports.ListDatasetsInput{Page: 1, Limit: in.Limit})
		if err != nil {
			return nil, err
		}
		return &ports.ListDatasetsResult{Total: res.Total + ports.MaxLimit, Page: in.Page, Limit: in.Limit}, nil
	}
	res, err := d.DatasetService.ListDatasets(ctx, ports.ListDatasetsInput{Page: page, Limit: in.Limit})
	if err != nil {
		return nil, err
	}
	res.Total += ports.MaxLimit
	res.Page = in.Page
	return res, nil
}

func TestSeedService_ResetPastEmptyPages(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestService(store)
	for i := 0; i < 150; i++ {
		mustCreate(t, svc, fmt.Sprintf("old-%03d", i))
	}

	report, err := NewSeedService(&danglingHead{svc}, zerolog.Nop()).Seed(context.Background(), true)
	if err != nil {
		t.Fatalf("Seed returned error: %v", err)
	}
	if report.Deleted != 150 {
		t.Errorf("expected 150 deleted, got %+v", report)
	}
	if len(store.byID) != len(SampleDatasets) {
		t.Errorf("expected only samples left, got %d datasets", len(store.byID))
	}
}
