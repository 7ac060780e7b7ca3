package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

func newTestMigration(store *stubDatasetStore) *MigrationService {
	return NewMigrationService(newTestService(store), zerolog.Nop())
}

func TestMigrationService_Import(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestMigration(store)

	err := svc.Import(context.Background(), domain.LegacyDataset{Name: "first-names", Data: []string{"Ann", "Bo"}})
	if err != nil {
		t.Fatalf("Import returned error: %v", err)
	}

	res, _, _ := store.List(context.Background(), ports.ListDatasetsFilter{Page: 1, Limit: 10})
	if len(res) != 1 {
		t.Fatalf("expected one dataset, got %d", len(res))
	}
	d := res[0]
	if d.Category != "names" {
		t.Errorf("expected inferred category names, got %q", d.Category)
	}
	if d.Description != "Migrated first-names dataset" {
		t.Errorf("expected default description, got %q", d.Description)
	}
	if d.CreatedBy != domain.MigrationCreator {
		t.Errorf("expected createdBy %q, got %q", domain.MigrationCreator, d.CreatedBy)
	}
}

func TestMigrationService_KeepsDescription(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestMigration(store)

	if err := svc.Import(context.Background(), domain.LegacyDataset{Name: "colors", Description: "Design colors", Data: []string{"red"}}); err != nil {
		t.Fatalf("Import returned error: %v", err)
	}
	for _, d := range store.byID {
		if d.Description != "Design colors" || d.Category != "design" {
			t.Errorf("unexpected dataset %+v", d)
		}
	}
}

func TestMigrationService_SkipsExistingAndInvalid(t *testing.T) {
	store := newStubDatasetStore()
	svc := newTestMigration(store)
	ctx := context.Background()

	if err := svc.Import(ctx, domain.LegacyDataset{Name: "emails", Data: []string{"a@b.c"}}); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if err := svc.Import(ctx, domain.LegacyDataset{Name: "Emails", Data: []string{"x@y.z"}}); err != nil {
		t.Fatalf("duplicate must be skipped, got %v", err)
	}
	if err := svc.Import(ctx, domain.LegacyDataset{Name: "empty"}); err != nil {
		t.Fatalf("invalid record must be skipped, got %v", err)
	}

	if got := svc.Report(); got != (MigrationReport{Migrated: 1, Skipped: 2}) {
		t.Errorf("unexpected report %+v", got)
	}
}

func TestMigrationService_StoreFailure(t *testing.T) {
	store := newStubDatasetStore()
	store.createErr = errors.New("connection reset")
	svc := newTestMigration(store)

	if err := svc.Import(context.Background(), domain.LegacyDataset{Name: "cities", Data: []string{"Paris"}}); err == nil {
		t.Fatal("expected store error")
	}
	if got := svc.Report(); got.Skipped != 0 || got.Migrated != 0 {
		t.Errorf("unexpected report %+v", got)
	}
}
