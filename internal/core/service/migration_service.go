package service

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// MigrationReport summarises an import run.
type MigrationReport struct {
	Migrated int64
	Skipped  int64
}

// MigrationService turns legacy records into datasets. Import is safe to call
// from several workers at once.
type MigrationService struct {
	datasets ports.DatasetService
	log      zerolog.Logger

	migrated atomic.Int64
	skipped  atomic.Int64
}

func NewMigrationService(datasets ports.DatasetService, log zerolog.Logger) *MigrationService {
	return &MigrationService{datasets: datasets, log: log}
}

// Import creates a dataset from a legacy record. Records whose name already
// exists, or that fail validation, are counted as skipped and do not return
// an error. Store failures are returned uncounted; the caller tallies them.
func (s *MigrationService) Import(ctx context.Context, legacy domain.LegacyDataset) error {
	description := legacy.Description
	if description == "" {
		description = "Migrated " + legacy.Name + " dataset"
	}
	category := domain.InferCategory(legacy.Name)

	_, err := s.datasets.CreateDataset(ctx, ports.CreateDatasetInput{
		Name:        legacy.Name,
		Description: description,
		Category:    category,
		Data:        legacy.Data,
		Session:     &domain.UserSession{ID: domain.MigrationCreator},
	})

	var verr *domain.ValidationError
	switch {
	case err == nil:
		s.migrated.Add(1)
		s.log.Info().Str("name", legacy.Name).Str("category", category).Msg("dataset migrated")
		return nil
	case errors.Is(err, domain.ErrDuplicateName):
		s.skipped.Add(1)
		s.log.Warn().Str("name", legacy.Name).Msg("skipping dataset: already exists")
		return nil
	case errors.As(err, &verr):
		s.skipped.Add(1)
		s.log.Warn().Str("name", legacy.Name).Err(err).Msg("skipping dataset: invalid")
		return nil
	default:
		return err
	}
}

// Report returns the counts accumulated so far.
func (s *MigrationService) Report() MigrationReport {
	return MigrationReport{Migrated: s.migrated.Load(), Skipped: s.skipped.Load()}
}
