package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

// SampleDatasets are written by Seed.
var SampleDatasets = []ports.CreateDatasetInput{
	{
		Name:        "first-names",
		Description: "Common first names for testing",
		Category:    "names",
		Data:        []string{"John", "Jane", "Michael", "Sarah", "David", "Emma", "Chris", "Lisa", "Mark", "Anna"},
	},
	{
		Name:        "last-names",
		Description: "Common last names for testing",
		Category:    "names",
		Data:        []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"},
	},
	{
		Name:        "emails",
		Description: "Sample email addresses",
		Category:    "contact",
		Data:        []string{"john@example.com", "jane@test.org", "user@domain.net", "hello@company.io", "contact@business.com"},
	},
	{
		Name:        "cities",
		Description: "Major cities around the world",
		Category:    "location",
		Data:        []string{"New York", "London", "Tokyo", "Paris", "Sydney", "Toronto", "Berlin", "Amsterdam", "Barcelona", "Singapore"},
	},
	{
		Name:        "companies",
		Description: "Tech company names",
		Category:    "business",
		Data:        []string{"TechCorp", "InnovateLab", "DataSystems", "CloudWorks", "DigitalFlow", "NextGen Solutions", "CodeFactory", "DevStudio"},
	},
	{
		Name:        "colors",
		Description: "Design color names",
		Category:    "design",
		Data:        []string{"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FECA57", "#FF9FF3", "#54A0FF", "#5F27CD"},
	},
}

// SeedReport summarises a Seed run.
type SeedReport struct {
	Deleted int
	Created int
	Skipped int
}

// SeedService writes the sample datasets through the dataset use cases.
type SeedService struct {
	datasets ports.DatasetService
	log      zerolog.Logger
}

func NewSeedService(datasets ports.DatasetService, log zerolog.Logger) *SeedService {
	return &SeedService{datasets: datasets, log: log}
}

// Seed writes SampleDatasets. With reset it first deletes every existing
// dataset; without it, names that already exist are skipped.
func (s *SeedService) Seed(ctx context.Context, reset bool) (SeedReport, error) {
	var report SeedReport

	if reset {
		n, err := s.deleteAll(ctx)
		report.Deleted = n
		if err != nil {
			return report, err
		}
		s.log.Info().Int("deleted", n).Msg("cleared existing datasets")
	}

	actor := &domain.UserSession{ID: domain.SeedCreator}
	for _, in := range SampleDatasets {
		in.Session = actor
		d, err := s.datasets.CreateDataset(ctx, in)
		if errors.Is(err, domain.ErrDuplicateName) {
			report.Skipped++
			s.log.Warn().Str("name", in.Name).Msg("dataset exists, skipping")
			continue
		}
		if err != nil {
			return report, fmt.Errorf("seed %s: %w", in.Name, err)
		}
		report.Created++
		s.log.Info().Str("name", d.Name).Str("category", d.Category).Msg("dataset created")
	}
	return report, nil
}

// deleteAll removes datasets a page at a time until the listing total is
// exhausted. A page can come back empty while rows remain counted (index
// entries whose record is gone), so an empty page moves on to the next one
// instead of ending the loop.
func (s *SeedService) deleteAll(ctx context.Context) (int, error) {
	deleted := 0
	page := 1
	for {
		res, err := s.datasets.ListDatasets(ctx, ports.ListDatasetsInput{Page: page, Limit: ports.MaxLimit})
		if err != nil {
			return deleted, err
		}
		if len(res.Items) == 0 {
			if int64(page*ports.MaxLimit) >= res.Total {
				return deleted, nil
			}
			page++
			continue
		}
		for _, d := range res.Items {
			if err := s.datasets.DeleteDataset(ctx, d.ID); err != nil && !errors.Is(err, domain.ErrDatasetNotFound) {
				return deleted, fmt.Errorf("delete %s: %w", d.ID, err)
			}
			deleted++
		}
	}
}
