package ports

import (
	"context"

	"github.com/fmtdata/datafill/internal/core/domain"
)

// LegacySource enumerates datasets stored in the legacy name-keyed layout.
type LegacySource interface {
	// Scan calls visit once per legacy record and returns how many keys it
	// could not decode. A visit error stops the scan.
	Scan(ctx context.Context, visit func(domain.LegacyDataset) error) (int, error)
}

// LegacyImporter imports one legacy record into the active store.
type LegacyImporter interface {
	Import(ctx context.Context, legacy domain.LegacyDataset) error
}
