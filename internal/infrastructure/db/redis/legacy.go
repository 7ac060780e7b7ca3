package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/core/domain"
)

// legacyValue decodes just enough of a value to tell the two layouts apart.
type legacyValue struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	Data        []string `json:"data"`
}

// LegacyScanner walks dataset:* keys and yields the entries that use the
// name-keyed layout, dataset:<name> → {"description": ..., "data": [...]}. Id-keyed records written by DatasetStore are ignored.
type LegacyScanner struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewLegacyScanner(client *redis.Client, log zerolog.Logger) *LegacyScanner {
	return &LegacyScanner{client: client, log: log}
}

// Scan calls visit for each legacy dataset found. Values that are not valid
// JSON are logged and skipped. It returns the number of skipped keys.
func (l *LegacyScanner) Scan(ctx context.Context, visit func(domain.LegacyDataset) error) (int, error) {
	var (
		cursor  uint64
		skipped int
	)
	for {
		keys, next, err := l.client.Scan(ctx, cursor, recordPrefix+"*", scanChunk).Result()
		if err != nil {
			return skipped, fmt.Errorf("scan legacy datasets: %w", err)
		}

		if len(keys) > 0 {
			values, err := l.client.MGet(ctx, keys...).Result()
			if err != nil {
				return skipped, fmt.Errorf("load legacy datasets: %w", err)
			}
			for i, v := range values {
				str, ok := v.(string)
				if !ok {
					continue
				}
				var val legacyValue
				if err := json.Unmarshal([]byte(str), &val); err != nil {
					l.log.Warn().Err(err).Str("key", keys[i]).Msg("skipping undecodable legacy value")
					skipped++
					continue
				}
				if val.ID != "" {
					continue
				}
				ds := domain.LegacyDataset{
					Name:        strings.TrimPrefix(keys[i], recordPrefix),
					Description: val.Description,
					Data:        val.Data,
				}
				if err := visit(ds); err != nil {
					return skipped, err
				}
			}
		}

		if next == 0 {
			return skipped, nil
		}
		cursor = next
	}
}
