package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/api/metrics"
	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

const (
	recordPrefix = "dataset:"
	// createdIndexKey is a sorted set of dataset ids scored by created_at
	// in unix milliseconds. Equal scores fall back to member order, and ids
	// are UUIDv7 strings, so ZREVRANGE yields created_at desc, id desc.
	createdIndexKey = "datasets:by-created"
	// scanChunk bounds how many records are held in memory per round trip
	// while walking the index.
	scanChunk = 200
	// maxTxAttempts bounds optimistic retries when a watched record changes
	// under a transaction.
	maxTxAttempts = 5
)

var errTxContended = errors.New("record kept changing during transaction")

// DatasetStore implements ports.DatasetStore on a Redis keyspace.
//
// Keys:
//
//	dataset:<id>               JSON record
//	datasets:by-created        ZSET id → created_at millis
//	dataset-name:<lower name>  id (uniqueness index)
type DatasetStore struct {
	client *redis.Client
	names  *NameIndex
	log    zerolog.Logger

	// beforeCommit runs between the read and the EXEC of an update.
	beforeCommit func(id string)
}

// NewDatasetStore creates a DatasetStore wrapping the given Redis client.
func NewDatasetStore(client *redis.Client, log zerolog.Logger) *DatasetStore {
	return &DatasetStore{
		client: client,
		names:  NewNameIndex(client),
		log:    log,
	}
}

func (s *DatasetStore) Backend() string { return "redis" }

func (s *DatasetStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Create claims the name, then writes the record and its index entry in one transaction.
func (s *DatasetStore) Create(ctx context.Context, d *domain.Dataset) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	claimed, err := s.names.Claim(ctx, d.NameKey(), d.ID)
	if err != nil {
		return err
	}
	if !claimed {
		return domain.ErrDuplicateName
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(d.ID), payload, 0)
		pipe.ZAdd(ctx, createdIndexKey, redis.Z{Score: score(d), Member: d.ID})
		return nil
	})
	if err != nil {
		if relErr := s.names.Release(ctx, d.NameKey()); relErr != nil {
			s.log.Warn().Err(relErr).Str("name", d.Name).Msg("failed to release name claim")
		}
		return fmt.Errorf("insert dataset: %w", err)
	}
	return nil
}

func (s *DatasetStore) Get(ctx context.Context, id string) (*domain.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return load(ctx, s.client, id)
}

// load reads the record stored under id. Values under the same prefix that
// belong to no record with that id, such as legacy name-keyed entries, read
// as not found.
func load(ctx context.Context, c redis.Cmdable, id string) (*domain.Dataset, error) {
	raw, err := c.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset: %w", err)
	}
	d, err := decode(raw)
	if err != nil {
		return nil, err
	}
	if d.ID != id {
		return nil, domain.ErrDatasetNotFound
	}
	return d, nil
}

// List serves unfiltered pages straight from the sorted set. Filtered
// listings walk the whole index in chunks and keep only the requested window.
func (s *DatasetStore) List(ctx context.Context, f ports.ListDatasetsFilter) ([]*domain.Dataset, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	skip := f.Skip()
	if f.Category == "" && f.Search == "" {
		total, err := s.client.ZCard(ctx, createdIndexKey).Result()
		if err != nil {
			return nil, 0, fmt.Errorf("count datasets: %w", err)
		}
		ids, err := s.client.ZRevRange(ctx, createdIndexKey, int64(skip), int64(skip+f.Limit-1)).Result()
		if err != nil {
			return nil, 0, fmt.Errorf("list datasets: %w", err)
		}
		items, err := s.fetch(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		return items, total, nil
	}

	search := strings.ToLower(f.Search)
	items := make([]*domain.Dataset, 0, f.Limit)
	var matched int64
	err := s.walk(ctx, func(d *domain.Dataset) {
		if !matches(d, f.Category, search) {
			return
		}
		if matched >= int64(skip) && len(items) < f.Limit {
			items = append(items, d)
		}
		matched++
	})
	if err != nil {
		return nil, 0, err
	}
	return items, matched, nil
}

func (s *DatasetStore) ListPublic(ctx context.Context) (map[string]domain.PublicDataset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	out := make(map[string]domain.PublicDataset)
	err := s.walk(ctx, func(d *domain.Dataset) {
		out[d.NameKey()] = domain.PublicDataset{Description: d.Description, Data: d.Data}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *DatasetStore) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	seen := make(map[string]struct{})
	err := s.walk(ctx, func(d *domain.Dataset) {
		if strings.TrimSpace(d.Category) != "" {
			seen[d.Category] = struct{}{}
		}
	})
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// Update is read-merge-write under WATCH on the record key. A concurrent
// write or delete aborts the transaction and the update is retried against
// the current record, so a deleted dataset stays deleted. A rename claims the
// new name before the write and releases the old one inside the transaction.
func (s *DatasetStore) Update(ctx context.Context, id string, patch domain.DatasetPatch) (*domain.Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		updated, err := s.tryUpdate(ctx, id, patch)
		if errors.Is(err, redis.TxFailedErr) {
			s.log.Debug().Str("dataset_id", id).Int("attempt", attempt+1).Msg("update raced, retrying")
			continue
		}
		return updated, err
	}
	return nil, fmt.Errorf("update dataset: %w", errTxContended)
}

func (s *DatasetStore) tryUpdate(ctx context.Context, id string, patch domain.DatasetPatch) (*domain.Dataset, error) {
	var (
		updated *domain.Dataset
		claimed string
	)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		existing, err := load(ctx, tx, id)
		if err != nil {
			return err
		}
		updated = existing.Clone()
		updated.Apply(patch)

		oldKey, newKey := existing.NameKey(), updated.NameKey()
		renamed := oldKey != newKey
		if renamed {
			ok, err := s.names.Claim(ctx, newKey, id)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrDuplicateName
			}
			claimed = newKey
		}

		payload, err := json.Marshal(updated)
		if err != nil {
			return fmt.Errorf("encode dataset: %w", err)
		}

		if s.beforeCommit != nil {
			s.beforeCommit(id)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, recordKey(id), payload, 0)
			if renamed {
				s.names.queueRelease(ctx, pipe, oldKey)
			}
			return nil
		})
		return err
	}, recordKey(id))
	if err == nil {
		return updated, nil
	}

	if claimed != "" {
		if relErr := s.names.Release(ctx, claimed); relErr != nil {
			s.log.Warn().Err(relErr).Str("name", updated.Name).Msg("failed to release name claim")
		}
	}
	if errors.Is(err, redis.TxFailedErr) || errors.Is(err, domain.ErrDatasetNotFound) || errors.Is(err, domain.ErrDuplicateName) {
		return nil, err
	}
	return nil, fmt.Errorf("update dataset: %w", err)
}

// Delete removes the record and both index entries under WATCH, so a record
// rewritten between load and delete is re-read before its name is released.
func (s *DatasetStore) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			existing, err := load(ctx, tx, id)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, recordKey(id))
				pipe.ZRem(ctx, createdIndexKey, id)
				s.names.queueRelease(ctx, pipe, existing.NameKey())
				return nil
			})
			return err
		}, recordKey(id))
		switch {
		case err == nil:
			return nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, domain.ErrDatasetNotFound):
			return err
		default:
			return fmt.Errorf("delete dataset: %w", err)
		}
	}
	return fmt.Errorf("delete dataset: %w", errTxContended)
}

// Reindex rebuilds the ordering and name indexes from a prefix scan of
// dataset:* records. Values whose id does not match their key (legacy
// name-keyed entries) are skipped. Afterwards, name claims and index members
// that point at no record are removed. It returns the number of records indexed.
//
// Run it while the API is not serving writes: a Create caught between its
// name claim and its record write looks like a stale claim.
func (s *DatasetStore) Reindex(ctx context.Context) (int, error) {
	var (
		cursor  uint64
		indexed int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, recordPrefix+"*", scanChunk).Result()
		if err != nil {
			return indexed, fmt.Errorf("scan datasets: %w", err)
		}
		if len(keys) > 0 {
			n, err := s.reindexKeys(ctx, keys)
			indexed += n
			if err != nil {
				return indexed, err
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	if err := s.pruneNameClaims(ctx); err != nil {
		return indexed, err
	}
	if err := s.pruneIndex(ctx); err != nil {
		return indexed, err
	}
	return indexed, nil
}

// pruneNameClaims deletes dataset-name:* claims whose owner record is
// missing or no longer carries that name.
func (s *DatasetStore) pruneNameClaims(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, namePrefix+"*", scanChunk).Result()
		if err != nil {
			return fmt.Errorf("scan name claims: %w", err)
		}
		if len(keys) > 0 {
			if err := s.pruneClaimKeys(ctx, keys); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *DatasetStore) pruneClaimKeys(ctx context.Context, keys []string) error {
	owners, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("load name claims: %w", err)
	}

	var stale []string
	for i, v := range owners {
		id, ok := v.(string)
		if !ok {
			continue
		}
		d, err := load(ctx, s.client, id)
		if errors.Is(err, domain.ErrDatasetNotFound) || (err == nil && namePrefix+d.NameKey() != keys[i]) {
			stale = append(stale, keys[i])
			continue
		}
		if err != nil {
			return err
		}
	}
	if len(stale) == 0 {
		return nil
	}
	s.log.Info().Strs("keys", stale).Msg("removing stale name claims")
	if err := s.client.Del(ctx, stale...).Err(); err != nil {
		return fmt.Errorf("remove name claims: %w", err)
	}
	return nil
}

// pruneIndex drops sorted set members whose record is gone.
func (s *DatasetStore) pruneIndex(ctx context.Context) error {
	ids, err := s.client.ZRange(ctx, createdIndexKey, 0, -1).Result()
	if err != nil {
		return fmt.Errorf("read index: %w", err)
	}

	var dangling []interface{}
	for start := 0; start < len(ids); start += scanChunk {
		chunk := ids[start:min(start+scanChunk, len(ids))]
		keys := make([]string, len(chunk))
		for i, id := range chunk {
			keys[i] = recordKey(id)
		}
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return fmt.Errorf("load datasets: %w", err)
		}
		for i, v := range values {
			if _, ok := v.(string); !ok {
				dangling = append(dangling, chunk[i])
			}
		}
	}
	if len(dangling) == 0 {
		return nil
	}
	s.log.Info().Int("members", len(dangling)).Msg("removing dangling index members")
	if err := s.client.ZRem(ctx, createdIndexKey, dangling...).Err(); err != nil {
		return fmt.Errorf("prune index: %w", err)
	}
	return nil
}

func (s *DatasetStore) reindexKeys(ctx context.Context, keys []string) (int, error) {
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("load datasets: %w", err)
	}

	var records []*domain.Dataset
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		d, err := decode([]byte(str))
		if err != nil || keys[i] != recordKey(d.ID) {
			s.log.Debug().Str("key", keys[i]).Msg("skipping non-dataset value")
			continue
		}
		records = append(records, d)
	}
	if len(records) == 0 {
		return 0, nil
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range records {
			pipe.ZAdd(ctx, createdIndexKey, redis.Z{Score: score(d), Member: d.ID})
			s.names.queueSet(ctx, pipe, d.NameKey(), d.ID)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("write indexes: %w", err)
	}
	return len(records), nil
}

// walk visits every indexed dataset in created_at desc order, loading
// scanChunk records per round trip.
func (s *DatasetStore) walk(ctx context.Context, visit func(*domain.Dataset)) error {
	for start := int64(0); ; start += scanChunk {
		ids, err := s.client.ZRevRange(ctx, createdIndexKey, start, start+scanChunk-1).Result()
		if err != nil {
			return fmt.Errorf("walk index: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		records, err := s.fetch(ctx, ids)
		if err != nil {
			return err
		}
		metrics.StoreScannedRecords.Add(float64(len(records)))
		for _, d := range records {
			visit(d)
		}

		if len(ids) < scanChunk {
			return nil
		}
	}
}

// fetch loads records for ids preserving order. Index members whose record
// is gone are skipped.
func (s *DatasetStore) fetch(ctx context.Context, ids []string) ([]*domain.Dataset, error) {
	if len(ids) == 0 {
		return []*domain.Dataset{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load datasets: %w", err)
	}

	out := make([]*domain.Dataset, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			s.log.Debug().Str("dataset_id", ids[i]).Msg("index entry without record")
			continue
		}
		d, err := decode([]byte(str))
		if err != nil {
			return nil, err
		}
		if d.ID != ids[i] {
			s.log.Debug().Str("dataset_id", ids[i]).Msg("index entry points at a foreign value")
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func matches(d *domain.Dataset, category, lowerSearch string) bool {
	if category != "" && d.Category != category {
		return false
	}
	if lowerSearch == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name), lowerSearch) ||
		strings.Contains(strings.ToLower(d.Description), lowerSearch)
}

func decode(raw []byte) (*domain.Dataset, error) {
	var d domain.Dataset
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &d, nil
}

func recordKey(id string) string {
	return recordPrefix + id
}

func score(d *domain.Dataset) float64 {
	return float64(d.CreatedAt.UnixMilli())
}
