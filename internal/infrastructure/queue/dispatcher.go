package queue

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/fmtdata/datafill/internal/core/domain"
	"github.com/fmtdata/datafill/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
)

// Dispatcher routes legacy records to a fixed set of workers using consistent
// hashing on the lowercase name, so records that collide on name are always
// imported by the same worker in scan order.
type Dispatcher struct {
	workers  []chan domain.LegacyDataset
	importer ports.LegacyImporter
	log      zerolog.Logger
	wg       sync.WaitGroup
	failed   int
	mu       sync.Mutex
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, importer ports.LegacyImporter, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.LegacyDataset, numWorkers),
		importer: importer,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.LegacyDataset, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// or when Close has drained their queue.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue sends a record to the worker responsible for its name. It blocks
// while that worker's buffer is full and gives up when ctx is done.
func (d *Dispatcher) Enqueue(ctx context.Context, legacy domain.LegacyDataset) error {
	select {
	case d.workers[d.shardIndex(legacy.Name)] <- legacy:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting records, waits for the queued ones and returns how
// many imports failed. Enqueue must not be called after Close.
func (d *Dispatcher) Close() int {
	for _, ch := range d.workers {
		close(ch)
	}
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failed
}

// shardIndex maps a name deterministically to a worker index.
func (d *Dispatcher) shardIndex(name string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.LegacyDataset) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case legacy, ok := <-ch:
			if !ok {
				return
			}
			if err := d.importer.Import(ctx, legacy); err != nil {
				d.mu.Lock()
				d.failed++
				d.mu.Unlock()
				d.log.Error().Err(err).
					Str("name", legacy.Name).
					Int("worker_id", id).
					Msg("legacy import failed")
			}
		}
	}
}
