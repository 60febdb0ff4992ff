package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const trimTimeout = 10 * time.Second

// Trimmer enforces the search history bound for one user.
type Trimmer interface {
	TrimHistory(ctx context.Context, userID uint) (int64, error)
}

// HistoryTrimWorker runs retention passes off the request path. Requests hand
// it a user id through Schedule and never wait for the result.
type HistoryTrimWorker struct {
	trimmer Trimmer
	logger  *logrus.Logger
	workers int
	jobs    chan uint

	mu      sync.Mutex
	pending map[uint]struct{}

	scheduledTotal uint64
	coalescedTotal uint64
	droppedTotal   uint64
	failedTotal    uint64
	deletedTotal   uint64
}

func NewHistoryTrimWorker(trimmer Trimmer, log *logrus.Logger, workers, queueSize int) *HistoryTrimWorker {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	w := &HistoryTrimWorker{
		trimmer: trimmer,
		logger:  log,
		workers: workers,
		jobs:    make(chan uint, queueSize),
		pending: make(map[uint]struct{}),
	}
	w.registerMetrics()
	return w
}

func (w *HistoryTrimWorker) registerMetrics() {
	meter := otel.GetMeterProvider().Meter("pokedexservice.worker")
	_, err := meter.Int64ObservableGauge("app_history_trim_total",
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			obs.Observe(int64(atomic.LoadUint64(&w.scheduledTotal)),
				metric.WithAttributes(attribute.String("result", "scheduled")))
			obs.Observe(int64(atomic.LoadUint64(&w.coalescedTotal)),
				metric.WithAttributes(attribute.String("result", "coalesced")))
			obs.Observe(int64(atomic.LoadUint64(&w.droppedTotal)),
				metric.WithAttributes(attribute.String("result", "dropped")))
			obs.Observe(int64(atomic.LoadUint64(&w.failedTotal)),
				metric.WithAttributes(attribute.String("result", "failed")))
			return nil
		}),
	)
	if err != nil {
		w.logger.Warnf("failed to register trim metrics: %v", err)
	}
	_, err = meter.Int64ObservableGauge("app_history_trim_deleted_rows",
		metric.WithUnit("{rows}"),
		metric.WithInt64Callback(func(_ context.Context, obs metric.Int64Observer) error {
			obs.Observe(int64(atomic.LoadUint64(&w.deletedTotal)))
			return nil
		}),
	)
	if err != nil {
		w.logger.Warnf("failed to register trim metrics: %v", err)
	}
}

// Schedule queues a trim for userID. It never blocks: a trim already waiting
// for the same user absorbs the request, and a full queue drops it. The next
// insert for that user schedules again.
func (w *HistoryTrimWorker) Schedule(userID uint) {
	w.mu.Lock()
	if _, ok := w.pending[userID]; ok {
		w.mu.Unlock()
		atomic.AddUint64(&w.coalescedTotal, 1)
		return
	}
	w.pending[userID] = struct{}{}
	w.mu.Unlock()

	select {
	case w.jobs <- userID:
		atomic.AddUint64(&w.scheduledTotal, 1)
	default:
		w.release(userID)
		atomic.AddUint64(&w.droppedTotal, 1)
		w.logger.WithField("user_id", userID).Warn("[TrimWorker] queue full, dropping history trim")
	}
}

func (w *HistoryTrimWorker) release(userID uint) {
	w.mu.Lock()
	delete(w.pending, userID)
	w.mu.Unlock()
}

// Start launches the consumers and returns. They exit when ctx is done; jobs
// still queued at that point are abandoned.
func (w *HistoryTrimWorker) Start(ctx context.Context, wg *sync.WaitGroup) {
	w.logger.Infof("[TrimWorker] Starting %d consumers", w.workers)
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go w.consume(ctx, wg)
	}
}

func (w *HistoryTrimWorker) consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case userID := <-w.jobs:
			// released before the run so that inserts landing during the
			// trim schedule another pass
			w.release(userID)
			w.run(ctx, userID)
		}
	}
}

func (w *HistoryTrimWorker) run(ctx context.Context, userID uint) {
	ctx, cancel := context.WithTimeout(ctx, trimTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint64(&w.failedTotal, 1)
			w.logger.WithField("user_id", userID).Errorf("[TrimWorker] panic during trim: %v", r)
		}
	}()

	n, err := w.trimmer.TrimHistory(ctx, userID)
	if err != nil {
		atomic.AddUint64(&w.failedTotal, 1)
		w.logger.WithField("user_id", userID).Errorf("[TrimWorker] trim failed: %v", err)
		return
	}
	atomic.AddUint64(&w.deletedTotal, uint64(n))
}

// Stats is a snapshot of the worker counters.
type Stats struct {
	Scheduled, Coalesced, Dropped, Failed, Deleted uint64
}

func (w *HistoryTrimWorker) Stats() Stats {
	return Stats{
		Scheduled: atomic.LoadUint64(&w.scheduledTotal),
		Coalesced: atomic.LoadUint64(&w.coalescedTotal),
		Dropped:   atomic.LoadUint64(&w.droppedTotal),
		Failed:    atomic.LoadUint64(&w.failedTotal),
		Deleted:   atomic.LoadUint64(&w.deletedTotal),
	}
}
