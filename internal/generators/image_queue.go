package generators

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
)

var (
	// ErrQueueFull is returned when no more renders can be queued
	ErrQueueFull = errors.New("image queue is full")
	// ErrQueueStopped is returned once the queue has been stopped
	ErrQueueStopped = errors.New("image queue is stopped")
)

// ImageQueue bounds concurrent renders on a backend. It is itself an ImageBackend,
// so every play loop can share one queue.
type ImageQueue struct {
	backend  interfaces.ImageBackend
	requests chan *QueueRequest
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *zap.Logger

	maxWorkers int
	active     *atomic.Int32
	processed  *atomic.Int64
	failed     *atomic.Int64
}

// QueueRequest represents a queued image generation request
type QueueRequest struct {
	ID        string
	Request   *interfaces.ImageRequest
	ResultCh  chan *QueueResult
	CreatedAt time.Time

	ctx context.Context
}

// QueueResult represents the result of a queued request
type QueueResult struct {
	ID       string
	Response *interfaces.ImageResponse
	Error    error
	Duration time.Duration
}

// QueueStats is a snapshot of the queue counters
type QueueStats struct {
	Pending   int   `json:"pending"`
	Active    int32 `json:"active"`
	Workers   int   `json:"workers"`
	Processed int64 `json:"processed"`
	Failed    int64 `json:"failed"`
}

// NewImageQueue creates a new image generation queue
func NewImageQueue(backend interfaces.ImageBackend, maxWorkers, capacity int, logger *zap.Logger) *ImageQueue {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if capacity <= 0 {
		capacity = 100
	}
	return &ImageQueue{
		backend:    backend,
		requests:   make(chan *QueueRequest, capacity),
		done:       make(chan struct{}),
		logger:     logger.Named("image_queue"),
		maxWorkers: maxWorkers,
		active:     atomic.NewInt32(0),
		processed:  atomic.NewInt64(0),
		failed:     atomic.NewInt64(0),
	}
}

// Start starts the queue workers
func (q *ImageQueue) Start() {
	for i := 0; i < q.maxWorkers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.logger.Info("image queue started", zap.Int("workers", q.maxWorkers), zap.String("backend", q.backend.Name()))
}

// Stop stops the workers and waits for in-flight renders
func (q *ImageQueue) Stop() {
	q.stopOnce.Do(func() {
		close(q.done)
	})
	q.wg.Wait()
}

// worker processes queued requests
func (q *ImageQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.done:
			return
		case req := <-q.requests:
			imageQueueDepth.Set(float64(len(q.requests)))
			q.process(req)
		}
	}
}

func (q *ImageQueue) process(req *QueueRequest) {
	result := &QueueResult{ID: req.ID}

	if err := req.ctx.Err(); err != nil {
		result.Error = err
	} else {
		q.active.Inc()
		start := time.Now()
		result.Response, result.Error = q.backend.GenerateImage(req.ctx, req.Request)
		result.Duration = time.Since(start)
		q.active.Dec()

		aiRequestDuration.WithLabelValues("image").Observe(result.Duration.Seconds())
	}

	if result.Error != nil {
		q.failed.Inc()
		aiRequestsTotal.WithLabelValues("image", "error").Inc()
	} else {
		q.processed.Inc()
		aiRequestsTotal.WithLabelValues("image", "ok").Inc()
	}

	// ResultCh is buffered so a caller that gave up never blocks the worker
	req.ResultCh <- result
}

// Enqueue adds a request to the queue
func (q *ImageQueue) Enqueue(ctx context.Context, req *QueueRequest) error {
	select {
	case <-q.done:
		return ErrQueueStopped
	default:
	}

	if req.ResultCh == nil {
		req.ResultCh = make(chan *QueueResult, 1)
	}
	req.ctx = ctx
	req.CreatedAt = time.Now()

	select {
	case q.requests <- req:
		imageQueueDepth.Set(float64(len(q.requests)))
		return nil
	default:
		return ErrQueueFull
	}
}

// EnqueueWithWait enqueues a request and waits for the result
func (q *ImageQueue) EnqueueWithWait(ctx context.Context, req *QueueRequest) (*QueueResult, error) {
	req.ResultCh = make(chan *QueueResult, 1)
	if err := q.Enqueue(ctx, req); err != nil {
		return nil, err
	}

	select {
	case result := <-req.ResultCh:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-q.done:
		return nil, ErrQueueStopped
	}
}

// GenerateImage renders through the queue
func (q *ImageQueue) GenerateImage(ctx context.Context, req *interfaces.ImageRequest) (*interfaces.ImageResponse, error) {
	result, err := q.EnqueueWithWait(ctx, &QueueRequest{ID: uuid.NewString(), Request: req})
	if err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return result.Response, nil
}

// Name reports the wrapped backend
func (q *ImageQueue) Name() string {
	return q.backend.Name()
}

// GetStats returns the current counters
func (q *ImageQueue) GetStats() QueueStats {
	return QueueStats{
		Pending:   len(q.requests),
		Active:    q.active.Load(),
		Workers:   q.maxWorkers,
		Processed: q.processed.Load(),
		Failed:    q.failed.Load(),
	}
}
