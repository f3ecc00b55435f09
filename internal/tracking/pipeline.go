package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sahsisunny/xproli-backend/internal/domain"

	"go.uber.org/zap"
)

const jobTimeout = 30 * time.Second

// Submitter accepts click work without blocking the caller. The redirect
// path depends only on this contract.
type Submitter interface {
	Submit(snap *Snapshot, link *domain.Link)
}

type job struct {
	snap *Snapshot
	link *domain.Link
}

// PipelineConfig sizes the click pipeline.
type PipelineConfig struct {
	Workers         int
	BufferSize      int
	ShutdownTimeout time.Duration
}

// DefaultPipelineConfig returns sensible defaults.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Workers:         3,
		BufferSize:      1000,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Pipeline runs click enrichment and persistence on a pool of workers fed by
// a buffered queue. Submission never blocks: a full queue drops the event
// with an error log. There are no retries; a failed write is lost.
type Pipeline struct {
	config   PipelineConfig
	recorder *Recorder
	log      *zap.Logger
	queue    chan job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
}

// NewPipeline creates a click pipeline.
func NewPipeline(recorder *Recorder, log *zap.Logger, config PipelineConfig) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pipeline{
		config:   config,
		recorder: recorder,
		log:      log,
		queue:    make(chan job, config.BufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker pool.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("pipeline already started")
	}

	p.log.Info("starting click pipeline",
		zap.Int("workers", p.config.Workers),
		zap.Int("buffer_size", p.config.BufferSize))

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	p.started = true
	return nil
}

// Stop drains the queue and shuts the workers down, bounded by the configured
// timeout.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return fmt.Errorf("pipeline not started")
	}

	p.log.Info("stopping click pipeline")
	p.started = false
	close(p.queue)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("click pipeline stopped")
	case <-time.After(p.config.ShutdownTimeout):
		p.cancel()
		p.log.Warn("click pipeline shutdown timeout reached")
		return fmt.Errorf("shutdown timeout reached")
	}

	p.cancel()
	return nil
}

// Submit enqueues a click for asynchronous recording. It never blocks and
// never surfaces an outcome; drops are logged.
func (p *Pipeline) Submit(snap *Snapshot, link *domain.Link) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		p.log.Warn("click pipeline not started, dropping click", zap.String("slug", link.Slug))
		return
	}

	select {
	case p.queue <- job{snap: snap, link: link}:
	default:
		p.log.Error("click pipeline queue full, dropping click",
			zap.String("slug", link.Slug),
			zap.Int("queue_size", len(p.queue)))
	}
}

func (p *Pipeline) worker(workerID int) {
	defer p.wg.Done()

	log := p.log.With(zap.Int("worker_id", workerID))
	log.Debug("click pipeline worker started")

	for j := range p.queue {
		ctx, cancel := context.WithTimeout(p.ctx, jobTimeout)
		p.recorder.Record(ctx, j.snap, j.link)
		cancel()
	}

	log.Debug("click pipeline worker stopped")
}

// Stats reports queue usage for health reporting.
func (p *Pipeline) Stats() map[string]interface{} {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return map[string]interface{}{
		"started":        p.started,
		"queue_length":   len(p.queue),
		"queue_capacity": cap(p.queue),
		"worker_count":   p.config.Workers,
	}
}
