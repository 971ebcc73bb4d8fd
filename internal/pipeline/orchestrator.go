package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/nbtoc/internal/augment"
	"github.com/dgallion1/nbtoc/internal/config"
)

// Orchestrator manages the asynchronous augmentation pipeline.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	cache  *ResultCache
	worker *Worker
	log    *slog.Logger
	cfg    config.ServerConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch its workers.
func NewOrchestrator(cfg *config.Config, log *slog.Logger) (*Orchestrator, error) {
	cache, err := NewResultCache(cfg.Server.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	a := augment.New(cfg.Augment(), log)
	return &Orchestrator{
		jobs:   NewJobStore(cfg.Server.JobTTL),
		queue:  make(chan *Job, cfg.Server.MaxQueueSize),
		cache:  cache,
		worker: NewWorker(a, cfg.Parser, cache, log),
		log:    log,
		cfg:    cfg.Server,
	}, nil
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					o.worker.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// Augment converts and augments data synchronously, sharing the job cache.
func (o *Orchestrator) Augment(ctx context.Context, filename string, data []byte, opts augment.Options) (*augment.Result, bool, error) {
	return o.worker.Convert(ctx, filename, data, opts)
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Stats reports queue, job and cache usage.
func (o *Orchestrator) Stats() Stats {
	return Stats{
		QueueDepth: o.QueueDepth(),
		Jobs:       o.jobs.Len(),
		Cache:      o.cache.Stats(),
	}
}

type Stats struct {
	QueueDepth int        `json:"queue_depth"`
	Jobs       int        `json:"jobs"`
	Cache      CacheStats `json:"cache"`
}
