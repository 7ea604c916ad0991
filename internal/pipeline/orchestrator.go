// Package pipeline turns uploaded files into immutable documents: it parses
// them, dedupes by content, resolves external images and publishes the
// result into a Library.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/bookflow/internal/config"
	"github.com/dgallion1/bookflow/internal/metrics"
)

// Orchestrator manages the document ingestion pipeline.
type Orchestrator struct {
	jobs    *JobStore
	library *Library
	queue   chan *Job
	images  ImageResolver
	metrics *metrics.Metrics
	log     *slog.Logger
	cfg     config.Config

	onEvict func(docID string)

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. images may be nil, in which case
// books keep only the images they embed.
func NewOrchestrator(cfg config.Config, images ImageResolver, library *Library, m *metrics.Metrics, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:    NewJobStore(cfg.JobTTL),
		library: library,
		queue:   make(chan *Job, cfg.MaxQueueSize),
		images:  images,
		metrics: m,
		log:     log,
		cfg:     cfg,
	}
}

// OnEvict registers fn to run for every document removed by TTL cleanup.
func (o *Orchestrator) OnEvict(fn func(docID string)) {
	o.onEvict = fn
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.images, o.library, o.metrics, o.log, o.cfg.MaxConcurrentImages, o.cfg.PDFFallbackPdftotext)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store and library cleanup.
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
				o.Cleanup()
			}
		}
	}()
}

// Cleanup evicts expired jobs and documents.
func (o *Orchestrator) Cleanup() {
	o.jobs.Cleanup()
	evicted := o.library.Cleanup()
	for _, id := range evicted {
		o.log.Info("document expired", "doc_id", id)
		if o.onEvict != nil {
			o.onEvict(id)
		}
	}
	if o.metrics != nil {
		o.metrics.Documents.Set(float64(o.library.Len()))
	}
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

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Library returns the document library for direct use by API handlers.
func (o *Orchestrator) Library() *Library {
	return o.library
}
