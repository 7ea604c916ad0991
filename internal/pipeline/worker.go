package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/bookflow/internal/booktree"
	"github.com/dgallion1/bookflow/internal/imagestore"
	"github.com/dgallion1/bookflow/internal/metrics"
	"github.com/dgallion1/bookflow/internal/parser"
)

// ImageResolver looks up an image a book references but does not embed.
// A nil image with a nil error means the store has no such image.
type ImageResolver interface {
	Lookup(ctx context.Context, id string) (*booktree.Image, error)
}

// Worker processes a single document job.
type Worker struct {
	images  ImageResolver
	library *Library
	metrics *metrics.Metrics
	log     *slog.Logger

	maxConcurrentImages int
	pdfFallback         bool
	retryDelay          func(err error, attempt int) time.Duration
}

// MaxLookupAttempts bounds the image store calls made for one image id.
const MaxLookupAttempts = 3

const (
	lookupBaseDelay = 250 * time.Millisecond
	lookupMaxDelay  = 10 * time.Second
)

func NewWorker(images ImageResolver, library *Library, m *metrics.Metrics, log *slog.Logger, maxImages int, pdfFallback bool) *Worker {
	if maxImages <= 0 {
		maxImages = 1
	}
	return &Worker{
		images:              images,
		library:             library,
		metrics:             m,
		log:                 log,
		maxConcurrentImages: maxImages,
		pdfFallback:         pdfFallback,
		retryDelay:          LookupRetryDelay,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)
	defer job.SetFileData(nil)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	book, err := w.parse(job)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		w.finish(job, StatusFailed, "parsing")
		return
	}
	if job.Title != "" {
		book.Title = job.Title
	}
	if len(book.Nodes) == 0 {
		log.Warn("no content produced")
		job.AddError("no renderable content")
		w.finish(job, StatusFailed, "parsing")
		return
	}

	// Hash the parsed text so that re-encoded copies of a book dedupe.
	hash := ContentHashHex([]byte(booktree.PlainTextOf(book)))
	job.SetParsed(book.Title, hash, len(book.Nodes))
	log.Info("parsed document", "title", book.Title, "nodes", len(book.Nodes))

	// Phase 1.5: Dedup check
	if !job.Force {
		if existing, ok := w.library.FindByHash(hash); ok && existing != job.DocID {
			log.Info("duplicate document, skipping", "existing_doc_id", existing)
			job.SetDuplicateOf(existing)
			w.finish(job, StatusDupSkipped, "dedup")
			return
		}
	}

	// Phase 2: Resolve images the book references but does not embed.
	missing := booktree.MissingImages(book)
	job.SetImagesMissing(len(missing))
	if len(missing) > 0 && w.images != nil {
		job.SetStatus(StatusResolving, "resolving")
		resolved := w.resolveImages(ctx, log, job, missing)
		if ctx.Err() != nil {
			job.AddError(ctx.Err().Error())
			w.finish(job, StatusFailed, "resolving")
			return
		}
		if book.Images == nil {
			book.Images = make(map[string]booktree.Image, len(resolved))
		}
		for id, img := range resolved {
			book.Images[id] = img
		}
		log.Info("images resolved", "resolved", len(resolved), "missing", len(missing))
	}

	// Phase 3: Publish
	w.library.Put(&Document{
		ID:          job.DocID,
		Title:       book.Title,
		Filename:    job.Filename,
		ContentHash: hash,
		Book:        book,
		CreatedAt:   time.Now(),
	})
	if w.metrics != nil {
		w.metrics.Documents.Set(float64(w.library.Len()))
	}
	w.finish(job, StatusReady, "done")
}

func (w *Worker) parse(job *Job) (*booktree.Book, error) {
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		return nil, err
	}
	if pdf, ok := p.(*parser.PDFParser); ok {
		pdf.FallbackPdftotext = w.pdfFallback
	}
	body, name, err := parser.Open(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(body, name)
}

// resolveImages looks up ids with bounded concurrency. Failed lookups are
// recorded on the job and left out of the result.
func (w *Worker) resolveImages(ctx context.Context, log *slog.Logger, job *Job, ids []string) map[string]booktree.Image {
	type imageResult struct {
		id  string
		img *booktree.Image
		err error
	}
	results := make(chan imageResult, len(ids))
	sem := make(chan struct{}, w.maxConcurrentImages)

	for _, id := range ids {
		sem <- struct{}{}
		go func(id string) {
			defer func() { <-sem }()
			img, err := w.lookup(ctx, log, id)
			results <- imageResult{id: id, img: img, err: err}
		}(id)
	}

	out := make(map[string]booktree.Image, len(ids))
	for range ids {
		r := <-results
		switch {
		case r.err != nil:
			log.Warn("image lookup failed", "image", r.id, "error", r.err)
			job.AddError(fmt.Sprintf("image %s: %s", r.id, r.err))
			w.countLookup("error")
		case r.img == nil:
			job.AddError(fmt.Sprintf("image %s: not found", r.id))
			w.countLookup("missing")
		default:
			out[r.id] = *r.img
			job.IncrImagesResolved()
			w.countLookup("resolved")
		}
	}
	return out
}

func (w *Worker) lookup(ctx context.Context, log *slog.Logger, id string) (*booktree.Image, error) {
	var img *booktree.Image
	var err error
	for attempt := range MaxLookupAttempts {
		img, err = w.images.Lookup(ctx, id)
		if err == nil || attempt == MaxLookupAttempts-1 {
			break
		}
		var retryErr *imagestore.RetryableError
		if !errors.As(err, &retryErr) {
			break
		}
		delay := w.retryDelay(err, attempt)
		log.Warn("image store busy, retrying", "image", id, "attempt", attempt, "status", retryErr.StatusCode, "delay", delay)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return img, err
}

// LookupRetryDelay is the pause before retrying a failed image lookup. A
// Retry-After from the image store wins, capped at lookupMaxDelay; otherwise
// the delay doubles from lookupBaseDelay with up to 50% jitter.
func LookupRetryDelay(err error, attempt int) time.Duration {
	var retryErr *imagestore.RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > 0 {
		return min(retryErr.RetryAfter, lookupMaxDelay)
	}
	base := min(lookupBaseDelay<<uint(attempt), lookupMaxDelay)
	return base + time.Duration(rand.Int64N(int64(base)/2))
}

func (w *Worker) finish(job *Job, status JobStatus, phase string) {
	job.SetStatus(status, phase)
	if w.metrics != nil {
		w.metrics.JobsFinished.WithLabelValues(string(status)).Inc()
	}
}

func (w *Worker) countLookup(result string) {
	if w.metrics != nil {
		w.metrics.ImageLookups.WithLabelValues(result).Inc()
	}
}
