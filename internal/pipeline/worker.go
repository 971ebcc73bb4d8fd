package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/nbtoc/internal/augment"
	"github.com/dgallion1/nbtoc/internal/parser"
)

// Worker converts and augments pages.
type Worker struct {
	augmenter  *augment.Augmenter
	parserOpts parser.Options
	cache      *ResultCache
	log        *slog.Logger
}

func NewWorker(a *augment.Augmenter, parserOpts parser.Options, cache *ResultCache, log *slog.Logger) *Worker {
	return &Worker{
		augmenter:  a,
		parserOpts: parserOpts,
		cache:      cache,
		log:        log,
	}
}

// Process runs the full pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	phase := "parsing"
	job.SetStatus(StatusParsing, phase)
	res, cached, err := w.run(ctx, job.Filename, job.FileData(), job.opts, func() {
		phase = "augmenting"
		job.SetStatus(StatusAugmenting, phase)
	})
	if err != nil {
		log.Error("augmentation failed", "phase", phase, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, phase)
		return
	}

	job.Complete(res, cached)
	log.Info("job complete", "headings", len(res.Entries), "bytes", len(res.HTML), "cached", cached)
}

// Convert runs a single conversion synchronously.
func (w *Worker) Convert(ctx context.Context, filename string, data []byte, opts augment.Options) (*augment.Result, bool, error) {
	return w.run(ctx, filename, data, opts, nil)
}

func (w *Worker) run(ctx context.Context, filename string, data []byte, opts augment.Options, augmenting func()) (*augment.Result, bool, error) {
	key := CacheKey(ContentHashHex(data), filename, opts)
	if res, ok := w.cache.Get(key); ok {
		return res, true, nil
	}

	p, err := parser.ForFile(filename, w.parserOpts)
	if err != nil {
		return nil, false, err
	}
	pg, err := p.Parse(bytes.NewReader(data), filename)
	if err != nil {
		return nil, false, fmt.Errorf("parse: %w", err)
	}

	if augmenting != nil {
		augmenting()
	}
	res, err := w.augmenter.AugmentWith(ctx, pg, opts)
	if err != nil {
		return nil, false, err
	}
	w.cache.Add(key, res)
	return res, false, nil
}
