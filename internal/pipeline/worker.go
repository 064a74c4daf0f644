package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/idgen"
	"github.com/dgallion1/pdfread/internal/parser"
	"github.com/dgallion1/pdfread/internal/reconstruct"
	"github.com/dgallion1/pdfread/internal/store"
)

// DocumentStore is the persistence a worker writes to.
type DocumentStore interface {
	FindByHash(ctx context.Context, ownerID, hash string) (*docmodel.Document, error)
	CreateDocument(ctx context.Context, doc *docmodel.Document) error
}

// Worker processes a single document job.
type Worker struct {
	store      DocumentStore
	assembler  *reconstruct.Assembler
	parserOpts parser.Options
	stats      *IngestStats
	log        *slog.Logger

	backoff func(attempt int) time.Duration
}

func NewWorker(st DocumentStore, newBlockID idgen.Generator, opts parser.Options, stats *IngestStats, log *slog.Logger) *Worker {
	return &Worker{
		store:      st,
		assembler:  reconstruct.NewAssembler(newBlockID, log),
		parserOpts: opts,
		stats:      stats,
		log:        log,
		backoff:    Backoff,
	}
}

// Process runs the full ingest pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "user_id", job.UserID)
	start := time.Now()
	defer job.releaseFileData()

	data := job.FileData()
	job.ContentHash = ContentHashHex(data)

	// Phase 0: Dedup check
	if !job.Force {
		existing, err := w.store.FindByHash(ctx, job.UserID, job.ContentHash)
		switch {
		case err == nil:
			log.Info("duplicate document, skipping", "existing_doc_id", existing.ID)
			job.MarkDuplicate(existing.ID)
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	src, err := p.Parse(bytes.NewReader(data), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	defer src.Close()

	// Phase 2: Reconstruct
	job.SetStatus(StatusReconstructing, "reconstructing")
	doc, rep, err := w.assembler.Assemble(ctx, job.DocID, src)
	job.SetReport(rep)
	if err != nil {
		log.Error("reconstruction failed", "error", err)
		job.AddError(fmt.Sprintf("reconstruct: %s", err))
		job.SetStatus(StatusFailed, "reconstructing")
		return
	}
	doc.OwnerID = job.UserID
	doc.Filename = job.Filename
	doc.ContentHash = job.ContentHash
	doc.Data = data
	if job.Title != "" {
		doc.Title = job.Title
	}
	if doc.Title == "" {
		doc.Title = job.Filename
	}

	// Phase 3: Store
	job.SetStatus(StatusStoring, "storing")
	if err := w.storeWithRetry(ctx, log, doc); err != nil {
		log.Error("store failed", "error", err)
		job.AddError(fmt.Sprintf("store: %s", err))
		job.SetStatus(StatusFailed, "storing")
		return
	}

	elapsed := time.Since(start)
	if w.stats != nil {
		w.stats.Record(elapsed.Milliseconds(), doc.PageCount)
	}
	log.Info("document ingested",
		"pages", doc.PageCount,
		"blocks", len(doc.Blocks),
		"toc_entries", len(doc.Outline),
		"duration_ms", elapsed.Milliseconds(),
	)
	job.SetStatus(StatusCompleted, "done")
}

func (w *Worker) storeWithRetry(ctx context.Context, log *slog.Logger, doc *docmodel.Document) error {
	var lastErr error
	for attempt := range MaxRetries {
		lastErr = w.store.CreateDocument(ctx, doc)
		if lastErr == nil || !IsRetryable(lastErr) {
			return lastErr
		}
		log.Warn("retryable store error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(w.backoff(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return lastErr
}
