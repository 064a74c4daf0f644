// Package editor applies structural edits to persisted text blocks.
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/idgen"
)

var (
	// ErrInvalidArgument is the parent of every caller-input failure.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidSplitIndex means the split index is outside (0, word count).
	ErrInvalidSplitIndex = fmt.Errorf("%w: split index out of range", ErrInvalidArgument)
	// ErrNotTextBlock means the block has no words to split.
	ErrNotTextBlock = fmt.Errorf("%w: not a text block", ErrInvalidArgument)
	// ErrConcurrentSplit means another split on the same document is running.
	ErrConcurrentSplit = errors.New("split already in progress for this document")
)

// Store is the persistence the editor needs. ApplySplit must, atomically,
// shift every sibling on the block's page ordered after it by one (highest
// first), update the original in place, and insert the new block.
type Store interface {
	GetBlock(ctx context.Context, docID, blockID string) (*docmodel.Block, error)
	ApplySplit(ctx context.Context, updated, created docmodel.Block) error
}

// Editor splits blocks. At most one split per document runs at a time.
type Editor struct {
	store Store
	newID idgen.Generator
	log   *slog.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// New returns an Editor persisting through store and minting block IDs
// with newID.
func New(store Store, newID idgen.Generator, log *slog.Logger) *Editor {
	if log == nil {
		log = slog.Default()
	}
	return &Editor{store: store, newID: newID, log: log, active: make(map[string]struct{})}
}

// tryLock claims docID; it never blocks.
func (e *Editor) tryLock(docID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.active[docID]; busy {
		return false
	}
	e.active[docID] = struct{}{}
	return true
}

func (e *Editor) unlock(docID string) {
	e.mu.Lock()
	delete(e.active, docID)
	e.mu.Unlock()
}

// Split divides a text block so that the word at splitIndex starts a new
// block placed directly after it. It returns the shortened original and the
// new block.
func (e *Editor) Split(ctx context.Context, docID, blockID string, splitIndex int) (docmodel.Block, docmodel.Block, error) {
	if !e.tryLock(docID) {
		return docmodel.Block{}, docmodel.Block{}, ErrConcurrentSplit
	}
	defer e.unlock(docID)

	orig, err := e.store.GetBlock(ctx, docID, blockID)
	if err != nil {
		return docmodel.Block{}, docmodel.Block{}, err
	}

	first, second, err := SplitBlock(*orig, splitIndex, e.newID())
	if err != nil {
		return docmodel.Block{}, docmodel.Block{}, err
	}

	if err := e.store.ApplySplit(ctx, first, second); err != nil {
		return docmodel.Block{}, docmodel.Block{}, fmt.Errorf("apply split: %w", err)
	}

	e.log.Info("block split",
		"doc_id", docID,
		"block_id", blockID,
		"new_block_id", second.ID,
		"split_index", splitIndex,
		"page", orig.PageNumber,
	)
	return first, second, nil
}

// SplitBlock partitions b's words at k without touching storage. Each half's
// text is its words joined by single spaces, with offsets recomputed against
// that text. The new block keeps b's style runs and position unchanged.
func SplitBlock(b docmodel.Block, k int, newID string) (docmodel.Block, docmodel.Block, error) {
	if b.Kind != docmodel.KindText {
		return docmodel.Block{}, docmodel.Block{}, ErrNotTextBlock
	}
	if k <= 0 || k >= len(b.Words) {
		return docmodel.Block{}, docmodel.Block{}, fmt.Errorf("%w: %d not in (0, %d)", ErrInvalidSplitIndex, k, len(b.Words))
	}

	first := b
	first.Text, first.Words = joinWords(b.Words[:k])

	second := docmodel.Block{
		ID:         newID,
		DocID:      b.DocID,
		PageNumber: b.PageNumber,
		BlockOrder: b.BlockOrder + 1,
		Kind:       b.Kind,
		StyleRuns:  append([]docmodel.StyleRun(nil), b.StyleRuns...),
		Position:   b.Position,
	}
	second.Text, second.Words = joinWords(b.Words[k:])
	return first, second, nil
}

func joinWords(words []docmodel.Word) (string, []docmodel.Word) {
	out := make([]docmodel.Word, len(words))
	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		w.Start = sb.Len()
		sb.WriteString(w.Text)
		w.End = sb.Len()
		out[i] = w
	}
	return sb.String(), out
}
