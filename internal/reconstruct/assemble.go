package reconstruct

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/idgen"
	"github.com/dgallion1/pdfread/internal/parser"
)

// Report tallies what reconstruction kept and skipped for one document.
type Report struct {
	Pages         int `json:"pages"`
	TextBlocks    int `json:"text_blocks"`
	ImageBlocks   int `json:"image_blocks"`
	EmptyBlocks   int `json:"empty_blocks"`
	MissingImages int `json:"missing_images"`
	SkippedWords  int `json:"skipped_words"`
}

// Assembler runs reconstruction over every page of a source.
type Assembler struct {
	blocks *Reconstructor
	log    *slog.Logger
	now    func() time.Time
}

// NewAssembler returns an Assembler minting block IDs with newBlockID.
func NewAssembler(newBlockID idgen.Generator, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.Default()
	}
	return &Assembler{
		blocks: NewReconstructor(newBlockID, log),
		log:    log,
		now:    time.Now,
	}
}

// Assemble reads pages in order and returns the populated document. Any
// page read failure aborts with ErrSourceRead and no document. The outline
// is the source's own when it has one, otherwise inferred.
func (a *Assembler) Assemble(ctx context.Context, docID string, src parser.Source) (*docmodel.Document, Report, error) {
	var rep Report
	doc := &docmodel.Document{
		ID:        docID,
		Title:     src.Title(),
		PageCount: src.PageCount(),
		CreatedAt: a.now().UTC(),
		Blocks:    []docmodel.Block{},
	}

	var lines []SizedLine
	for n := 0; n < doc.PageCount; n++ {
		page, err := src.Page(ctx, n)
		if err != nil {
			return nil, rep, fmt.Errorf("%w: page %d: %w", ErrSourceRead, n, err)
		}
		page.Number = n
		doc.Blocks = append(doc.Blocks, a.blocks.Page(docID, page, &rep)...)
		lines = append(lines, PageLines(page)...)
		rep.Pages++
	}

	if native := src.Outline(); len(native) > 0 {
		doc.Outline = native
		doc.OutlineSource = docmodel.OutlineNative
	} else if inferred := InferOutline(lines); len(inferred) > 0 {
		doc.Outline = inferred
		doc.OutlineSource = docmodel.OutlineInferred
	}
	if doc.Outline == nil {
		doc.Outline = []docmodel.OutlineEntry{}
	}

	a.log.Info("document reconstructed",
		"doc_id", docID,
		"pages", rep.Pages,
		"text_blocks", rep.TextBlocks,
		"image_blocks", rep.ImageBlocks,
		"empty_blocks", rep.EmptyBlocks,
		"missing_images", rep.MissingImages,
		"skipped_words", rep.SkippedWords,
		"toc_source", doc.OutlineSource,
	)
	return doc, rep, nil
}
