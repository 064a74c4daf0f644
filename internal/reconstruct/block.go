package reconstruct

import (
	"log/slog"
	"strings"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/idgen"
	"github.com/dgallion1/pdfread/internal/parser"
)

// ImagePath is the URL under which an image block's bytes are served.
func ImagePath(blockID string) string {
	return "/api/images/" + blockID
}

// TextResult is the three views of one reconstructed text block.
type TextResult struct {
	Text      string
	Words     []docmodel.Word
	StyleRuns []docmodel.StyleRun
	// SkippedWords counts words that could not be located in their span.
	SkippedWords int
}

// BuildText concatenates a raw text block's spans, one newline after each
// line, recording a style run per span and a located word per token. All
// offsets are byte offsets into Text.
func BuildText(lines []parser.Line) TextResult {
	var (
		res  TextResult
		sb   strings.Builder
		char int
	)
	for _, line := range lines {
		lineStart := true
		for _, raw := range line.Spans {
			sp, ok := NormalizeSpan(raw)
			if !ok {
				continue
			}
			spanStart := char
			sb.WriteString(sp.Text)
			char += len(sp.Text)
			res.StyleRuns = append(res.StyleRuns, docmodel.StyleRun{
				Start:    spanStart,
				End:      char,
				FontSize: sp.Size,
				Font:     sp.Font,
				Color:    sp.Color,
				IsBold:   sp.IsBold,
				IsItalic: sp.IsItalic,
			})

			cursor := 0
			for i, word := range strings.Fields(sp.Text) {
				at := strings.Index(sp.Text[cursor:], word)
				if at < 0 {
					res.SkippedWords++
					continue
				}
				start := cursor + at
				cursor = start + len(word)

				w := docmodel.Word{
					Start:      spanStart + start,
					End:        spanStart + cursor,
					Text:       word,
					FontSize:   sp.Size,
					FontFamily: sp.Font,
					IsBold:     sp.IsBold,
					IsItalic:   sp.IsItalic,
					Color:      sp.Color,
				}
				if lineStart && i == 0 {
					w.IsNewline = true
					w.X = line.BBox.X0()
					lineStart = false
				}
				res.Words = append(res.Words, w)
			}
		}
		sb.WriteByte('\n')
		char++
	}
	res.Text = sb.String()
	return res
}

// Reconstructor converts raw pages into document blocks.
type Reconstructor struct {
	newID idgen.Generator
	log   *slog.Logger
}

// NewReconstructor returns a Reconstructor minting block IDs with newID.
func NewReconstructor(newID idgen.Generator, log *slog.Logger) *Reconstructor {
	if log == nil {
		log = slog.Default()
	}
	return &Reconstructor{newID: newID, log: log}
}

// Page emits the page's blocks in source order. BlockOrder starts at 0 and
// advances only for emitted blocks. Skips are tallied into rep.
func (r *Reconstructor) Page(docID string, page *parser.Page, rep *Report) []docmodel.Block {
	var out []docmodel.Block
	order := 0
	for i, raw := range page.Blocks {
		switch raw.Type {
		case parser.BlockImage:
			if len(raw.Image) == 0 {
				rep.MissingImages++
				r.log.Debug("dropping block", "page", page.Number, "raw_block", i, "error", ErrMissingImage)
				continue
			}
			id := r.newID()
			out = append(out, docmodel.Block{
				ID:         id,
				DocID:      docID,
				PageNumber: page.Number,
				BlockOrder: order,
				Kind:       docmodel.KindImage,
				Words:      []docmodel.Word{},
				StyleRuns:  []docmodel.StyleRun{},
				Position:   raw.BBox,
				ImagePath:  ImagePath(id),
				Image:      raw.Image,
			})
			rep.ImageBlocks++
			order++

		case parser.BlockText:
			if len(raw.Lines) == 0 {
				continue
			}
			res := BuildText(raw.Lines)
			if res.SkippedWords > 0 {
				rep.SkippedWords += res.SkippedWords
				r.log.Debug("skipped words", "page", page.Number, "raw_block", i, "count", res.SkippedWords, "error", ErrMalformedSpan)
			}
			if strings.TrimSpace(res.Text) == "" {
				rep.EmptyBlocks++
				r.log.Debug("dropping block", "page", page.Number, "raw_block", i, "error", ErrEmptyBlock)
				continue
			}
			if res.Words == nil {
				res.Words = []docmodel.Word{}
			}
			out = append(out, docmodel.Block{
				ID:         r.newID(),
				DocID:      docID,
				PageNumber: page.Number,
				BlockOrder: order,
				Kind:       docmodel.KindText,
				Text:       res.Text,
				Words:      res.Words,
				StyleRuns:  res.StyleRuns,
				Position:   raw.BBox,
			})
			rep.TextBlocks++
			order++
		}
	}
	return out
}
