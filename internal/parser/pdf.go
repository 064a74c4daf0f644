package parser

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"unicode/utf8"

	"github.com/dgallion1/pdfread/internal/docmodel"
	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	defaultRowTolerance = 3.0
	defaultBlockGap     = 1.5
	// A horizontal gap wider than this fraction of the font size is a space.
	spaceGapRatio = 0.3
	// Advance per rune, as a fraction of the font size, for fonts without
	// a /Widths array (the standard 14).
	estimatedAdvance = 0.5
	// Upper bound on /Parent hops when resolving inherited page attributes.
	maxPageTreeDepth = 64
)

// PDFParser handles PDF files. Glyph positions come from ledongthuc/pdf;
// bookmarks and embedded images come from pdfcpu.
type PDFParser struct {
	ExtractImages bool
	RowTolerance  float64
	BlockGap      float64
}

func (p *PDFParser) Parse(r io.Reader, filename string) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader, err := openPDF(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	src := &pdfSource{
		reader:       reader,
		rowTolerance: p.RowTolerance,
		blockGap:     p.BlockGap,
		title:        baseTitle(filename),
	}
	if src.rowTolerance <= 0 {
		src.rowTolerance = defaultRowTolerance
	}
	if src.blockGap <= 0 {
		src.blockGap = defaultBlockGap
	}
	if t := pdfInfoTitle(reader); t != "" {
		src.title = t
	}

	// pdfcpu is stricter than ledongthuc; a document it rejects still yields
	// text, just without bookmarks or images.
	if cpu, err := api.ReadValidateAndOptimize(bytes.NewReader(data), model.NewDefaultConfiguration()); err == nil {
		src.toc = pdfBookmarks(cpu)
		if p.ExtractImages {
			src.cpu = cpu
		}
	}

	return src, nil
}

func openPDF(data []byte) (reader *pdflib.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	return pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
}

func pdfInfoTitle(reader *pdflib.Reader) (title string) {
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()
	return reader.Trailer().Key("Info").Key("Title").Text()
}

// pdfBookmarks flattens the bookmark tree, using nesting depth as level.
func pdfBookmarks(ctx *model.Context) []docmodel.OutlineEntry {
	bms, err := pdfcpu.Bookmarks(ctx)
	if err != nil || len(bms) == 0 {
		return nil
	}
	var out []docmodel.OutlineEntry
	var walk func([]pdfcpu.Bookmark, int)
	walk = func(list []pdfcpu.Bookmark, level int) {
		for _, bm := range list {
			if bm.Title != "" {
				out = append(out, docmodel.OutlineEntry{Level: level, Title: bm.Title, Page: bm.PageFrom})
			}
			walk(bm.Kids, level+1)
		}
	}
	walk(bms, 1)
	return out
}

type pdfSource struct {
	reader       *pdflib.Reader
	cpu          *model.Context
	toc          []docmodel.OutlineEntry
	title        string
	rowTolerance float64
	blockGap     float64
}

func (s *pdfSource) PageCount() int                   { return s.reader.NumPage() }
func (s *pdfSource) Outline() []docmodel.OutlineEntry { return s.toc }
func (s *pdfSource) Title() string                    { return s.title }
func (s *pdfSource) Close() error                     { return nil }

func (s *pdfSource) Page(ctx context.Context, n int) (page *Page, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 0 || n >= s.reader.NumPage() {
		return nil, fmt.Errorf("page %d out of range (%d pages)", n, s.reader.NumPage())
	}
	defer func() {
		if rec := recover(); rec != nil {
			page, err = nil, fmt.Errorf("page %d: malformed content: %v", n+1, rec)
		}
	}()

	p := s.reader.Page(n + 1)
	if p.V.IsNull() {
		return nil, fmt.Errorf("page %d: missing page object", n+1)
	}

	width, height := mediaBox(p)
	page = &Page{Number: n, Width: width, Height: height}
	page.Blocks = groupBlocks(groupRows(p.Content().Text, s.rowTolerance), height, s.blockGap)

	if s.cpu != nil {
		page.Blocks = append(page.Blocks, s.pageImages(n+1, width, height)...)
	}
	return page, nil
}

// mediaBox resolves the page's MediaBox, which may be inherited from any
// ancestor in the page tree. Letter size is assumed when none is found.
func mediaBox(p pdflib.Page) (float64, float64) {
	v := p.V
	for i := 0; i < maxPageTreeDepth && !v.IsNull(); i++ {
		if box := v.Key("MediaBox"); box.Len() >= 4 {
			w := box.Index(2).Float64() - box.Index(0).Float64()
			h := box.Index(3).Float64() - box.Index(1).Float64()
			if w > 0 && h > 0 {
				return w, h
			}
		}
		v = v.Key("Parent")
	}
	return 612, 792
}

// glyphAdvance is the glyph's width, estimated from its font size when the
// font carries no widths.
func glyphAdvance(g pdflib.Text) float64 {
	if g.W > 0 {
		return g.W
	}
	return g.FontSize * estimatedAdvance * float64(utf8.RuneCountInString(g.S))
}

// row is a set of glyphs sharing a baseline within tolerance.
type row struct {
	y      float64
	glyphs []pdflib.Text
}

// groupRows buckets glyphs into rows, top of the page first, each row
// sorted left to right.
func groupRows(glyphs []pdflib.Text, tolerance float64) []row {
	sorted := make([]pdflib.Text, 0, len(glyphs))
	for _, g := range glyphs {
		if g.S != "" {
			sorted = append(sorted, g)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y > sorted[j].Y })

	var rows []row
	for _, g := range sorted {
		if n := len(rows); n > 0 && rows[n-1].y-g.Y <= tolerance {
			rows[n-1].glyphs = append(rows[n-1].glyphs, g)
			continue
		}
		rows = append(rows, row{y: g.Y, glyphs: []pdflib.Text{g}})
	}
	for i := range rows {
		sort.SliceStable(rows[i].glyphs, func(a, b int) bool { return rows[i].glyphs[a].X < rows[i].glyphs[b].X })
	}
	return rows
}

// rowLine merges a row's glyphs into spans of equal font and size.
func rowLine(r row, pageHeight float64) (Line, float64) {
	var spans []Span
	var maxSize float64
	x0, x1 := r.glyphs[0].X, r.glyphs[0].X
	var prevX, prevEnd float64
	for i, g := range r.glyphs {
		maxSize = max(maxSize, g.FontSize)
		x := g.X
		// Without widths the reader never advances the pen, so glyphs of
		// one text run share an origin. Lay them out after the previous one.
		if i > 0 && g.W == 0 && g.X == prevX {
			x = prevEnd
		}
		end := x + glyphAdvance(g)
		x1 = max(x1, end)
		gap := i > 0 && x-prevEnd > spaceGapRatio*g.FontSize
		prevX, prevEnd = g.X, end

		n := len(spans)
		if n > 0 && spans[n-1].Font == g.Font && spans[n-1].Size == g.FontSize {
			if gap {
				spans[n-1].Text += " "
			}
			spans[n-1].Text += g.S
			continue
		}
		text := g.S
		if gap {
			text = " " + text
		}
		spans = append(spans, Span{Text: text, Size: g.FontSize, Font: g.Font})
	}
	top := pageHeight - r.y - maxSize
	return Line{
		BBox:  docmodel.BBox{x0, top, x1, pageHeight - r.y},
		Spans: spans,
	}, maxSize
}

// groupBlocks starts a new block whenever the baseline gap to the previous
// row exceeds gapRatio times that row's font size.
func groupBlocks(rows []row, pageHeight, gapRatio float64) []Block {
	var blocks []Block
	var cur *Block
	var prevY, prevSize float64
	for _, r := range rows {
		line, size := rowLine(r, pageHeight)
		if cur == nil || prevY-r.y > gapRatio*prevSize {
			blocks = append(blocks, Block{Type: BlockText})
			cur = &blocks[len(blocks)-1]
		}
		cur.Lines = append(cur.Lines, line)
		cur.BBox = cur.BBox.Union(line.BBox)
		prevY, prevSize = r.y, size
	}
	return blocks
}

// pageImages returns one image block per image XObject on the page, each
// covering the whole page since placement is not tracked. Only JPEG and
// JPEG 2000 streams are usable as-is; other encodings yield a block without
// bytes.
func (s *pdfSource) pageImages(pageNr int, width, height float64) []Block {
	var blocks []Block
	for _, objNr := range pdfcpu.ImageObjNrs(s.cpu, pageNr) {
		sd, _, err := s.cpu.DereferenceStreamDict(*types.NewIndirectRef(objNr, 0))
		if err != nil || sd == nil {
			continue
		}
		var data []byte
		if n := len(sd.FilterPipeline); n > 0 {
			switch sd.FilterPipeline[n-1].Name {
			case "DCTDecode", "JPXDecode":
				data = sd.Raw
			}
		}
		blocks = append(blocks, Block{Type: BlockImage, BBox: docmodel.BBox{0, 0, width, height}, Image: data})
	}
	return blocks
}
