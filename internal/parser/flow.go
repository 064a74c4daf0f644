package parser

import (
	"unicode/utf8"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

// Flow-layout formats (docx, markdown, html, text, csv) carry no geometry, so
// lines are laid out top to bottom on a letter-sized column.
const (
	flowPageWidth  = 612.0
	flowMargin     = 72.0
	flowLeading    = 1.2
	flowBlockSpace = 6.0
	flowCharWidth  = 0.5
	flowIndentStep = 18.0
)

// Default sizes for flow formats.
const (
	bodySize = 12.0
	monoFont = "Courier"
	bodyFont = "Helvetica"
)

// headingSizes maps heading levels 1..6 to point sizes.
var headingSizes = [...]float64{24, 18, 15, 13, 13, 13}

func headingSize(level int) float64 {
	if level < 1 {
		return bodySize
	}
	if level > len(headingSizes) {
		level = len(headingSizes)
	}
	return headingSizes[level-1]
}

type flowLayout struct {
	pages  []Page
	cur    Page
	y      float64
	lines  []Line
	spans  []Span
	indent float64
}

func newFlowLayout() *flowLayout {
	return &flowLayout{y: flowMargin, cur: Page{Width: flowPageWidth}}
}

func (f *flowLayout) addSpan(sp Span) {
	if sp.Text == "" {
		return
	}
	if sp.Size == 0 {
		sp.Size = bodySize
	}
	if sp.Font == "" {
		sp.Font = bodyFont
	}
	f.spans = append(f.spans, sp)
}

// breakLine closes the current line. An empty line still advances the
// cursor so blank source lines keep their vertical space.
func (f *flowLayout) breakLine() {
	size := bodySize
	width := 0.0
	for _, sp := range f.spans {
		size = max(size, sp.Size)
		width += float64(utf8.RuneCountInString(sp.Text)) * sp.Size * flowCharWidth
	}
	x0 := flowMargin + f.indent
	if len(f.spans) > 0 {
		f.lines = append(f.lines, Line{
			BBox:  docmodel.BBox{x0, f.y, x0 + width, f.y + size},
			Spans: f.spans,
		})
	}
	f.spans = nil
	f.y += size * flowLeading
}

func (f *flowLayout) endBlock() {
	if len(f.spans) > 0 {
		f.breakLine()
	}
	if len(f.lines) == 0 {
		return
	}
	var box docmodel.BBox
	for _, l := range f.lines {
		box = box.Union(l.BBox)
	}
	f.cur.Blocks = append(f.cur.Blocks, Block{Type: BlockText, BBox: box, Lines: f.lines})
	f.lines = nil
	f.y += flowBlockSpace
}

func (f *flowLayout) addImage(data []byte, width, height float64) {
	f.endBlock()
	x0 := flowMargin + f.indent
	f.cur.Blocks = append(f.cur.Blocks, Block{
		Type:  BlockImage,
		BBox:  docmodel.BBox{x0, f.y, x0 + width, f.y + height},
		Image: data,
	})
	f.y += height + flowBlockSpace
}

// pageNumber is the 1-based number of the page currently being laid out.
func (f *flowLayout) pageNumber() int { return len(f.pages) + 1 }

func (f *flowLayout) newPage() {
	f.endBlock()
	f.cur.Height = f.y + flowMargin
	f.pages = append(f.pages, f.cur)
	f.cur = Page{Width: flowPageWidth}
	f.y = flowMargin
}

// finish flushes pending content and returns every page laid out so far.
func (f *flowLayout) finish() []Page {
	f.newPage()
	for i := range f.pages {
		f.pages[i].Number = i
	}
	return f.pages
}
