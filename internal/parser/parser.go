package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

// BlockType distinguishes raw text blocks from raw image blocks.
type BlockType int

const (
	BlockText  BlockType = 0
	BlockImage BlockType = 1
)

// Span style flag bits, matching the renderer convention.
const (
	FlagItalic = 1 << 1
	FlagBold   = 1 << 4
)

// Span is a run of text in one font, size, color and style within a line.
// A nil Color means the renderer supplied no integer color.
type Span struct {
	Text  string
	Size  float64
	Font  string
	Color *int
	Flags int
}

// Line is one source line of spans.
type Line struct {
	BBox  docmodel.BBox
	Spans []Span
}

// Block is either an image (Image bytes, possibly empty when extraction
// failed) or an ordered sequence of lines.
type Block struct {
	Type  BlockType
	BBox  docmodel.BBox
	Lines []Line
	Image []byte
}

// Page is one page of raw blocks in source order. Number is 0-based.
type Page struct {
	Number int
	Width  float64
	Height float64
	Blocks []Block
}

// Source is an opened, page-structured document.
type Source interface {
	PageCount() int
	// Page returns page n (0-based). An error means the source is unreadable.
	Page(ctx context.Context, n int) (*Page, error)
	// Outline returns the document's native outline, or nil if it has none.
	Outline() []docmodel.OutlineEntry
	Title() string
	Close() error
}

// Parser opens raw document bytes as a page Source.
type Parser interface {
	Parse(r io.Reader, filename string) (Source, error)
}

// Options tunes the format adapters.
type Options struct {
	ExtractImages bool
	RowTolerance  float64
	BlockGap      float64
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".pdf":      true,
	".docx":     true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".txt":      true,
	".csv":      true,
	".json":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return &PDFParser{
			ExtractImages: opts.ExtractImages,
			RowTolerance:  opts.RowTolerance,
			BlockGap:      opts.BlockGap,
		}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".txt":
		return &TextParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".json":
		return &JSONParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// baseTitle strips the extension from a filename.
func baseTitle(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}

// MemorySource serves pages that were fully materialised up front.
type MemorySource struct {
	Pages    []Page
	TOC      []docmodel.OutlineEntry
	DocTitle string
}

func (m *MemorySource) PageCount() int { return len(m.Pages) }

func (m *MemorySource) Page(ctx context.Context, n int) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 0 || n >= len(m.Pages) {
		return nil, fmt.Errorf("page %d out of range (%d pages)", n, len(m.Pages))
	}
	p := m.Pages[n]
	p.Number = n
	return &p, nil
}

func (m *MemorySource) Outline() []docmodel.OutlineEntry { return m.TOC }

func (m *MemorySource) Title() string { return m.DocTitle }

func (m *MemorySource) Close() error { return nil }
