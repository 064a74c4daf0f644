package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"math"

	"github.com/dgallion1/pdfread/internal/docmodel"
)

// JSONParser reads the page interchange format: pages of raw blocks as a
// layout engine would emit them, plus an optional [level, title, page] toc.
type JSONParser struct{}

type jsonDocument struct {
	Title string                  `json:"title"`
	Pages []jsonPage              `json:"pages"`
	TOC   []docmodel.OutlineEntry `json:"toc"`
}

type jsonPage struct {
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Blocks []jsonBlock `json:"blocks"`
}

type jsonBlock struct {
	Type  int           `json:"type"`
	BBox  docmodel.BBox `json:"bbox"`
	Lines []jsonLine    `json:"lines"`
	Image []byte        `json:"image"`
}

type jsonLine struct {
	BBox  docmodel.BBox `json:"bbox"`
	Spans []jsonSpan    `json:"spans"`
}

type jsonSpan struct {
	Text  string          `json:"text"`
	Size  float64         `json:"size"`
	Font  string          `json:"font"`
	Color json.RawMessage `json:"color"`
	Flags int             `json:"flags"`
}

func (p *JSONParser) Parse(r io.Reader, filename string) (Source, error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}

	src := &MemorySource{TOC: doc.TOC, DocTitle: doc.Title}
	if src.DocTitle == "" {
		src.DocTitle = baseTitle(filename)
	}
	for i, jp := range doc.Pages {
		page := Page{Number: i, Width: jp.Width, Height: jp.Height}
		for _, jb := range jp.Blocks {
			b := Block{Type: BlockType(jb.Type), BBox: jb.BBox, Image: jb.Image}
			for _, jl := range jb.Lines {
				line := Line{BBox: jl.BBox}
				for _, js := range jl.Spans {
					line.Spans = append(line.Spans, Span{
						Text:  js.Text,
						Size:  js.Size,
						Font:  js.Font,
						Color: integerColor(js.Color),
						Flags: js.Flags,
					})
				}
				b.Lines = append(b.Lines, line)
			}
			page.Blocks = append(page.Blocks, b)
		}
		src.Pages = append(src.Pages, page)
	}
	return src, nil
}

// integerColor accepts only integral JSON numbers; anything else (null,
// strings, arrays, fractions) is treated as absent.
func integerColor(raw json.RawMessage) *int {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return nil
	}
	c := int(f)
	return &c
}
