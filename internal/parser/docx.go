package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/fumiama/go-docx"
)

// emuPerPoint converts drawing extents (English Metric Units) to points.
const emuPerPoint = 12700.0

// DOCXParser handles .docx files. Paragraph heading styles give the native
// outline, and run properties carry font, size, color and emphasis.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	w := &docxWalker{doc: doc, layout: newFlowLayout()}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			w.paragraph(it)
		case *docx.Table:
			w.table(it)
		}
	}

	title := baseTitle(filename)
	for _, e := range w.toc {
		if e.Level == 1 {
			title = e.Title
			break
		}
	}
	return &MemorySource{Pages: w.layout.finish(), TOC: w.toc, DocTitle: title}, nil
}

type docxWalker struct {
	doc    *docx.Docx
	layout *flowLayout
	toc    []docmodel.OutlineEntry
}

func (w *docxWalker) paragraph(para *docx.Paragraph) {
	level := docxHeadingLevel(para)
	var title strings.Builder
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			w.run(c, level, &title)
		case *docx.Hyperlink:
			w.run(&c.Run, level, &title)
		}
	}
	page := w.layout.pageNumber()
	w.layout.endBlock()
	if level > 0 {
		if t := strings.TrimSpace(title.String()); t != "" {
			w.toc = append(w.toc, docmodel.OutlineEntry{Level: level, Title: t, Page: page})
		}
	}
}

func (w *docxWalker) run(run *docx.Run, level int, title *strings.Builder) {
	base := Span{Size: bodySize, Font: bodyFont}
	if level > 0 {
		base.Size = headingSize(level)
		base.Flags |= FlagBold
	}
	if props := run.RunProperties; props != nil {
		if props.Fonts != nil && props.Fonts.ASCII != "" {
			base.Font = props.Fonts.ASCII
		}
		if props.Bold != nil {
			base.Flags |= FlagBold
		}
		if props.Italic != nil {
			base.Flags |= FlagItalic
		}
		if props.Size != nil {
			if half, err := strconv.Atoi(props.Size.Val); err == nil && half > 0 {
				base.Size = float64(half) / 2
			}
		}
		if props.Color != nil {
			base.Color = docxColor(props.Color.Val)
		}
	}

	for _, child := range run.Children {
		switch c := child.(type) {
		case *docx.Text:
			sp := base
			sp.Text = c.Text
			w.layout.addSpan(sp)
			title.WriteString(c.Text)
		case *docx.Tab:
			sp := base
			sp.Text = "\t"
			w.layout.addSpan(sp)
		case *docx.BarterRabbet:
			if c.Type == "page" {
				w.layout.newPage()
			} else {
				w.layout.breakLine()
			}
		case *docx.Drawing:
			w.drawing(c)
		}
	}
}

// drawing emits an image block for an inline picture. Anchored and
// non-picture drawings carry no usable bytes.
func (w *docxWalker) drawing(d *docx.Drawing) {
	in := d.Inline
	if in == nil || in.Graphic == nil || in.Graphic.GraphicData == nil || in.Graphic.GraphicData.Pic == nil {
		w.layout.addImage(nil, 0, 0)
		return
	}
	var width, height float64
	if in.Extent != nil {
		width = float64(in.Extent.CX) / emuPerPoint
		height = float64(in.Extent.CY) / emuPerPoint
	}
	var data []byte
	if fill := in.Graphic.GraphicData.Pic.BlipFill; fill != nil {
		if target, err := w.doc.ReferTarget(fill.Blip.Embed); err == nil {
			if m := w.doc.Media(strings.TrimPrefix(target, "media/")); m != nil {
				data = m.Data
			}
		}
	}
	w.layout.addImage(data, width, height)
}

// table lays out each row as one line with cells joined by " | ".
func (w *docxWalker) table(t *docx.Table) {
	for _, tr := range t.TableRows {
		var cells []string
		for _, tc := range tr.TableCells {
			var parts []string
			for _, para := range tc.Paragraphs {
				if s := docxParagraphText(para); s != "" {
					parts = append(parts, s)
				}
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		w.layout.addSpan(Span{Text: strings.Join(cells, " | ")})
		w.layout.breakLine()
	}
	w.layout.endBlock()
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if style == "title" {
		return 1
	}
	if rest, ok := strings.CutPrefix(style, "heading"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 6 {
			return n
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

// docxColor parses a w:color value such as "FF0000". "auto" and malformed
// values yield nil.
func docxColor(val string) *int {
	if len(val) != 6 {
		return nil
	}
	n, err := strconv.ParseInt(val, 16, 32)
	if err != nil {
		return nil
	}
	c := int(n)
	return &c
}
