package parser

import (
	"io"
	"strings"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Headings become
// larger spans and form the native outline.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	w := &mdWalker{src: src, layout: newFlowLayout()}
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		w.block(n)
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

type mdWalker struct {
	src    []byte
	layout *flowLayout
	toc    []docmodel.OutlineEntry
}

// inlineStyle is the style inherited by inline children.
type inlineStyle struct {
	size  float64
	font  string
	flags int
}

func (w *mdWalker) block(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		st := inlineStyle{size: headingSize(node.Level), font: bodyFont, flags: FlagBold}
		w.inlines(node, st)
		w.layout.endBlock()
		if title := strings.TrimSpace(plainText(node, w.src)); title != "" {
			w.toc = append(w.toc, docmodel.OutlineEntry{Level: node.Level, Title: title, Page: 1})
		}
	case *ast.Paragraph, *ast.TextBlock:
		w.inlines(node, inlineStyle{size: bodySize, font: bodyFont})
		w.layout.endBlock()
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			line := strings.TrimRight(string(seg.Value(w.src)), "\r\n")
			w.layout.addSpan(Span{Text: line, Size: bodySize, Font: monoFont})
			w.layout.breakLine()
		}
		w.layout.endBlock()
	case *ast.List, *ast.Blockquote:
		w.layout.indent += flowIndentStep
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c)
		}
		w.layout.indent -= flowIndentStep
	case *ast.ListItem:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c)
		}
	case *ast.ThematicBreak, *ast.HTMLBlock:
		// no text content
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c)
		}
	}
}

func (w *mdWalker) inlines(n ast.Node, st inlineStyle) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			w.layout.addSpan(Span{Text: string(node.Segment.Value(w.src)), Size: st.size, Font: st.font, Flags: st.flags})
			if node.SoftLineBreak() || node.HardLineBreak() {
				w.layout.breakLine()
			}
		case *ast.String:
			w.layout.addSpan(Span{Text: string(node.Value), Size: st.size, Font: st.font, Flags: st.flags})
		case *ast.CodeSpan:
			inner := st
			inner.font = monoFont
			w.inlines(node, inner)
		case *ast.Emphasis:
			inner := st
			if node.Level >= 2 {
				inner.flags |= FlagBold
			} else {
				inner.flags |= FlagItalic
			}
			w.inlines(node, inner)
		case *ast.AutoLink:
			w.layout.addSpan(Span{Text: string(node.Label(w.src)), Size: st.size, Font: st.font, Flags: st.flags})
		case *ast.Image:
			// Markdown images reference external files; the block carries no bytes.
			w.layout.addImage(nil, 0, 0)
		case *ast.RawHTML:
			// skipped
		default:
			w.inlines(node, st)
		}
	}
}

// plainText concatenates the text segments below n.
func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(src))
			if node.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(node.Value)
		default:
			sb.WriteString(plainText(c, src))
		}
	}
	return sb.String()
}
