package parser

import (
	"encoding/base64"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// HTMLParser handles HTML files. The declared charset is honoured, h1-h6
// form the native outline, and data: URI images become image blocks.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (Source, error) {
	utf8Reader, err := charset.NewReader(r, "text/html")
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	doc, err := html.Parse(utf8Reader)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := baseTitle(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	w := &htmlWalker{layout: newFlowLayout()}
	root := findBody(doc)
	if root == nil {
		root = doc
	}
	w.walk(root, inlineStyle{size: bodySize, font: bodyFont}, false)

	return &MemorySource{Pages: w.layout.finish(), TOC: w.toc, DocTitle: title}, nil
}

type htmlWalker struct {
	layout *flowLayout
	toc    []docmodel.OutlineEntry
}

func (w *htmlWalker) walk(n *html.Node, st inlineStyle, pre bool) {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if pre {
			lines := strings.Split(text, "\n")
			for i, line := range lines {
				if i > 0 {
					w.layout.breakLine()
				}
				w.layout.addSpan(Span{Text: line, Size: st.size, Font: st.font, Flags: st.flags})
			}
			return
		}
		text = collapseSpace(text)
		if strings.TrimSpace(text) == "" && len(w.layout.spans) == 0 {
			return
		}
		w.layout.addSpan(Span{Text: text, Size: st.size, Font: st.font, Flags: st.flags})
		return
	case html.ElementNode:
	default:
		w.children(n, st, pre)
		return
	}

	if level := headingLevel(n.Data); level > 0 {
		w.layout.endBlock()
		w.children(n, inlineStyle{size: headingSize(level), font: bodyFont, flags: FlagBold}, pre)
		w.layout.endBlock()
		if t := textContent(n); t != "" {
			w.toc = append(w.toc, docmodel.OutlineEntry{Level: level, Title: collapseSpace(t), Page: 1})
		}
		return
	}

	switch n.Data {
	case "script", "style", "noscript", "template", "head":
		return
	case "br":
		w.layout.breakLine()
		return
	case "hr":
		w.layout.endBlock()
		return
	case "img":
		w.image(n)
		return
	case "b", "strong":
		st.flags |= FlagBold
	case "i", "em", "cite":
		st.flags |= FlagItalic
	case "code", "kbd", "samp", "tt":
		st.font = monoFont
	case "pre":
		st.font = monoFont
		w.layout.endBlock()
		w.children(n, st, true)
		w.layout.endBlock()
		return
	case "ul", "ol", "blockquote":
		w.layout.endBlock()
		w.layout.indent += flowIndentStep
		w.children(n, st, pre)
		w.layout.endBlock()
		w.layout.indent -= flowIndentStep
		return
	case "tr":
		w.children(n, st, pre)
		w.layout.breakLine()
		return
	case "td", "th":
		if hasPrevElement(n) {
			w.layout.addSpan(Span{Text: " | ", Size: st.size, Font: st.font})
		}
		w.children(n, st, pre)
		return
	}

	if isBlockElement(n.Data) {
		w.layout.endBlock()
		w.children(n, st, pre)
		w.layout.endBlock()
		return
	}
	w.children(n, st, pre)
}

func (w *htmlWalker) children(n *html.Node, st inlineStyle, pre bool) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c, st, pre)
	}
}

// image decodes inline data: URIs. Remote sources yield a block without
// bytes, which the reconstructor drops.
func (w *htmlWalker) image(n *html.Node) {
	var data []byte
	var width, height float64
	for _, a := range n.Attr {
		switch a.Key {
		case "src":
			data = decodeDataURI(a.Val)
		case "width":
			width, _ = strconv.ParseFloat(a.Val, 64)
		case "height":
			height, _ = strconv.ParseFloat(a.Val, 64)
		}
	}
	w.layout.addImage(data, width, height)
}

func decodeDataURI(src string) []byte {
	rest, ok := strings.CutPrefix(src, "data:")
	if !ok {
		return nil
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasSuffix(meta, ";base64") {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return data
}

func hasPrevElement(n *html.Node) bool {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return true
		}
	}
	return false
}

func isBlockElement(tag string) bool {
	switch tag {
	case "p", "div", "li", "section", "article", "main", "aside", "header", "footer",
		"nav", "table", "dl", "dt", "dd", "figure", "figcaption", "address", "form":
		return true
	}
	return false
}

func collapseSpace(s string) string {
	var sb strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !space {
				sb.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		sb.WriteRune(r)
	}
	return sb.String()
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
