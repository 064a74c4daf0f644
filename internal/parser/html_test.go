package parser

import (
	"bytes"
	"strings"
	"testing"
)

func TestHTMLParser_BlocksStylesAndImages(t *testing.T) {
	input := `<html><head><title>Guide</title></head><body>` +
		`<h1>Intro</h1>` +
		`<p>Hello <b>bold</b> and <em>soft</em> world</p>` +
		`<img src="data:image/png;base64,aGVsbG8=" width="10" height="20">` +
		`<script>ignored()</script>` +
		`</body></html>`

	p := &HTMLParser{}
	src, err := p.Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Title() != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", src.Title())
	}
	toc := src.Outline()
	if len(toc) != 1 || toc[0].Title != "Intro" || toc[0].Level != 1 {
		t.Errorf("unexpected outline %v", toc)
	}

	page := firstPage(t, src)
	if len(page.Blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(page.Blocks))
	}
	if got := blockText(page.Blocks[0]); got != "Intro" {
		t.Errorf("expected heading %q, got %q", "Intro", got)
	}
	if got := blockText(page.Blocks[1]); got != "Hello bold and soft world" {
		t.Errorf("unexpected paragraph text %q", got)
	}
	for _, sp := range page.Blocks[1].Lines[0].Spans {
		if sp.Text == "bold" && sp.Flags&FlagBold == 0 {
			t.Error("expected bold span")
		}
		if sp.Text == "soft" && sp.Flags&FlagItalic == 0 {
			t.Error("expected italic span")
		}
	}
	img := page.Blocks[2]
	if img.Type != BlockImage {
		t.Fatalf("expected image block, got type %d", img.Type)
	}
	if !bytes.Equal(img.Image, []byte("hello")) {
		t.Errorf("expected decoded image bytes, got %q", img.Image)
	}
	if img.BBox.X1()-img.BBox.X0() != 10 || img.BBox.Y1()-img.BBox.Y0() != 20 {
		t.Errorf("unexpected image bbox %v", img.BBox)
	}
}

func TestHTMLParser_RemoteImageHasNoBytes(t *testing.T) {
	p := &HTMLParser{}
	src, err := p.Parse(strings.NewReader(`<p>x</p><img src="https://example.com/a.png">`), "remote.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := firstPage(t, src)
	last := page.Blocks[len(page.Blocks)-1]
	if last.Type != BlockImage || last.Image != nil {
		t.Errorf("expected byte-less image block, got %+v", last)
	}
}

func TestHTMLParser_TitleFallsBackToFilename(t *testing.T) {
	p := &HTMLParser{}
	src, err := p.Parse(strings.NewReader(`<p>body only</p>`), "page.htm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Title() != "page" {
		t.Errorf("expected title %q, got %q", "page", src.Title())
	}
}

func TestHTMLParser_PreKeepsLines(t *testing.T) {
	p := &HTMLParser{}
	src, err := p.Parse(strings.NewReader("<pre>a  b\nc</pre>"), "pre.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := firstPage(t, src).Blocks[0]
	if got := blockText(b); got != "a  b\nc" {
		t.Errorf("expected preformatted text preserved, got %q", got)
	}
	if b.Lines[0].Spans[0].Font != monoFont {
		t.Errorf("expected monospace, got %q", b.Lines[0].Spans[0].Font)
	}
}

func TestHTMLParser_Charset(t *testing.T) {
	input := "<html><head><meta charset=\"windows-1252\"></head><body><p>caf\xe9</p></body></html>"
	p := &HTMLParser{}
	src, err := p.Parse(strings.NewReader(input), "latin.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := blockText(firstPage(t, src).Blocks[0]); got != "café" {
		t.Errorf("expected %q, got %q", "café", got)
	}
}

func TestHTMLParser_TableRows(t *testing.T) {
	p := &HTMLParser{}
	src, err := p.Parse(strings.NewReader("<table><tr><td>a</td><td>b</td></tr><tr><td>c</td><td>d</td></tr></table>"), "t.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := blockText(firstPage(t, src).Blocks[0]); got != "a | b\nc | d" {
		t.Errorf("unexpected table text %q", got)
	}
}
