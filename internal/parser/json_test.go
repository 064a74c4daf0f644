package parser

import (
	"bytes"
	"strings"
	"testing"
)

const interchangeDoc = `{
  "pages": [{
    "width": 612, "height": 792,
    "blocks": [
      {"type": 0, "bbox": [72, 72, 300, 100], "lines": [
        {"bbox": [72, 72, 300, 100], "spans": [
          {"text": "Chapter One", "size": 24, "font": "ABCDEF+Times-Bold", "color": 16711680, "flags": 16},
          {"text": " tail", "size": 12, "font": "Times", "color": "red", "flags": 0},
          {"text": "x", "size": 12, "font": "Times", "color": null, "flags": 2},
          {"text": "y", "size": 12, "font": "Times", "color": 1.5, "flags": 0}
        ]}
      ]},
      {"type": 1, "bbox": [0, 0, 10, 10], "image": "aGVsbG8="}
    ]
  }],
  "toc": [[1, "Chapter One", 1]]
}`

func TestJSONParser_Interchange(t *testing.T) {
	p := &JSONParser{}
	src, err := p.Parse(strings.NewReader(interchangeDoc), "layout.json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.Title() != "layout" {
		t.Errorf("expected title %q, got %q", "layout", src.Title())
	}
	toc := src.Outline()
	if len(toc) != 1 || toc[0].Title != "Chapter One" || toc[0].Page != 1 {
		t.Errorf("unexpected toc %v", toc)
	}

	page := firstPage(t, src)
	if page.Width != 612 || page.Height != 792 {
		t.Errorf("unexpected page size %vx%v", page.Width, page.Height)
	}
	if len(page.Blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(page.Blocks))
	}

	spans := page.Blocks[0].Lines[0].Spans
	if spans[0].Color == nil || *spans[0].Color != 0xff0000 {
		t.Errorf("expected integer color 0xff0000, got %v", spans[0].Color)
	}
	for i := 1; i < 4; i++ {
		if spans[i].Color != nil {
			t.Errorf("span %d: expected absent color, got %d", i, *spans[i].Color)
		}
	}
	if spans[0].Font != "ABCDEF+Times-Bold" {
		t.Errorf("expected raw font name preserved, got %q", spans[0].Font)
	}

	img := page.Blocks[1]
	if img.Type != BlockImage || !bytes.Equal(img.Image, []byte("hello")) {
		t.Errorf("unexpected image block %+v", img)
	}
}

func TestJSONParser_Malformed(t *testing.T) {
	p := &JSONParser{}
	if _, err := p.Parse(strings.NewReader(`{"pages": [`), "bad.json"); err == nil {
		t.Error("expected error for truncated json")
	}
}
