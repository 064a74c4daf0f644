package reconstruct

import (
	"reflect"
	"testing"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/parser"
)

func TestInferOutline_ChapterOne(t *testing.T) {
	var lines []SizedLine
	lines = append(lines, SizedLine{Text: "Chapter One", Size: 24, Page: 1})
	for range 10 {
		lines = append(lines, SizedLine{Text: "Body text that runs along the line.", Size: 12, Page: 1})
	}
	lines = append(lines, SizedLine{Text: "Chapter One", Size: 24, Page: 3})

	got := InferOutline(lines)
	want := []docmodel.OutlineEntry{
		{Level: 1, Title: "Chapter One", Page: 1},
		{Level: 1, Title: "Chapter One", Page: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInferOutline_TopThreeLevels(t *testing.T) {
	lines := []SizedLine{
		{Text: "Part", Size: 30, Page: 1},
		{Text: "Chapter", Size: 24, Page: 1},
		{Text: "Section", Size: 18, Page: 2},
		{Text: "Sub", Size: 14, Page: 2},
		{Text: "Barely bigger", Size: 13, Page: 2},
		{Text: "a long run of ordinary body text dominating the histogram", Size: 12, Page: 2},
	}
	got := InferOutline(lines)
	want := []docmodel.OutlineEntry{
		{Level: 1, Title: "Part", Page: 1},
		{Level: 2, Title: "Chapter", Page: 1},
		{Level: 3, Title: "Section", Page: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestInferOutline_ThresholdIsStrict(t *testing.T) {
	// 11 is not above 10 * 1.1.
	lines := []SizedLine{
		{Text: "almost heading", Size: 11, Page: 1},
		{Text: "body body body body body body body", Size: 10, Page: 1},
	}
	if got := InferOutline(lines); got != nil {
		t.Errorf("expected no outline, got %v", got)
	}
}

func TestInferOutline_WeightsByCharacters(t *testing.T) {
	// Many short big lines lose to one long small line.
	lines := []SizedLine{
		{Text: "A", Size: 20, Page: 1},
		{Text: "B", Size: 20, Page: 1},
		{Text: "C", Size: 20, Page: 1},
		{Text: "one long paragraph of body copy", Size: 10, Page: 1},
	}
	got := InferOutline(lines)
	if len(got) != 3 || got[0].Title != "A" || got[0].Level != 1 {
		t.Errorf("expected the 20pt lines as level 1, got %v", got)
	}
}

func TestInferOutline_TieKeepsFirstSeenSize(t *testing.T) {
	lines := []SizedLine{
		{Text: "abcd", Size: 20, Page: 1},
		{Text: "wxyz", Size: 10, Page: 1},
	}
	// Equal weights: 20 is body, nothing is larger.
	if got := InferOutline(lines); got != nil {
		t.Errorf("expected no outline, got %v", got)
	}
}

func TestInferOutline_EmptyAndDeterministic(t *testing.T) {
	if got := InferOutline(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	lines := []SizedLine{
		{Text: "Title", Size: 18, Page: 1},
		{Text: "text text text text", Size: 11, Page: 1},
		{Text: "Other", Size: 16, Page: 2},
	}
	a, b := InferOutline(lines), InferOutline(lines)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("expected identical output, got %v and %v", a, b)
	}
}

func TestRoundHalf(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{12, 12},
		{12.2, 12},
		{12.3, 12.5},
		{11.96, 12},
		{12.25, 12}, // 24.5 rounds to even 24
		{12.75, 13}, // 25.5 rounds to even 26
	}
	for _, tt := range tests {
		if got := RoundHalf(tt.in); got != tt.want {
			t.Errorf("RoundHalf(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestPageLines(t *testing.T) {
	page := &parser.Page{Number: 4, Blocks: []parser.Block{
		{Type: parser.BlockImage, Image: []byte{1}},
		{Type: parser.BlockText, Lines: []parser.Line{
			{Spans: []parser.Span{{Text: "Big", Size: 23.9}, {Text: "Title", Size: 10}}},
			{Spans: []parser.Span{{Text: "  ", Size: 30}}},
			{},
		}},
	}}
	got := PageLines(page)
	if len(got) != 1 {
		t.Fatalf("expected 1 line, got %v", got)
	}
	if got[0].Text != "Big Title" || got[0].Size != 24 || got[0].Page != 5 {
		t.Errorf("unexpected line %+v", got[0])
	}
}
