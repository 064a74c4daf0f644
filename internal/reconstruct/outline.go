package reconstruct

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/pdfread/internal/docmodel"
	"github.com/dgallion1/pdfread/internal/parser"
)

const (
	// headingRatio is how much larger than body text a heading must be.
	headingRatio = 1.1
	// maxHeadingLevels caps how many distinct sizes become outline levels.
	maxHeadingLevels = 3
)

// SizedLine is one source line as seen by outline inference.
type SizedLine struct {
	Text string
	// Size is the largest span size on the line, rounded to 0.5.
	Size float64
	// Page is 1-based.
	Page int
}

// RoundHalf rounds to the nearest 0.5, ties to even.
func RoundHalf(x float64) float64 {
	return math.RoundToEven(x*2) / 2
}

// PageLines extracts the sized lines of every text block on the page,
// including blocks that reconstruction later drops.
func PageLines(page *parser.Page) []SizedLine {
	var out []SizedLine
	for _, b := range page.Blocks {
		if b.Type != parser.BlockText {
			continue
		}
		for _, l := range b.Lines {
			if len(l.Spans) == 0 {
				continue
			}
			var size float64
			texts := make([]string, len(l.Spans))
			for i, sp := range l.Spans {
				size = max(size, sp.Size)
				texts[i] = strings.ReplaceAll(sp.Text, "\x00", "")
			}
			text := strings.TrimSpace(strings.Join(texts, " "))
			if text == "" {
				continue
			}
			out = append(out, SizedLine{Text: text, Size: RoundHalf(size), Page: page.Number + 1})
		}
	}
	return out
}

// InferOutline derives headings from a character-weighted font size
// histogram. The most frequent size is body text; the three largest sizes
// above 1.1x body become levels 1-3. Entries keep document order.
func InferOutline(lines []SizedLine) []docmodel.OutlineEntry {
	weights := make(map[float64]int)
	var sizes []float64 // first-seen order breaks weight ties
	for _, l := range lines {
		if _, seen := weights[l.Size]; !seen {
			sizes = append(sizes, l.Size)
		}
		weights[l.Size] += utf8.RuneCountInString(l.Text)
	}
	if len(sizes) == 0 {
		return nil
	}

	body := sizes[0]
	for _, s := range sizes[1:] {
		if weights[s] > weights[body] {
			body = s
		}
	}

	var candidates []float64
	for _, s := range sizes {
		if s > body*headingRatio {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(candidates)))
	if len(candidates) > maxHeadingLevels {
		candidates = candidates[:maxHeadingLevels]
	}
	levels := make(map[float64]int, len(candidates))
	for i, s := range candidates {
		levels[s] = i + 1
	}

	var toc []docmodel.OutlineEntry
	for _, l := range lines {
		if lvl, ok := levels[l.Size]; ok {
			toc = append(toc, docmodel.OutlineEntry{Level: lvl, Title: l.Text, Page: l.Page})
		}
	}
	return toc
}
