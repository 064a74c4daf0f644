// Package reconstruct turns a page-structured source into the flat document
// model: ordered text and image blocks with byte-offset words and style
// runs, plus an outline inferred from font sizes when the source has none.
package reconstruct

import (
	"fmt"
	"strings"

	"github.com/dgallion1/pdfread/internal/parser"
)

const defaultColor = "#000000"

// Style is the normalized appearance shared by a span's style run and words.
type Style struct {
	Size     float64
	Font     string
	Color    string
	IsBold   bool
	IsItalic bool
}

// NormalizedSpan is a span after cleaning.
type NormalizedSpan struct {
	Text string
	Style
}

// NormalizeSpan strips NUL bytes and the font subset tag, and derives bold,
// italic and color. ok is false when nothing remains of the text.
func NormalizeSpan(sp parser.Span) (ns NormalizedSpan, ok bool) {
	text := strings.ReplaceAll(sp.Text, "\x00", "")
	if text == "" {
		return NormalizedSpan{}, false
	}
	font := StripSubset(sp.Font)
	return NormalizedSpan{
		Text: text,
		Style: Style{
			Size:     sp.Size,
			Font:     font,
			Color:    FormatColor(sp.Color),
			IsBold:   strings.Contains(font, "Bold") || sp.Flags&parser.FlagBold != 0,
			IsItalic: strings.Contains(font, "Italic") || sp.Flags&parser.FlagItalic != 0,
		},
	}, true
}

// StripSubset removes a "ABCDEF+" subset prefix from a font name. A name
// with nothing after the first '+' is returned unchanged.
func StripSubset(font string) string {
	if _, rest, found := strings.Cut(font, "+"); found && rest != "" {
		return rest
	}
	return font
}

// FormatColor renders an sRGB integer as "#rrggbb". Absent and negative
// values give black; bits above 24 are ignored.
func FormatColor(c *int) string {
	if c == nil || *c < 0 {
		return defaultColor
	}
	return fmt.Sprintf("#%06x", *c&0xffffff)
}
