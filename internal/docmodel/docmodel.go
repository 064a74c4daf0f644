// Package docmodel holds the flat, queryable document model produced by
// reconstruction: documents, their ordered text/image blocks, and the word
// and style-run views indexed into each block's text.
package docmodel

import (
	"encoding/json"
	"fmt"
	"time"
)

// BlockKind distinguishes text blocks from raster image blocks.
type BlockKind string

const (
	KindText  BlockKind = "text"
	KindImage BlockKind = "image"
)

// OutlineSource records where a document's outline came from.
type OutlineSource string

const (
	OutlineNone     OutlineSource = ""
	OutlineNative   OutlineSource = "native"
	OutlineInferred OutlineSource = "inferred"
)

// BBox is an [x0, y0, x1, y1] rectangle with a top-left origin.
type BBox [4]float64

func (b BBox) X0() float64 { return b[0] }
func (b BBox) Y0() float64 { return b[1] }
func (b BBox) X1() float64 { return b[2] }
func (b BBox) Y1() float64 { return b[3] }

// Union returns the smallest box covering both b and o. A zero box is
// treated as empty.
func (b BBox) Union(o BBox) BBox {
	if b == (BBox{}) {
		return o
	}
	if o == (BBox{}) {
		return b
	}
	return BBox{min(b[0], o[0]), min(b[1], o[1]), max(b[2], o[2]), max(b[3], o[3])}
}

// Document is one ingested source file and its reconstruction results.
type Document struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id,omitempty"`
	Title         string         `json:"title"`
	Filename      string         `json:"filename"`
	PageCount     int            `json:"total_pages"`
	Theme         string         `json:"theme"`
	ContentHash   string         `json:"content_hash,omitempty"`
	Outline       []OutlineEntry `json:"toc"`
	OutlineSource OutlineSource  `json:"toc_source,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`

	// Data is the raw source file; storage owns it.
	Data []byte `json:"-"`
	// Blocks is populated by the assembler and consumed by storage.
	Blocks []Block `json:"blocks,omitempty"`
}

// Block is one text or image region on a page.
type Block struct {
	ID         string     `json:"id"`
	DocID      string     `json:"doc_id"`
	PageNumber int        `json:"page_number"`
	BlockOrder int        `json:"block_order"`
	Kind       BlockKind  `json:"block_type"`
	Text       string     `json:"text,omitempty"`
	Words      []Word     `json:"words_meta"`
	StyleRuns  []StyleRun `json:"style_runs"`
	Position   BBox       `json:"position_meta"`
	ImagePath  string     `json:"image_path,omitempty"`

	Image []byte `json:"-"`
}

// Word is a whitespace-delimited token located in its block's Text.
// Start and End are byte offsets.
type Word struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	FontSize   float64 `json:"fontSize"`
	FontFamily string  `json:"fontFamily"`
	IsBold     bool    `json:"isBold"`
	IsItalic   bool    `json:"isItalic"`
	Color      string  `json:"color"`
	IsNewline  bool    `json:"isNewline"`
	X          float64 `json:"x"`
}

// StyleRun is a byte range of a block's Text sharing one style.
type StyleRun struct {
	Start    int     `json:"start"`
	End      int     `json:"end"`
	FontSize float64 `json:"fontSize"`
	Font     string  `json:"font"`
	Color    string  `json:"color"`
	IsBold   bool    `json:"isBold"`
	IsItalic bool    `json:"isItalic"`
}

// OutlineEntry is one table-of-contents heading. Page is 1-based.
// It encodes as the [level, title, page] triple.
type OutlineEntry struct {
	Level int
	Title string
	Page  int
}

func (e OutlineEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Level, e.Title, e.Page})
}

func (e *OutlineEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("outline entry: %w", err)
	}
	if len(raw) < 3 {
		return fmt.Errorf("outline entry: expected 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Level); err != nil {
		return fmt.Errorf("outline entry level: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Title); err != nil {
		return fmt.Errorf("outline entry title: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Page); err != nil {
		return fmt.Errorf("outline entry page: %w", err)
	}
	return nil
}

// Annotation is a user highlight spanning a word range of one block.
type Annotation struct {
	ID             string    `json:"id"`
	DocID          string    `json:"doc_id"`
	BlockID        string    `json:"block_id"`
	StartWordIndex int       `json:"start_word_index"`
	EndWordIndex   int       `json:"end_word_index"`
	Type           string    `json:"annotation_type"`
	Color          string    `json:"color"`
	FontSize       string    `json:"font_size,omitempty"`
	FontStyle      string    `json:"font_style,omitempty"`
	Note           string    `json:"note,omitempty"`
	UserID         string    `json:"user_id"`
	IsShared       bool      `json:"is_shared"`
	CreatedAt      time.Time `json:"created_at"`
}
