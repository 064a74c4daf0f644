package reconstruct

import "errors"

// Skip-and-continue conditions. They are logged and counted, never returned
// from Assemble.
var (
	// ErrMalformedSpan marks a word that could not be located in its span.
	ErrMalformedSpan = errors.New("word not found in span")
	// ErrEmptyBlock marks a text block with only whitespace after normalization.
	ErrEmptyBlock = errors.New("empty text block")
	// ErrMissingImage marks an image block without bytes.
	ErrMissingImage = errors.New("image block has no data")
)

// ErrSourceRead wraps any failure to read a page from the source. It aborts
// the whole document.
var ErrSourceRead = errors.New("source read failure")
