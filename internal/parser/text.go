package parser

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// TextParser handles plain text files. Form feeds separate pages and blank
// lines separate blocks.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (Source, error) {
	data, err := readUTF8(r)
	if err != nil {
		return nil, err
	}

	layout := newFlowLayout()
	for i, page := range strings.Split(string(data), "\f") {
		if i > 0 {
			layout.newPage()
		}
		scanner := bufio.NewScanner(strings.NewReader(page))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimRight(scanner.Text(), "\r")
			if strings.TrimSpace(line) == "" {
				layout.endBlock()
				continue
			}
			layout.addSpan(Span{Text: line, Size: bodySize, Font: monoFont})
			layout.breakLine()
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	return &MemorySource{Pages: layout.finish(), DocTitle: baseTitle(filename)}, nil
}

// readUTF8 reads r fully, decoding it as Windows-1252 when it is not valid
// UTF-8.
func readUTF8(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return data, nil
	}
	return charmap.Windows1252.NewDecoder().Bytes(data)
}
