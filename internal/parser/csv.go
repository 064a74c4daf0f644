package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVParser handles CSV files. Rows are grouped into blocks of 20, one line
// per row, with the header repeated in bold at the top of each block.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (Source, error) {
	data, err := readUTF8(r)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(bytes.NewReader(data))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	layout := newFlowLayout()
	if len(records) > 0 {
		headers := strings.Join(records[0], ", ")
		const batchSize = 20
		rows := records[1:]
		for i := 0; i < len(rows); i += batchSize {
			end := min(i+batchSize, len(rows))
			layout.addSpan(Span{Text: headers, Flags: FlagBold})
			layout.breakLine()
			for _, row := range rows[i:end] {
				layout.addSpan(Span{Text: strings.Join(row, ", ")})
				layout.breakLine()
			}
			layout.endBlock()
		}
		if len(rows) == 0 {
			layout.addSpan(Span{Text: headers, Flags: FlagBold})
			layout.endBlock()
		}
	}

	return &MemorySource{Pages: layout.finish(), DocTitle: baseTitle(filename)}, nil
}
