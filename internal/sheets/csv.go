package sheets

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"remind/internal/reconciliation"
)

// DecodeCSV reads a comma or semicolon separated file. The delimiter is the
// one that occurs more often in the first line.
func DecodeCSV(r io.Reader) (reconciliation.Table, error) {
	const op = "DecodeCSV"

	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return reconciliation.Table{}, fmt.Errorf("%s: failed to read file: %w", op, err)
	}
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	if bytes.Count(first, []byte{';'}) > bytes.Count(first, []byte{','}) {
		reader.Comma = ';'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return reconciliation.Table{}, fmt.Errorf("%s: failed to parse CSV: %w", op, err)
	}

	h := headerIndex(records)
	if h < 0 {
		return reconciliation.Table{}, fmt.Errorf("%s: %w", op, reconciliation.ErrEmptySheet)
	}
	return buildTable(records[h], records[h+1:], nil), nil
}
