package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/happipe-cli/internal/utils"
)

// ReadCSV loads a delimited file. A delim of 0 is inferred from the extension.
func ReadCSV(path string, delim rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return ParseCSV(f, filepath.Base(path), delim)
}

// ParseCSV reads a header plus records from r. Rows shorter than the header
// are padded; rows longer than the header are an error.
func ParseCSV(r io.Reader, name string, delim rune) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", name, ErrEmpty)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	t := New(name, header)
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", t.Len()+1, err)
		}
		if len(rec) > len(header) {
			return nil, fmt.Errorf("read row %d: %d fields, header has %d", t.Len()+1, len(rec), len(header))
		}
		t.Append(rec)
	}
	return t, nil
}

// EncodeCSV writes the header and rows as comma-separated records.
func (t *Table) EncodeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// WriteCSV writes the table to path atomically.
func (t *Table) WriteCSV(path string) error {
	var buf bytes.Buffer
	if err := t.EncodeCSV(&buf); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
