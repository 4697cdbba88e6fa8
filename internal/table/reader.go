package table

import (
	"errors"
	"strings"
)

// Reader loads a table from a file on disk.
type Reader interface {
	CanRead(filename string) bool
	Read(path string) (*Table, error)
}

var registry []Reader

// Register adds a reader implementation to the registry.
func Register(r Reader) {
	registry = append(registry, r)
}

// Read selects a reader by filename; unknown extensions are read as CSV.
func Read(path string) (*Table, error) {
	for _, r := range registry {
		if r.CanRead(path) {
			return r.Read(path)
		}
	}
	return ReadCSV(path, ',')
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported table format")

type csvReader struct{}

func (csvReader) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvReader) Read(path string) (*Table, error) { return ReadCSV(path, 0) }

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxReader) Read(path string) (*Table, error) { return ReadXLSX(path, "", 1) }

type legacyExcelReader struct{}

func (legacyExcelReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xls")
}

func (legacyExcelReader) Read(path string) (*Table, error) {
	return nil, errors.Join(ErrUnsupported, errors.New(path+": legacy .xls workbooks must be saved as .xlsx or .csv"))
}

func init() {
	Register(csvReader{})
	Register(xlsxReader{})
	Register(legacyExcelReader{})
}
