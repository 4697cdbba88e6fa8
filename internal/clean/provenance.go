package clean

import (
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/KaramelBytes/happipe-cli/internal/utils"
)

// Provenance ties the cleaned outputs back to the exact raw inputs.
type Provenance struct {
	RunID         string           `json:"run_id"`
	Timestamp     time.Time        `json:"timestamp"`
	Datasets      ProvenanceInputs `json:"datasets"`
	Tool          ToolInfo         `json:"tool"`
	CountryTable  CountryTableInfo `json:"country_table"`
	TargetYear    int              `json:"target_year"`
	CleaningSteps []string         `json:"cleaning_steps"`
}

// ProvenanceInputs describes both raw inputs.
type ProvenanceInputs struct {
	Happiness  DatasetInfo `json:"happiness"`
	Indicators DatasetInfo `json:"indicators"`
}

// DatasetInfo records one raw input and the file cleaned from it.
type DatasetInfo struct {
	SourcePath  string `json:"source_path"`
	SourceURL   string `json:"source_url,omitempty"`
	Description string `json:"description"`
	FileHash    string `json:"file_hash"`
	SizeBytes   int64  `json:"size_bytes"`
	RowsIn      int    `json:"rows_in"`
	RowsOut     int    `json:"rows_out"`
	OutputPath  string `json:"output_path"`
}

// ToolInfo names the program that produced the outputs.
type ToolInfo struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

// CountryTableInfo identifies the country mapping that was applied.
type CountryTableInfo struct {
	Version string `json:"version"`
	Source  string `json:"source"`
	Entries int    `json:"entries"`
}

// NewDatasetInfo hashes the raw file at path.
func NewDatasetInfo(path, url, description string) (DatasetInfo, error) {
	sum, err := utils.FileSHA256(path)
	if err != nil {
		return DatasetInfo{}, fmt.Errorf("hash %s: %w", path, err)
	}
	size, _ := utils.FileSize(path)
	return DatasetInfo{SourcePath: path, SourceURL: url, Description: description, FileHash: sum, SizeBytes: size}, nil
}

// NewToolInfo describes this binary.
func NewToolInfo(version string) ToolInfo {
	return ToolInfo{Name: "happipe", Version: version, GoVersion: runtime.Version()}
}

// Steps lists the cleaning operations in the order they are applied.
func Steps(targetYear int, tableVersion string) []string {
	return []string{
		"Renamed columns for clarity and consistency",
		fmt.Sprintf("Filtered indicator data to year %d", targetYear),
		fmt.Sprintf("Standardized country names for consistent merging (country table %s)", tableVersion),
		"Normalized missing-value markers to empty cells",
		"Removed rows with missing happiness scores",
		"Documented all missing value patterns",
	}
}

// Write stores the provenance document as indented JSON.
func (p *Provenance) Write(path string) error {
	return utils.WriteJSON(path, p)
}

// LoadProvenance reads a document written by Write.
func LoadProvenance(path string) (*Provenance, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provenance: %w", err)
	}
	var p Provenance
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("parse provenance %s: %w", path, err)
	}
	return &p, nil
}
