package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/KaramelBytes/happipe-cli/internal/table"
	"github.com/KaramelBytes/happipe-cli/internal/utils"
)

// Report is the profile of both cleaned datasets.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generation_timestamp"`
	Happiness   *Dataset  `json:"happiness_dataset"`
	Indicators  *Dataset  `json:"indicators_dataset"`
}

// Build profiles both tables independently.
func Build(runID string, now time.Time, happiness, indicators *table.Table, opt Options) *Report {
	return &Report{
		RunID:       runID,
		GeneratedAt: now.UTC(),
		Happiness:   Analyze(happiness, opt),
		Indicators:  Analyze(indicators, opt),
	}
}

// Write stores the report as indented JSON.
func (r *Report) Write(path string) error {
	if err := utils.WriteJSON(path, r); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// Load reads a report written by Write.
func Load(path string) (*Report, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var r Report
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return &r, nil
}

// Markdown renders both dataset profiles.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[PROFILE] run %s at %s\n\n", r.RunID, r.GeneratedAt.Format(time.RFC3339)))
	for _, d := range []*Dataset{r.Happiness, r.Indicators} {
		if d == nil {
			continue
		}
		b.WriteString(d.Markdown())
		b.WriteString("\n")
	}
	return b.String()
}
