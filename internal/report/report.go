package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/clusterx/demo-api-check/internal/checks"
)

const maxDetailsWidth = 80

var (
	passColor = text.Colors{text.FgGreen}
	failColor = text.Colors{text.FgRed, text.Bold}
)

// WriteFile persists the summary as indented JSON, creating parent directories
func WriteFile(path string, summary *checks.TestRunSummary) error {
	if summary == nil {
		return fmt.Errorf("cannot write nil summary")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a summary previously written by WriteFile
func ReadFile(path string) (*checks.TestRunSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	var summary checks.TestRunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &summary, nil
}

// Output writes the summary to w in the given format (json or text)
func Output(w io.Writer, summary *checks.TestRunSummary, format string) error {
	switch strings.ToLower(format) {
	case "json":
		return outputJSON(w, summary)
	case "text":
		return outputText(w, summary)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func outputJSON(w io.Writer, summary *checks.TestRunSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

func outputText(w io.Writer, summary *checks.TestRunSummary) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Demo Call API Report")
	t.AppendHeader(table.Row{"#", "TEST", "STATUS", "DETAILS"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight},
		{Name: "DETAILS", WidthMax: maxDetailsWidth, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, res := range summary.Results {
		status := failColor.Sprint("✗ FAIL")
		if res.Success {
			status = passColor.Sprint("✓ PASS")
		}
		t.AppendRow(table.Row{i + 1, res.Name, status, res.Details})
	}

	overall := "PASS"
	if !summary.IsPassing() {
		overall = "FAIL"
	}
	if summary.Aborted {
		overall = "ABORTED"
	}
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d/%d passed", summary.PassedTests, summary.TotalTests),
		overall,
		fmt.Sprintf("success rate %.1f%%", summary.SuccessRate),
	})

	t.SetStyle(table.StyleLight)

	t.Render()
	return nil
}
