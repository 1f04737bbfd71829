package formatter

import (
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	th "github.com/desertthunder/linkguard/internal/testing"
)

func sampleLinks() []models.Link {
	checked := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Link{
		{ID: "a", URL: "https://amzn.to/a", Title: "Camera", Page: "Gear video", Status: models.LinkActive, Clicks: 120, Revenue: 42.5, LastChecked: &checked},
		{ID: "b", URL: "https://amzn.to/b", Title: "Tripod | Stand", Page: "Gear video", Status: models.LinkBroken, Clicks: 3},
	}
}

func TestExporters(t *testing.T) {
	t.Run("LinksToCSV", func(t *testing.T) {
		data, err := LinksToCSV(sampleLinks())
		if err != nil {
			t.Fatalf("LinksToCSV failed: %v", err)
		}

		records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
		if err != nil {
			t.Fatalf("output is not valid CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("expected 3 records, got %d", len(records))
		}
		if strings.Join(records[0][:3], ",") != "url,title,page" {
			t.Errorf("expected upload-compatible leading headers, got %v", records[0])
		}
		if records[1][6] != "42.50" {
			t.Errorf("expected revenue '42.50', got %s", records[1][6])
		}
		if records[1][7] != "2024-03-01T12:00:00Z" {
			t.Errorf("expected RFC 3339 last_checked, got %s", records[1][7])
		}
		if records[2][7] != "" {
			t.Errorf("expected empty last_checked, got %s", records[2][7])
		}
	})

	t.Run("LinksToMarkdown", func(t *testing.T) {
		data, err := LinksToMarkdown(sampleLinks())
		if err != nil {
			t.Fatalf("LinksToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{"# Links", "- **Active**: 1", "- **Warning**: 0", "- **Broken**: 1", `Tripod \| Stand`, "$42.50"} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("LinksToText", func(t *testing.T) {
		data, _ := LinksToText(sampleLinks())
		output := string(data)

		if !strings.Contains(output, "Links: 2") {
			t.Errorf("text missing count, got %s", output)
		}
		if !strings.Contains(output, "2. [broken] Tripod | Stand - https://amzn.to/b") {
			t.Errorf("text missing second link, got %s", output)
		}
	})

	t.Run("ExportLinks", func(t *testing.T) {
		for _, format := range append(Formats, "md", "text") {
			if _, err := ExportLinks(sampleLinks(), format); err != nil {
				t.Errorf("format %s failed: %v", format, err)
			}
		}

		_, err := ExportLinks(sampleLinks(), "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("WriteLinksExport", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "out.md")

		got, err := WriteLinksExport(sampleLinks(), FormatMarkdown, path)
		if err != nil {
			t.Fatalf("WriteLinksExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected path %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "| Camera |") {
			t.Error("expected written Markdown table")
		}

		if _, err := WriteLinksExport(sampleLinks(), FormatCSV, filepath.Join(dir, "missing", "out.csv")); err == nil {
			t.Error("expected error writing to missing directory")
		}
	})
}

func TestUploadReport(t *testing.T) {
	t.Run("Partial", func(t *testing.T) {
		report := UploadReport(&models.BulkUploadResult{
			Success: 2,
			Failed:  1,
			Details: models.BulkUploadDetails{Failed: []models.FailedRow{{Row: 0, Error: "invalid url"}}},
		})

		if !strings.HasPrefix(report, "Processed 3 rows: 2 imported, 1 failed") {
			t.Errorf("unexpected summary: %s", report)
		}
		if !strings.Contains(report, "Row 0: invalid url") {
			t.Errorf("expected failed row verbatim, got %s", report)
		}
		if !strings.Contains(report, "Some rows were rejected") {
			t.Errorf("expected partial notice, got %s", report)
		}
	})

	t.Run("Nil", func(t *testing.T) {
		if UploadReport(nil) != "No upload results.\n" {
			t.Errorf("unexpected report for nil result")
		}
	})
}

func TestHelpers(t *testing.T) {
	t.Run("FormatAgo", func(t *testing.T) {
		now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		tests := []struct {
			ago  time.Duration
			want string
		}{
			{10 * time.Second, "just now"},
			{5 * time.Minute, "5m ago"},
			{3 * time.Hour, "3h ago"},
			{50 * time.Hour, "2d ago"},
		}
		for _, tt := range tests {
			if got := FormatAgo(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		}
	})

	t.Run("Extension", func(t *testing.T) {
		if Extension(FormatMarkdown) != "md" || Extension(FormatText) != "txt" || Extension(FormatCSV) != "csv" {
			t.Error("unexpected extension mapping")
		}
	})

	t.Run("StatusLabel", func(t *testing.T) {
		if StatusLabel(models.LinkWarning) != "Warning" {
			t.Errorf("expected 'Warning', got %s", StatusLabel(models.LinkWarning))
		}
	})
}
