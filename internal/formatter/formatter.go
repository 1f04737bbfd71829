// package formatter renders links, alerts and upload results as CSV, JSON, Markdown or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
)

// Supported export formats.
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists every supported export format.
var Formats = []string{FormatCSV, FormatJSON, FormatMarkdown, FormatText}

// csvHeaders keeps url, title and page first so an export can be fed back into a bulk upload.
var csvHeaders = []string{"url", "title", "page", "id", "status", "clicks", "revenue", "last_checked"}

// LinksToCSV converts links to CSV with columns: url, title, page, id, status, clicks, revenue, last_checked
func LinksToCSV(links []models.Link) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, l := range links {
		record := []string{
			l.URL,
			l.Title,
			l.Page,
			l.ID,
			string(l.Status),
			strconv.Itoa(l.Clicks),
			strconv.FormatFloat(l.Revenue, 'f', 2, 64),
			FormatTime(l.LastChecked),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// LinksToMarkdown renders links as a Markdown table grouped under a status summary.
func LinksToMarkdown(links []models.Link) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Links\n\n")
	counts := CountByStatus(links)
	for _, st := range models.LinkStatuses {
		buf.WriteString(fmt.Sprintf("- **%s**: %d\n", StatusLabel(st), counts[st]))
	}
	buf.WriteString("\n")

	buf.WriteString("| Title | URL | Page | Status | Clicks | Revenue |\n")
	buf.WriteString("|---|---|---|---|---|---|\n")
	for _, l := range links {
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %d | %s |\n",
			escapeCell(l.Title), escapeCell(l.URL), escapeCell(l.Page), StatusLabel(l.Status), l.Clicks, FormatMoney(l.Revenue)))
	}

	return buf.Bytes(), nil
}

// LinksToText renders links one per line.
func LinksToText(links []models.Link) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Links: %d\n\n", len(links)))
	for i, l := range links {
		buf.WriteString(fmt.Sprintf("%d. [%s] %s - %s\n", i+1, l.Status, l.Title, l.URL))
	}

	return buf.Bytes(), nil
}

// ExportLinks renders links in format.
func ExportLinks(links []models.Link, format string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return LinksToCSV(links)
	case FormatJSON:
		return shared.MarshalJSON(links, true)
	case FormatMarkdown, "md":
		return LinksToMarkdown(links)
	case FormatText, "text":
		return LinksToText(links)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// WriteLinksExport writes links in format to path.
//
// Defaults to links_export.{ext} as the filename.
func WriteLinksExport(links []models.Link, format, path string) (string, error) {
	data, err := ExportLinks(links, format)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = "links_export." + Extension(format)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// Extension returns the file extension for format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown, "md":
		return "md"
	case FormatText, "text":
		return "txt"
	default:
		return format
	}
}

// UploadReport summarizes a bulk upload, listing each failed row verbatim.
func UploadReport(res *models.BulkUploadResult) string {
	if res == nil {
		return "No upload results.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d rows: %d imported, %d failed\n", res.Total(), res.Success, res.Failed)
	if res.Partial() {
		b.WriteString("Some rows were rejected. Fix them and upload only those rows again.\n")
	}
	for _, f := range res.Details.Failed {
		fmt.Fprintf(&b, "  Row %d: %s\n", f.Row, f.Error)
	}
	return b.String()
}

// CountByStatus tallies links by status, with every status present.
func CountByStatus(links []models.Link) map[models.LinkStatus]int {
	counts := make(map[models.LinkStatus]int, len(models.LinkStatuses))
	for _, st := range models.LinkStatuses {
		counts[st] = 0
	}
	for _, l := range links {
		counts[l.Status]++
	}
	return counts
}

// StatusLabel is the display label for a status.
func StatusLabel(s models.LinkStatus) string {
	switch s {
	case models.LinkActive:
		return "Active"
	case models.LinkWarning:
		return "Warning"
	case models.LinkBroken:
		return "Broken"
	default:
		return string(s)
	}
}

// FormatMoney renders an amount in dollars with two decimals.
func FormatMoney(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatTime renders t in RFC 3339, or "" when t is nil.
func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// FormatAgo renders how long ago t was, coarsely.
func FormatAgo(t time.Time, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
