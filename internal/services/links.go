package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/desertthunder/linkguard/internal/models"
)

// Export formats accepted by GET /links/export.
const (
	ExportCSV  = "csv"
	ExportJSON = "json"
)

// ListLinks fetches every link on the account.
func (c *Client) ListLinks(ctx context.Context) ([]models.Link, error) {
	var out []models.Link
	if err := c.get(ctx, "/links", "Failed to load links", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetLink fetches a single link.
func (c *Client) GetLink(ctx context.Context, id string) (*models.Link, error) {
	var out models.Link
	if err := c.get(ctx, "/links/"+url.PathEscape(id), "Failed to load link", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateLink creates a link and returns the server's record.
func (c *Client) CreateLink(ctx context.Context, in models.LinkInput) (*models.Link, error) {
	var out models.Link
	if err := c.post(ctx, "/links", in, "Failed to add link", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateLink replaces a link's editable fields and returns the server's record.
func (c *Client) UpdateLink(ctx context.Context, id string, in models.LinkInput) (*models.Link, error) {
	var out models.Link
	if err := c.put(ctx, "/links/"+url.PathEscape(id), in, "Failed to update link", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteLink(ctx context.Context, id string) error {
	return c.delete(ctx, "/links/"+url.PathEscape(id), "Failed to delete link")
}

// CheckLink asks the backend to re-check one link. The result is observed by reloading.
func (c *Client) CheckLink(ctx context.Context, id string) error {
	return c.post(ctx, "/links/"+url.PathEscape(id)+"/check", nil, "Failed to check link", nil)
}

// CheckAllLinks asks the backend to re-check every link.
func (c *Client) CheckAllLinks(ctx context.Context) error {
	return c.post(ctx, "/links/check-all", nil, "Failed to check links", nil)
}

// BulkUpload posts a CSV payload as one multipart call.
func (c *Client) BulkUpload(ctx context.Context, fileName string, r io.Reader) (*models.BulkUploadResult, error) {
	var out models.BulkUploadResult
	if err := c.upload(ctx, "/links/bulk-upload", fileName, r, "Upload failed", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportLinks downloads the link collection in the given format (csv or json) as raw bytes.
func (c *Client) ExportLinks(ctx context.Context, format string) ([]byte, error) {
	switch format {
	case ExportCSV, ExportJSON:
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}

	req := c.request(ctx).SetQueryParam("format", format).SetHeader("Accept", "*/*")
	resp, err := c.send(req, http.MethodGet, "/links/export", "Export failed", nil)
	if err != nil {
		return nil, err
	}
	return resp.Body(), nil
}

// SuggestReplacement asks the backend for replacement candidates for a broken link.
func (c *Client) SuggestReplacement(ctx context.Context, linkID string) ([]models.Suggestion, error) {
	var out struct {
		Suggestions []models.Suggestion `json:"suggestions"`
	}
	if err := c.post(ctx, "/ai/suggest-replacement/"+url.PathEscape(linkID), nil, "Failed to get suggestions", &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// AutoFix applies a suggestion to a link and returns the updated link.
func (c *Client) AutoFix(ctx context.Context, linkID, suggestionID string) (*models.Link, error) {
	body := map[string]string{"suggestionId": suggestionID}
	var out models.Link
	if err := c.post(ctx, "/ai/auto-fix/"+url.PathEscape(linkID), body, "Failed to apply fix", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
