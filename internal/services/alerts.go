package services

import (
	"context"
	"net/url"

	"github.com/desertthunder/linkguard/internal/models"
)

func (c *Client) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	var out []models.Alert
	if err := c.get(ctx, "/alerts", "Failed to load alerts", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarkAlertRead(ctx context.Context, id string) error {
	return c.put(ctx, "/alerts/"+url.PathEscape(id)+"/read", nil, "Failed to mark alert as read", nil)
}

// MarkAllAlertsRead marks every alert read. The backend reports a single outcome for the whole batch.
func (c *Client) MarkAllAlertsRead(ctx context.Context) error {
	return c.put(ctx, "/alerts/read-all", nil, "Failed to mark alerts as read", nil)
}

func (c *Client) DeleteAlert(ctx context.Context, id string) error {
	return c.delete(ctx, "/alerts/"+url.PathEscape(id), "Failed to delete alert")
}

func (c *Client) AlertSettings(ctx context.Context) (*models.AlertSettings, error) {
	var out models.AlertSettings
	if err := c.get(ctx, "/alerts/settings", "Failed to load settings", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAlertSettings sends the complete settings object. An empty response body echoes s.
func (c *Client) UpdateAlertSettings(ctx context.Context, s models.AlertSettings) (*models.AlertSettings, error) {
	out := s
	if err := c.put(ctx, "/alerts/settings", s, "Failed to save settings", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
