package services

import (
	"context"
	"net/url"
	"strconv"

	"github.com/desertthunder/linkguard/internal/models"
)

func (c *Client) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	var out models.DashboardStats
	if err := c.get(ctx, "/analytics/dashboard", "Failed to load dashboard", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) LinkStats(ctx context.Context, id string) (*models.LinkStats, error) {
	var out models.LinkStats
	if err := c.get(ctx, "/analytics/links/"+url.PathEscape(id), "Failed to load link analytics", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RevenueImpact estimates lost revenue for period (e.g. "7d", "30d").
func (c *Client) RevenueImpact(ctx context.Context, period string) (*models.RevenueImpact, error) {
	var out models.RevenueImpact
	path := "/analytics/revenue-impact?period=" + url.QueryEscape(period)
	if err := c.get(ctx, path, "Failed to load revenue impact", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BrokenLinksHistory(ctx context.Context, days int) (*models.BrokenLinksHistory, error) {
	var out models.BrokenLinksHistory
	path := "/analytics/broken-links?days=" + strconv.Itoa(days)
	if err := c.get(ctx, path, "Failed to load broken link history", &out); err != nil {
		return nil, err
	}
	if out.Days == 0 {
		out.Days = days
	}
	return &out, nil
}
