package models

import "time"

// DashboardStats summarizes link health for the account.
type DashboardStats struct {
	TotalLinks    int        `json:"totalLinks"`
	ActiveLinks   int        `json:"activeLinks"`
	BrokenLinks   int        `json:"brokenLinks"`
	WarningLinks  int        `json:"warningLinks"`
	EstimatedLoss float64    `json:"estimatedLoss"`
	HealthScore   int        `json:"healthScore"`
	LastCheck     *time.Time `json:"lastCheck,omitempty"`
}

// StatusPoint is a link's status at a point in time.
type StatusPoint struct {
	Time   time.Time  `json:"time"`
	Status LinkStatus `json:"status"`
}

// LinkStats holds per-link performance.
type LinkStats struct {
	LinkID  string        `json:"linkId"`
	Clicks  int           `json:"clicks"`
	Revenue float64       `json:"revenue"`
	History []StatusPoint `json:"history"`
}

// RevenueImpact estimates revenue lost to broken links over a period.
type RevenueImpact struct {
	Period           string  `json:"period"`
	EstimatedLoss    float64 `json:"estimatedLoss"`
	RecoveredRevenue float64 `json:"recoveredRevenue"`
	AffectedLinks    int     `json:"affectedLinks"`
}

// DailyCount is a count for a single day (YYYY-MM-DD).
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// BrokenLinksHistory is the daily broken link count over the last Days days.
type BrokenLinksHistory struct {
	Days   int          `json:"days"`
	Points []DailyCount `json:"points"`
}

// Suggestion is a replacement proposed for a broken link.
type Suggestion struct {
	ID         string  `json:"id"`
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Confidence float64 `json:"confidence"`
}
