package tasks

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/desertthunder/linkguard/internal/models"
)

// AnalyticsClient is the analytics surface used by [Overview]. Implemented by services.Client.
type AnalyticsClient interface {
	Dashboard(ctx context.Context) (*models.DashboardStats, error)
	RevenueImpact(ctx context.Context, period string) (*models.RevenueImpact, error)
	BrokenLinksHistory(ctx context.Context, days int) (*models.BrokenLinksHistory, error)
}

// EndpointResult records a failed analytics fetch.
type EndpointResult struct {
	Endpoint string
	Error    error
}

// OverviewResult holds whatever analytics could be fetched. A nil field has a matching entry in Errors.
type OverviewResult struct {
	Dashboard *models.DashboardStats
	Revenue   *models.RevenueImpact
	Broken    *models.BrokenLinksHistory
	Errors    []EndpointResult
}

// Overview fetches the dashboard, revenue impact for period and broken-link history for days concurrently.
func Overview(ctx context.Context, client AnalyticsClient, days int, period string, progress chan<- ProgressUpdate) *OverviewResult {
	result := &OverviewResult{}

	fetches := []struct {
		endpoint string
		phase    Phase
		run      func() error
	}{
		{"/analytics/dashboard", FetchDashboard, func() (err error) {
			result.Dashboard, err = client.Dashboard(ctx)
			return
		}},
		{"/analytics/revenue-impact", FetchRevenue, func() (err error) {
			result.Revenue, err = client.RevenueImpact(ctx, period)
			return
		}},
		{"/analytics/broken-links", FetchBroken, func() (err error) {
			result.Broken, err = client.BrokenLinksHistory(ctx, days)
			return
		}},
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for _, f := range fetches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.run()

			mu.Lock()
			defer mu.Unlock()
			done++
			if err != nil {
				result.Errors = append(result.Errors, EndpointResult{Endpoint: f.endpoint, Error: err})
			}
			sendProgress(progress, endpointUpdate(f.phase, done, len(fetches), f.endpoint, err))
		}()
	}
	wg.Wait()

	slices.SortFunc(result.Errors, func(a, b EndpointResult) int { return strings.Compare(a.Endpoint, b.Endpoint) })
	return result
}
