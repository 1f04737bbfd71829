package main

import (
	"context"
	"strconv"
	"strings"

	"github.com/desertthunder/linkguard/internal/formatter"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/desertthunder/linkguard/internal/tasks"
	"github.com/urfave/cli/v3"
)

func (r *Runner) printDashboard(d *models.DashboardStats) {
	r.writePlainHeader("Link Health")
	r.writePlain("Health score:   %d/100\n", d.HealthScore)
	r.writePlain("Total links:    %d\n", d.TotalLinks)
	r.writePlain("Active:         %d\n", d.ActiveLinks)
	r.writePlain("Warning:        %d\n", d.WarningLinks)
	r.writePlain("Broken:         %d\n", d.BrokenLinks)
	r.writePlain("Estimated loss: %s\n", formatter.FormatMoney(d.EstimatedLoss))
	if d.LastCheck != nil {
		r.writePlain("Last check:     %s\n", formatter.FormatTime(d.LastCheck))
	}
}

func (r *Runner) printRevenue(rev *models.RevenueImpact) {
	r.writePlainHeader("Revenue Impact (" + rev.Period + ")")
	r.writePlain("Estimated loss:    %s\n", formatter.FormatMoney(rev.EstimatedLoss))
	r.writePlain("Recovered revenue: %s\n", formatter.FormatMoney(rev.RecoveredRevenue))
	r.writePlain("Affected links:    %d\n", rev.AffectedLinks)
}

func (r *Runner) printBroken(h *models.BrokenLinksHistory) {
	r.writePlainHeader("Broken Links (last " + strconv.Itoa(h.Days) + " days)")
	peak := 0
	for _, p := range h.Points {
		peak = max(peak, p.Count)
	}
	for _, p := range h.Points {
		bar := ""
		if peak > 0 {
			bar = strings.Repeat("█", p.Count*30/peak)
		}
		r.writePlain("%s %3d %s\n", p.Date, p.Count, bar)
	}
}

// AnalyticsDashboard prints the link health summary.
func (r *Runner) AnalyticsDashboard(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	d, err := r.client.Dashboard(ctx)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(d, cmd.Bool("pretty"))
	}
	r.printDashboard(d)
	return nil
}

// AnalyticsLink prints stats for one link.
func (r *Runner) AnalyticsLink(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	stats, err := r.client.LinkStats(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(stats, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Link " + stats.LinkID)
	r.writePlain("Clicks:  %d\n", stats.Clicks)
	r.writePlain("Revenue: %s\n", formatter.FormatMoney(stats.Revenue))
	for _, p := range stats.History {
		r.writePlain("  %s  %s\n", formatter.FormatTime(&p.Time), formatter.StatusLabel(p.Status))
	}
	return nil
}

// AnalyticsRevenue prints revenue impact for a period.
func (r *Runner) AnalyticsRevenue(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	rev, err := r.client.RevenueImpact(ctx, cmd.String("period"))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(rev, cmd.Bool("pretty"))
	}
	r.printRevenue(rev)
	return nil
}

// AnalyticsBroken prints the daily broken link history.
func (r *Runner) AnalyticsBroken(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	h, err := r.client.BrokenLinksHistory(ctx, int(cmd.Int("days")))
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(h, cmd.Bool("pretty"))
	}
	r.printBroken(h)
	return nil
}

// AnalyticsOverview fetches every report concurrently and prints what succeeded.
func (r *Runner) AnalyticsOverview(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 3)
	done := make(chan *tasks.OverviewResult, 1)
	go func() {
		done <- tasks.Overview(ctx, r.client, int(cmd.Int("days")), cmd.String("period"), progress)
		close(progress)
	}()

	jsonOut := cmd.Bool("json")
	for update := range progress {
		r.logger.Debug("overview progress", "phase", update.Phase, "step", update.Step)
		if !jsonOut {
			r.writePlain("%s\n", update.Message)
		}
	}
	res := <-done

	if jsonOut {
		type endpointError struct {
			Endpoint string `json:"endpoint"`
			Error    string `json:"error"`
		}
		out := struct {
			Dashboard *models.DashboardStats     `json:"dashboard,omitempty"`
			Revenue   *models.RevenueImpact      `json:"revenue,omitempty"`
			Broken    *models.BrokenLinksHistory `json:"broken,omitempty"`
			Errors    []endpointError            `json:"errors,omitempty"`
		}{Dashboard: res.Dashboard, Revenue: res.Revenue, Broken: res.Broken}
		for _, e := range res.Errors {
			out.Errors = append(out.Errors, endpointError{e.Endpoint, shared.UserMessage(e.Error)})
		}
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	if res.Dashboard != nil {
		r.printDashboard(res.Dashboard)
	}
	if res.Revenue != nil {
		r.printRevenue(res.Revenue)
	}
	if res.Broken != nil {
		r.printBroken(res.Broken)
	}
	for _, e := range res.Errors {
		r.writePlain("✗ %s: %s\n", e.Endpoint, shared.UserMessage(e.Error))
	}
	if len(res.Errors) == 3 {
		return res.Errors[0].Error
	}
	return nil
}
