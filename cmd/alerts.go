package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/linkguard/internal/formatter"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) loadAlerts(ctx context.Context) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	return r.alerts.Load(ctx)
}

// AlertsList prints alerts newest first as returned by the server.
func (r *Runner) AlertsList(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadAlerts(ctx); err != nil {
		return err
	}

	alerts := r.alerts.Snapshot()
	if cmd.Bool("unread") {
		unread := make([]models.Alert, 0, len(alerts))
		for _, a := range alerts {
			if !a.Read {
				unread = append(unread, a)
			}
		}
		alerts = unread
	}

	if cmd.Bool("json") {
		return r.writeJSON(alerts, cmd.Bool("pretty"))
	}
	if len(alerts) == 0 {
		return r.writePlain("No alerts\n")
	}

	now := time.Now()
	for _, a := range alerts {
		mark := " "
		if !a.Read {
			mark = "•"
		}
		r.writePlain("%s %-8s %-8s %-10s %s\n", mark, a.ID, a.Type, formatter.FormatAgo(a.Time, now), a.Message)
	}
	return r.writePlainln("%d unread of %d", r.alerts.Unread(), len(r.alerts.Snapshot()))
}

// AlertsRead marks one alert as read.
func (r *Runner) AlertsRead(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.loadAlerts(ctx); err != nil {
		return err
	}
	if err := r.alerts.MarkRead(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Alert %s marked as read\n", id)
}

// AlertsReadAll marks every alert as read.
func (r *Runner) AlertsReadAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadAlerts(ctx); err != nil {
		return err
	}
	if err := r.alerts.MarkAllRead(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ All alerts marked as read\n")
}

// AlertsRemove deletes one alert.
func (r *Runner) AlertsRemove(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.loadAlerts(ctx); err != nil {
		return err
	}
	if err := r.alerts.Remove(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Alert %s deleted\n", id)
}

// AlertsSettings prints notification settings, applying --enable/--disable first.
func (r *Runner) AlertsSettings(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	settings, err := r.alerts.LoadSettings(ctx)
	if err != nil {
		return err
	}

	enable, disable := cmd.StringSlice("enable"), cmd.StringSlice("disable")
	if len(enable)+len(disable) > 0 {
		next := settings
		for _, name := range enable {
			if err := next.Set(name, true); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
			}
		}
		for _, name := range disable {
			if err := next.Set(name, false); err != nil {
				return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
			}
		}
		if settings, err = r.alerts.SaveSettings(ctx, next); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(settings, cmd.Bool("pretty"))
	}

	onOff := func(v bool) string {
		if v {
			return "on"
		}
		return "off"
	}
	r.writePlain("Email notifications: %s\n", onOff(settings.EmailNotifications))
	r.writePlain("Broken links:        %s\n", onOff(settings.BrokenLinks))
	r.writePlain("Price changes:       %s\n", onOff(settings.PriceChanges))
	r.writePlain("Monthly reports:     %s\n", onOff(settings.MonthlyReports))
	return nil
}
