package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/desertthunder/linkguard/internal/formatter"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/desertthunder/linkguard/internal/store"
	"github.com/urfave/cli/v3"
)

// loadLinks restores the session and fills the link store.
func (r *Runner) loadLinks(ctx context.Context) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	return r.links.Load(ctx)
}

func requireArg(cmd *cli.Command, name string) (string, error) {
	v := cmd.StringArg(name)
	if v == "" {
		return "", fmt.Errorf("%w: <%s>", shared.ErrMissingArgument, name)
	}
	return v, nil
}

// LinksList prints cached links, optionally filtered.
func (r *Runner) LinksList(ctx context.Context, cmd *cli.Command) error {
	var status models.LinkStatus
	if s := cmd.String("status"); s != "" {
		st, err := models.ParseLinkStatus(s)
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
		status = st
	}

	if err := r.loadLinks(ctx); err != nil {
		return err
	}

	links := r.links.Filter(cmd.String("query"), status)
	if cmd.Bool("json") {
		if links == nil {
			links = []models.Link{}
		}
		return r.writeJSON(links, cmd.Bool("pretty"))
	}

	if len(links) == 0 {
		return r.writePlain("No links found\n")
	}

	out, err := formatter.LinksToText(links)
	if err != nil {
		return err
	}
	r.output.Write(out)

	counts := r.links.Counts()
	return r.writePlainln("%d links: %d active, %d warning, %d broken",
		len(r.links.Snapshot()), counts[models.LinkActive], counts[models.LinkWarning], counts[models.LinkBroken])
}

// LinksAdd creates a link.
func (r *Runner) LinksAdd(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	link, err := r.links.Add(ctx, models.LinkInput{
		URL:   cmd.String("url"),
		Title: cmd.String("title"),
		Page:  cmd.String("page"),
	})
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s (%s)\n", link.Title, link.ID)
}

// LinksEdit updates a link, keeping fields that were not given on the command line.
func (r *Runner) LinksEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	current, err := r.links.Fetch(ctx, id)
	if err != nil {
		return err
	}

	in := models.LinkInput{URL: current.URL, Title: current.Title, Page: current.Page}
	if cmd.IsSet("url") {
		in.URL = cmd.String("url")
	}
	if cmd.IsSet("title") {
		in.Title = cmd.String("title")
	}
	if cmd.IsSet("page") {
		in.Page = cmd.String("page")
	}

	link, err := r.links.Update(ctx, id, in)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated %s (%s)\n", link.Title, link.ID)
}

// LinksCheck re-checks one link and prints its new status.
func (r *Runner) LinksCheck(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	if err := r.links.CheckOne(ctx, id); err != nil {
		return err
	}

	link, ok := r.links.Get(id)
	if !ok {
		return r.writePlain("✓ Checked %s\n", id)
	}
	return r.writePlain("✓ %s is %s\n", link.Title, formatter.StatusLabel(link.Status))
}

// LinksCheckAll re-checks every link and prints the resulting counts.
func (r *Runner) LinksCheckAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(ctx); err != nil {
		return err
	}
	if err := r.links.CheckAll(ctx); err != nil {
		return err
	}

	counts := r.links.Counts()
	return r.writePlain("✓ Checked %d links: %d active, %d warning, %d broken\n",
		len(r.links.Snapshot()), counts[models.LinkActive], counts[models.LinkWarning], counts[models.LinkBroken])
}

// LinksRemove deletes one link, or several concurrently.
func (r *Runner) LinksRemove(ctx context.Context, cmd *cli.Command) error {
	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one link id", shared.ErrMissingArgument)
	}
	if err := r.loadLinks(ctx); err != nil {
		return err
	}

	if len(ids) == 1 {
		if err := r.links.Remove(ctx, ids[0]); err != nil {
			return err
		}
		return r.writePlain("✓ Deleted %s\n", ids[0])
	}

	res, err := r.links.RemoveMany(ctx, ids)
	for _, id := range res.Confirmed {
		r.writePlain("✓ Deleted %s\n", id)
	}

	var batchErr *store.BatchError
	if errors.As(err, &batchErr) {
		for _, id := range batchErr.IDs() {
			r.writePlain("✗ %s: %s\n", id, shared.UserMessage(batchErr.Failed[id]))
		}
	}
	return err
}

// LinksUpload bulk imports a CSV file and prints the per-row report.
func (r *Runner) LinksUpload(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	if err := r.requireSession(ctx); err != nil {
		return err
	}

	r.logger.Info("uploading links", "file", path)
	res, err := r.uploader.Upload(ctx, path, f, nil)
	if res == nil {
		return err
	}

	if cmd.Bool("json") {
		if werr := r.writeJSON(res, cmd.Bool("pretty")); werr != nil {
			return werr
		}
		return err
	}

	r.writePlain("%s", formatter.UploadReport(res))
	if err != nil {
		r.logger.Warn("upload succeeded but links could not be refreshed", "error", err)
	}
	return nil
}

// LinksUploads lists recent uploads recorded in the local database.
func (r *Runner) LinksUploads(ctx context.Context, cmd *cli.Command) error {
	if r.history == nil {
		return fmt.Errorf("%w: upload history needs a database, run `linkguard setup database`", shared.ErrMissingConfig)
	}

	records, err := r.history.List(ctx, int(cmd.Int("limit")))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return r.writePlain("No uploads recorded\n")
	}

	for _, rec := range records {
		r.writePlain("%s  %-30s %3d imported  %3d failed\n",
			rec.UploadedAt.Local().Format("2006-01-02 15:04"), rec.FileName, rec.Success, rec.Failed)
	}
	return nil
}

// LinksExport writes links to a file. csv and json come from the server unless --local is set.
func (r *Runner) LinksExport(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !slices.Contains(formatter.Formats, format) && format != "md" && format != "text" {
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	path := cmd.String("output")
	if path == "" {
		path = "links_export." + formatter.Extension(format)
	}

	serverSide := !cmd.Bool("local") && (format == formatter.FormatCSV || format == formatter.FormatJSON)
	if serverSide {
		data, err := r.client.ExportLinks(ctx, format)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write export file: %w", err)
		}
		return r.writePlain("✓ Exported links to %s\n", path)
	}

	if err := r.links.Load(ctx); err != nil {
		return err
	}
	written, err := formatter.WriteLinksExport(r.links.Snapshot(), format, path)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d links to %s\n", len(r.links.Snapshot()), written)
}

// LinksSuggest prints replacement suggestions for a link.
func (r *Runner) LinksSuggest(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	suggestions, err := r.client.SuggestReplacement(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(suggestions, cmd.Bool("pretty"))
	}
	if len(suggestions) == 0 {
		return r.writePlain("No suggestions for %s\n", id)
	}

	r.writePlainHeader("Suggestions for " + id)
	for _, s := range suggestions {
		r.writePlain("%-12s %3.0f%%  %s\n             %s\n", s.ID, s.Confidence*100, s.Title, s.URL)
	}
	return nil
}

// LinksFix replaces a link with a suggestion, picking the most confident one when none is given.
func (r *Runner) LinksFix(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.requireSession(ctx); err != nil {
		return err
	}

	suggestionID := cmd.String("suggestion")
	if suggestionID == "" {
		suggestions, err := r.client.SuggestReplacement(ctx, id)
		if err != nil {
			return err
		}
		if len(suggestions) == 0 {
			return fmt.Errorf("%w: no suggestions for %s", shared.ErrNotFound, id)
		}
		best := slices.MaxFunc(suggestions, func(a, b models.Suggestion) int {
			switch {
			case a.Confidence < b.Confidence:
				return -1
			case a.Confidence > b.Confidence:
				return 1
			}
			return 0
		})
		suggestionID = best.ID
	}

	link, err := r.links.Fix(ctx, id, suggestionID)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s now points to %s\n", link.Title, link.URL)
}
