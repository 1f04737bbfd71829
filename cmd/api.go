package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/linkguard/internal/services"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/urfave/cli/v3"
)

func (r *Runner) writeRaw(resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: body: %s", shared.NewAPIError(resp.StatusCode, "", http.StatusText(resp.StatusCode)), string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIGet makes a direct authenticated GET request
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	r.session.Restore(ctx)

	r.logger.Info("GET request", "path", path)

	resp, err := r.client.Raw(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return r.writeRaw(resp, !cmd.Bool("json"))
}

// APIPost makes a direct authenticated POST request
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}
	data := cmd.String("data")

	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}
	r.session.Restore(ctx)

	r.logger.Info("POST request", "path", path)

	resp, err := r.client.Raw(ctx, http.MethodPost, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return r.writeRaw(resp, true)
}
