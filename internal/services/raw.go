package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// APIResponse is a raw backend response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Raw performs an authenticated request to path and returns the response without classifying its status.
//
// A 401 still expires the session through the response hook.
func (c *Client) Raw(ctx context.Context, method, path string, body []byte) (*APIResponse, error) {
	req := c.request(ctx)
	if len(body) > 0 {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	out := &APIResponse{
		StatusCode: resp.StatusCode(),
		Headers:    resp.Header(),
		Body:       resp.Body(),
	}

	var data any
	if err := json.Unmarshal(out.Body, &data); err == nil {
		out.IsJSON = true
		out.JSONData = data
	}
	return out, nil
}
