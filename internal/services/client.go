package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
)

type usedTokenKey struct{}

// Client is a stateless request boundary to the backend: no caching, retries or rate limiting.
type Client struct {
	rc     *resty.Client
	logger *log.Logger

	mu      sync.RWMutex
	session Session
}

// NewClient creates a [Client] for the backend at opts.BaseURL.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
		if opts.Timeout > 0 {
			rc.SetTimeout(opts.Timeout)
		}
	}
	rc.SetBaseURL(opts.BaseURL)
	rc.SetHeader("Accept", "application/json")

	c := &Client{rc: rc, logger: shared.WithLogger(opts.Logger, "component", "client")}
	rc.OnAfterResponse(c.expireOnUnauthorized)
	return c
}

// Bind attaches the session that supplies credentials and receives expiry notifications.
func (c *Client) Bind(s Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// BaseURL returns the backend URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.rc.BaseURL
}

func (c *Client) currentSession() Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// expireOnUnauthorized is the resty after-response hook that turns a 401 into a session expiry.
func (c *Client) expireOnUnauthorized(_ *resty.Client, resp *resty.Response) error {
	if resp.StatusCode() != http.StatusUnauthorized {
		return nil
	}

	ctx := resp.Request.Context()
	used, _ := ctx.Value(usedTokenKey{}).(string)
	if used == "" {
		return nil
	}

	if s := c.currentSession(); s != nil {
		c.logger.Warn("request rejected as unauthenticated", "method", resp.Request.Method, "url", resp.Request.URL)
		s.ExpireCredential(ctx, used)
	}
	return nil
}

// request builds a resty request carrying the current credential and a request id.
func (c *Client) request(ctx context.Context) *resty.Request {
	var tok *oauth2.Token
	if s := c.currentSession(); s != nil {
		tok = s.Token()
	}
	return c.newRequest(ctx, tok)
}

// anonymousRequest builds a request without a credential. A 401 answering it never expires the session.
func (c *Client) anonymousRequest(ctx context.Context) *resty.Request {
	return c.newRequest(ctx, nil)
}

func (c *Client) newRequest(ctx context.Context, tok *oauth2.Token) *resty.Request {
	var used string
	if tok != nil && tok.AccessToken != "" {
		used = tok.AccessToken
	}

	req := c.rc.R().
		SetContext(context.WithValue(ctx, usedTokenKey{}, used)).
		SetHeader("X-Request-ID", shared.GenerateID())

	if used != "" {
		req.SetHeader("Authorization", tok.Type()+" "+used)
	}
	return req
}

// send executes req and classifies the outcome. On success the body is decoded into out when out is non-nil.
func (c *Client) send(req *resty.Request, method, path, fallback string, out any) (*resty.Response, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "err", err)
		return resp, fmt.Errorf("%w: %v", shared.NewAPIError(0, "", fallback), err)
	}

	c.logger.Debug("response", "method", method, "path", path, "status", resp.StatusCode(), "elapsed", resp.Time())

	if !resp.IsSuccess() {
		var body errorBody
		_ = json.Unmarshal(resp.Body(), &body)
		return resp, shared.NewAPIError(resp.StatusCode(), body.text(), fallback)
	}

	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return resp, fmt.Errorf("%w: failed to decode response: %v", shared.NewAPIError(0, "", fallback), err)
		}
	}
	return resp, nil
}

func (c *Client) get(ctx context.Context, path, fallback string, out any) error {
	_, err := c.send(c.request(ctx), http.MethodGet, path, fallback, out)
	return err
}

func (c *Client) post(ctx context.Context, path string, body any, fallback string, out any) error {
	req := c.request(ctx)
	if body != nil {
		req.SetBody(body)
	}
	_, err := c.send(req, http.MethodPost, path, fallback, out)
	return err
}

// postCredentials sends body anonymously. A 401 here rejects the submitted credentials, so it is
// reported as [shared.ErrValidation] rather than an expired session.
func (c *Client) postCredentials(ctx context.Context, path string, body any, fallback string, out any) error {
	_, err := c.send(c.anonymousRequest(ctx).SetBody(body), http.MethodPost, path, fallback, out)

	var apiErr *shared.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
		return &shared.APIError{Status: apiErr.Status, Message: apiErr.Message, Kind: shared.ErrValidation}
	}
	return err
}

func (c *Client) put(ctx context.Context, path string, body any, fallback string, out any) error {
	req := c.request(ctx)
	if body != nil {
		req.SetBody(body)
	}
	_, err := c.send(req, http.MethodPut, path, fallback, out)
	return err
}

func (c *Client) delete(ctx context.Context, path, fallback string) error {
	_, err := c.send(c.request(ctx), http.MethodDelete, path, fallback, nil)
	return err
}

// upload posts r as the multipart form field "file".
func (c *Client) upload(ctx context.Context, path, fileName string, r io.Reader, fallback string, out any) error {
	req := c.request(ctx).SetFileReader("file", fileName, r)
	_, err := c.send(req, http.MethodPost, path, fallback, out)
	return err
}
