// package services defines the HTTP client for the link-monitoring backend
package services

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
)

const defaultBaseURL = "http://localhost:8000"

// Session supplies the credential for each request and receives expiry notifications.
//
// Implemented by session.Manager.
type Session interface {
	// Token returns the current credential, or nil when there is none.
	Token() *oauth2.Token
	// ExpireCredential forces the session to expire if accessToken is still the active credential.
	ExpireCredential(ctx context.Context, accessToken string)
}

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string
	HTTPClient *http.Client  // used as-is when set; Timeout is ignored
	Timeout    time.Duration // applies to the client's own [http.Client]
	Logger     *log.Logger
}

// errorBody covers the error shapes the backend is known to return.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

func (e errorBody) text() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Error != "":
		return e.Error
	default:
		return e.Detail
	}
}
