// package models defines the data model for the link-monitoring client
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LinkStatus is the liveness state of a link as reported by the backend.
type LinkStatus string

const (
	LinkActive  LinkStatus = "active"
	LinkWarning LinkStatus = "warning"
	LinkBroken  LinkStatus = "broken"
)

// LinkStatuses lists every valid [LinkStatus] in display order.
var LinkStatuses = []LinkStatus{LinkActive, LinkWarning, LinkBroken}

// ParseLinkStatus parses a status name case-insensitively.
func ParseLinkStatus(s string) (LinkStatus, error) {
	st := LinkStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown link status %q", s)
	}
	return st, nil
}

// Valid reports whether s is one of the three known statuses.
func (s LinkStatus) Valid() bool {
	switch s {
	case LinkActive, LinkWarning, LinkBroken:
		return true
	}
	return false
}

func (s *LinkStatus) UnmarshalText(b []byte) error {
	st := LinkStatus(b)
	if !st.Valid() {
		return fmt.Errorf("unknown link status %q", string(b))
	}
	*s = st
	return nil
}

// Link is an affiliate link owned by the backend.
type Link struct {
	ID          string     `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Page        string     `json:"page"`
	Status      LinkStatus `json:"status"`
	Clicks      int        `json:"clicks"`
	Revenue     float64    `json:"revenue"`
	LastChecked *time.Time `json:"lastChecked,omitempty"`
}

// Validate checks the invariants the client relies on.
func (l Link) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("link missing id")
	}
	if !l.Status.Valid() {
		return fmt.Errorf("link %s: unknown status %q", l.ID, l.Status)
	}
	if l.Clicks < 0 {
		return fmt.Errorf("link %s: negative clicks", l.ID)
	}
	if l.Revenue < 0 {
		return fmt.Errorf("link %s: negative revenue", l.ID)
	}
	return nil
}

// Matches reports whether query is a case-insensitive substring of the title, URL or page.
func (l Link) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.Title), q) ||
		strings.Contains(strings.ToLower(l.URL), q) ||
		strings.Contains(strings.ToLower(l.Page), q)
}

// LinkInput is the request body for creating or updating a link.
type LinkInput struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Page  string `json:"page,omitempty"`
}

// Validate requires the fields the backend requires.
func (in LinkInput) Validate() error {
	if strings.TrimSpace(in.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// AlertType categorizes an [Alert].
type AlertType string

const (
	AlertBroken  AlertType = "broken"
	AlertWarning AlertType = "warning"
	AlertInfo    AlertType = "info"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertBroken, AlertWarning, AlertInfo:
		return true
	}
	return false
}

func (t *AlertType) UnmarshalText(b []byte) error {
	at := AlertType(b)
	if !at.Valid() {
		return fmt.Errorf("unknown alert type %q", string(b))
	}
	*t = at
	return nil
}

// Alert is a notification about a link. LinkID is a weak reference; the alert does not own the link.
type Alert struct {
	ID      string    `json:"id"`
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
	Read    bool      `json:"read"`
	LinkID  string    `json:"linkId,omitempty"`
}

// AlertSettings holds notification preferences. Updates always send the complete object.
type AlertSettings struct {
	EmailNotifications bool `json:"emailNotifications"`
	BrokenLinks        bool `json:"brokenLinks"`
	PriceChanges       bool `json:"priceChanges"`
	MonthlyReports     bool `json:"monthlyReports"`
}

// Set assigns a setting by its JSON name.
func (s *AlertSettings) Set(name string, v bool) error {
	switch name {
	case "emailNotifications":
		s.EmailNotifications = v
	case "brokenLinks":
		s.BrokenLinks = v
	case "priceChanges":
		s.PriceChanges = v
	case "monthlyReports":
		s.MonthlyReports = v
	default:
		return fmt.Errorf("unknown alert setting %q", name)
	}
	return nil
}

// User is the authenticated profile snapshot.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Website string `json:"website,omitempty"`
	Plan    string `json:"plan,omitempty"`
}

// ProfileUpdate is a partial profile edit; nil fields are left untouched.
type ProfileUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Website *string `json:"website,omitempty"`
}

// Merge returns a copy of u with the non-nil fields of p applied.
func (u User) Merge(p ProfileUpdate) User {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Website != nil {
		u.Website = *p.Website
	}
	return u
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest is the account creation request body.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Website  string `json:"website,omitempty"`
}

// AuthResponse is returned by login and signup.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// FailedRow is one rejected CSV row from a bulk upload.
type FailedRow struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// BulkUploadDetails holds per-row failure details.
type BulkUploadDetails struct {
	Failed []FailedRow `json:"failed"`
}

// UnmarshalJSON fills a missing row index with the entry's position in the list.
func (d *BulkUploadDetails) UnmarshalJSON(b []byte) error {
	var raw struct {
		Failed []struct {
			Row   *int   `json:"row"`
			Error string `json:"error"`
		} `json:"failed"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	d.Failed = make([]FailedRow, len(raw.Failed))
	for i, f := range raw.Failed {
		row := i
		if f.Row != nil {
			row = *f.Row
		}
		d.Failed[i] = FailedRow{Row: row, Error: f.Error}
	}
	return nil
}

// BulkUploadResult is the outcome of one CSV upload.
type BulkUploadResult struct {
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Details BulkUploadDetails `json:"details"`
}

// Partial reports a successful call in which some rows were rejected. It is not an error.
func (r BulkUploadResult) Partial() bool {
	return r.Success > 0 && r.Failed > 0
}

// Total is the number of rows the server processed.
func (r BulkUploadResult) Total() int {
	return r.Success + r.Failed
}

// UploadRecord is a locally persisted summary of one bulk upload.
type UploadRecord struct {
	ID         string    `json:"id"`
	FileName   string    `json:"fileName"`
	Success    int       `json:"success"`
	Failed     int       `json:"failed"`
	UploadedAt time.Time `json:"uploadedAt"`
}
