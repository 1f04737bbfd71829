package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/linkguard/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Seed credentials accepted by [FakeBackend].
const (
	TestEmail    = "ada@example.com"
	TestPassword = "hunter22"
	TestUserID   = "user-1"
)

var signingKey = []byte("linkguard-fake-backend")

// FakeBackend is an in-memory stand-in for the link-monitoring API served over httptest.
//
// State is guarded by mu; tests read and mutate it through the helper methods.
type FakeBackend struct {
	*httptest.Server

	mu          sync.Mutex
	user        models.User
	password    string
	token       string
	links       []models.Link
	alerts      []models.Alert
	settings    models.AlertSettings
	failures    map[string]int
	hits        map[string]int
	authHeaders map[string]string
	resets      []string
	checkStatus map[string]models.LinkStatus
	suggestions []models.Suggestion
	bulk        bulkUpload
	nextID      int
}

type bulkUpload struct {
	result  models.BulkUploadResult
	created []models.Link
	raw     string
	file    string
}

// NewFakeBackend starts a seeded backend that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		user:        models.User{ID: TestUserID, Name: "Ada", Email: TestEmail, Plan: "free"},
		password:    TestPassword,
		links:       SeedLinks(),
		alerts:      SeedAlerts(),
		settings:    models.AlertSettings{EmailNotifications: true, BrokenLinks: true},
		failures:    map[string]int{},
		hits:        map[string]int{},
		authHeaders: map[string]string{},
		checkStatus: map[string]models.LinkStatus{},
		nextID:      100,
	}
	b.token = IssueToken(TestUserID, time.Now().Add(time.Hour))
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Close)
	return b
}

// SeedLinks returns the links a new [FakeBackend] starts with.
func SeedLinks() []models.Link {
	checked := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.Link{
		{ID: "a", URL: "https://amzn.to/a", Title: "Camera", Page: "Gear video", Status: models.LinkActive, Clicks: 120, Revenue: 42.5, LastChecked: &checked},
		{ID: "b", URL: "https://amzn.to/b", Title: "Tripod", Page: "Gear video", Status: models.LinkWarning, Clicks: 30, Revenue: 8},
		{ID: "c", URL: "https://amzn.to/c", Title: "Microphone", Page: "Audio blog", Status: models.LinkBroken, Clicks: 5},
	}
}

// SeedAlerts returns the alerts a new [FakeBackend] starts with.
func SeedAlerts() []models.Alert {
	at := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	return []models.Alert{
		{ID: "1", Type: models.AlertBroken, Message: "Microphone link is broken", Time: at, LinkID: "c"},
		{ID: "2", Type: models.AlertWarning, Message: "Tripod responded slowly", Time: at.Add(time.Hour), LinkID: "b"},
		{ID: "3", Type: models.AlertInfo, Message: "Weekly report ready", Time: at.Add(2 * time.Hour), Read: true},
	}
}

// IssueToken signs an HS256 bearer token for userID expiring at exp.
func IssueToken(userID string, exp time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(err)
	}
	return signed
}

// Token returns the bearer token the backend currently accepts.
func (b *FakeBackend) Token() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.token
}

// RevokeToken makes the current token invalid so every authenticated route answers 401.
func (b *FakeBackend) RevokeToken() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.token = IssueToken(b.user.ID, time.Now().Add(time.Hour)) + "-rotated"
}

// Fail makes method+path answer status until cleared with status 0.
func (b *FakeBackend) Fail(method, path string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := method + " " + path
	if status == 0 {
		delete(b.failures, key)
		return
	}
	b.failures[key] = status
}

// Hits reports how many requests reached method+path, including failed ones.
func (b *FakeBackend) Hits(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[method+" "+path]
}

// TotalHits reports every request received.
func (b *FakeBackend) TotalHits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, v := range b.hits {
		n += v
	}
	return n
}

func (b *FakeBackend) Links() []models.Link {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Link(nil), b.links...)
}

func (b *FakeBackend) Alerts() []models.Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Alert(nil), b.alerts...)
}

func (b *FakeBackend) Settings() models.AlertSettings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.settings
}

// SetCheckResult sets the status a link gets on its next check.
func (b *FakeBackend) SetCheckResult(id string, status models.LinkStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checkStatus[id] = status
}

// SetSuggestions sets the suggestions returned for any link.
func (b *FakeBackend) SetSuggestions(s []models.Suggestion) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suggestions = s
}

// SetBulkResult sets the upload response and the links the upload creates.
func (b *FakeBackend) SetBulkResult(result models.BulkUploadResult, created ...models.Link) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bulk.result = result
	b.bulk.created = created
}

// SetBulkResultJSON sets a verbatim upload response body, overriding [FakeBackend.SetBulkResult].
func (b *FakeBackend) SetBulkResultJSON(raw string, created ...models.Link) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bulk.raw = raw
	b.bulk.created = created
}

// LastUpload returns the contents of the last uploaded file.
func (b *FakeBackend) LastUpload() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bulk.file
}

// LastAuthorization returns the Authorization header of the last request to method and path.
func (b *FakeBackend) LastAuthorization(method, path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authHeaders[method+" "+path]
}

// ResetRequests returns the addresses a password reset was requested for.
func (b *FakeBackend) ResetRequests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.resets...)
}

func (b *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record, b.inject)

	r.Post("/auth/login", b.login)
	r.Post("/auth/signup", b.signup)
	r.Post("/auth/forgot-password", b.forgotPassword)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/auth/me", b.me)
		r.Put("/auth/profile", b.updateProfile)

		r.Route("/links", func(r chi.Router) {
			r.Get("/", b.listLinks)
			r.Post("/", b.createLink)
			r.Post("/check-all", b.checkAll)
			r.Post("/bulk-upload", b.bulkUpload)
			r.Get("/export", b.export)
			r.Get("/{id}", b.getLink)
			r.Put("/{id}", b.updateLink)
			r.Delete("/{id}", b.deleteLink)
			r.Post("/{id}/check", b.checkLink)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", b.listAlerts)
			r.Put("/read-all", b.readAll)
			r.Get("/settings", b.getSettings)
			r.Put("/settings", b.putSettings)
			r.Put("/{id}/read", b.readAlert)
			r.Delete("/{id}", b.deleteAlert)
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/dashboard", b.dashboard)
			r.Get("/links/{id}", b.linkStats)
			r.Get("/revenue-impact", b.revenueImpact)
			r.Get("/broken-links", b.brokenLinks)
		})

		r.Post("/ai/suggest-replacement/{id}", b.suggest)
		r.Post("/ai/auto-fix/{id}", b.autoFix)
	})
	return r
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits[r.Method+" "+r.URL.Path]++
		b.authHeaders[r.Method+" "+r.URL.Path] = r.Header.Get("Authorization")
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status, ok := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if ok {
			writeError(w, status, fmt.Sprintf("injected failure for %s %s", r.Method, r.URL.Path))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if got == "" || got != b.Token() {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if creds.Email != b.user.Email || creds.Password != b.password {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	writeJSON(w, http.StatusOK, models.AuthResponse{Token: b.token, User: b.user})
}

func (b *FakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if req.Email == b.user.Email {
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}

	b.nextID++
	b.user = models.User{ID: fmt.Sprintf("user-%d", b.nextID), Name: req.Name, Email: req.Email, Website: req.Website, Plan: "free"}
	b.password = req.Password
	b.token = IssueToken(b.user.ID, time.Now().Add(time.Hour))
	writeJSON(w, http.StatusCreated, models.AuthResponse{Token: b.token, User: b.user})
}

func (b *FakeBackend) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	b.mu.Lock()
	b.resets = append(b.resets, req.Email)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"message": "If that address is registered, a reset link is on its way"})
}

func (b *FakeBackend) me(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.user)
}

func (b *FakeBackend) updateProfile(w http.ResponseWriter, r *http.Request) {
	var p models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.user = b.user.Merge(p)
	writeJSON(w, http.StatusOK, b.user)
}

func (b *FakeBackend) indexOfLink(id string) int {
	for i, l := range b.links {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (b *FakeBackend) listLinks(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.links)
}

func (b *FakeBackend) getLink(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOfLink(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	writeJSON(w, http.StatusOK, b.links[i])
}

func (b *FakeBackend) createLink(w http.ResponseWriter, r *http.Request) {
	var in models.LinkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.URL == "" {
		writeError(w, http.StatusUnprocessableEntity, "url is required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	link := models.Link{ID: fmt.Sprintf("l%d", b.nextID), URL: in.URL, Title: in.Title, Page: in.Page, Status: models.LinkActive}
	b.links = append(b.links, link)
	writeJSON(w, http.StatusCreated, link)
}

func (b *FakeBackend) updateLink(w http.ResponseWriter, r *http.Request) {
	var in models.LinkInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOfLink(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	b.links[i].URL, b.links[i].Title, b.links[i].Page = in.URL, in.Title, in.Page
	writeJSON(w, http.StatusOK, b.links[i])
}

func (b *FakeBackend) deleteLink(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOfLink(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	b.links = append(b.links[:i], b.links[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) check(i int) {
	now := time.Now().UTC()
	b.links[i].LastChecked = &now
	if s, ok := b.checkStatus[b.links[i].ID]; ok {
		b.links[i].Status = s
		delete(b.checkStatus, b.links[i].ID)
	}
}

func (b *FakeBackend) checkLink(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOfLink(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	b.check(i)
	writeJSON(w, http.StatusOK, b.links[i])
}

func (b *FakeBackend) checkAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.links {
		b.check(i)
	}
	writeJSON(w, http.StatusOK, map[string]int{"checked": len(b.links)})
}

func (b *FakeBackend) bulkUpload(w http.ResponseWriter, r *http.Request) {
	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable file")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.bulk.file = string(content)
	b.links = append(b.links, b.bulk.created...)
	if b.bulk.raw != "" {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, b.bulk.raw)
		return
	}
	writeJSON(w, http.StatusOK, b.bulk.result)
}

func (b *FakeBackend) export(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch r.URL.Query().Get("format") {
	case "json":
		writeJSON(w, http.StatusOK, b.links)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "url,title,page,status\n")
		for _, l := range b.links {
			fmt.Fprintf(w, "%s,%s,%s,%s\n", l.URL, l.Title, l.Page, l.Status)
		}
	default:
		writeError(w, http.StatusBadRequest, "unsupported format")
	}
}

func (b *FakeBackend) listAlerts(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.alerts)
}

func (b *FakeBackend) readAlert(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for i := range b.alerts {
		if b.alerts[i].ID == id {
			b.alerts[i].Read = true
			writeJSON(w, http.StatusOK, b.alerts[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "Alert not found")
}

func (b *FakeBackend) readAll(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.alerts {
		b.alerts[i].Read = true
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *FakeBackend) deleteAlert(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := chi.URLParam(r, "id")
	for i := range b.alerts {
		if b.alerts[i].ID == id {
			b.alerts = append(b.alerts[:i], b.alerts[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Alert not found")
}

func (b *FakeBackend) getSettings(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeJSON(w, http.StatusOK, b.settings)
}

func (b *FakeBackend) putSettings(w http.ResponseWriter, r *http.Request) {
	var s models.AlertSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.settings = s
	writeJSON(w, http.StatusOK, b.settings)
}

func (b *FakeBackend) dashboard(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stats := models.DashboardStats{TotalLinks: len(b.links)}
	for _, l := range b.links {
		switch l.Status {
		case models.LinkActive:
			stats.ActiveLinks++
		case models.LinkWarning:
			stats.WarningLinks++
		case models.LinkBroken:
			stats.BrokenLinks++
			stats.EstimatedLoss += 25
		}
	}
	if stats.TotalLinks > 0 {
		stats.HealthScore = stats.ActiveLinks * 100 / stats.TotalLinks
	}
	writeJSON(w, http.StatusOK, stats)
}

func (b *FakeBackend) linkStats(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOfLink(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	l := b.links[i]
	writeJSON(w, http.StatusOK, models.LinkStats{LinkID: l.ID, Clicks: l.Clicks, Revenue: l.Revenue})
}

func (b *FakeBackend) revenueImpact(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = "30d"
	}
	writeJSON(w, http.StatusOK, models.RevenueImpact{Period: period, EstimatedLoss: 25, RecoveredRevenue: 10, AffectedLinks: 1})
}

func (b *FakeBackend) brokenLinks(w http.ResponseWriter, r *http.Request) {
	days := 0
	fmt.Sscanf(r.URL.Query().Get("days"), "%d", &days)

	out := models.BrokenLinksHistory{Days: days}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for d := range days {
		out.Points = append(out.Points, models.DailyCount{Date: start.AddDate(0, 0, d).Format("2006-01-02"), Count: d % 3})
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *FakeBackend) suggest(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.indexOfLink(chi.URLParam(r, "id")) < 0 {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": b.suggestions})
}

func (b *FakeBackend) autoFix(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SuggestionID string `json:"suggestionId"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	b.mu.Lock()
	defer b.mu.Unlock()
	i := b.indexOfLink(chi.URLParam(r, "id"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "Link not found")
		return
	}
	for _, s := range b.suggestions {
		if s.ID == body.SuggestionID {
			b.links[i].URL = s.URL
			b.links[i].Status = models.LinkActive
			writeJSON(w, http.StatusOK, b.links[i])
			return
		}
	}
	writeError(w, http.StatusBadRequest, "Unknown suggestion")
}
