package ui

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/services"
	"github.com/desertthunder/linkguard/internal/session"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/desertthunder/linkguard/internal/store"
	"github.com/desertthunder/linkguard/internal/tasks"
	tu "github.com/desertthunder/linkguard/internal/testing"
)

func newTestModel(t *testing.T, opts Options) (*Model, *tu.FakeBackend) {
	t.Helper()
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)
	backend := tu.NewFakeBackend(t)

	client := services.NewClient(services.ClientOpts{BaseURL: backend.URL, Logger: logger})
	sess := session.NewManager(client, session.NewMemoryStore(backend.Token()), logger)
	client.Bind(sess)
	if status := sess.Restore(ctx); status != session.StatusAuthenticated {
		t.Fatalf("expected authenticated session, got %v", status)
	}

	links := store.NewLinkStore(client, store.LinkStoreOpts{Logger: logger})
	alerts := store.NewAlertStore(client, logger)
	uploader := tasks.NewUploader(client, links, tasks.UploaderOpts{Logger: logger})

	m := NewModel(ctx, links, alerts, uploader, sess, opts)
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m.Update(m.loadLinks()())
	m.Update(m.loadAlerts()())
	return m, backend
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestModel(t *testing.T) {
	t.Run("Loads Links And Alerts", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})

		view := m.View()
		for _, want := range []string{"3 links", "1 broken", "2 unread alerts", "Camera"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q, got %q", want, view)
			}
		}
	})

	t.Run("Status Filter Cycles", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})

		m.Update(keyPress("s"))
		if m.linkList.Title != "Links (active)" {
			t.Errorf("expected active filter, got %q", m.linkList.Title)
		}
		if n := len(m.linkList.Items()); n != 1 {
			t.Errorf("expected 1 active link, got %d", n)
		}

		for range len(models.LinkStatuses) {
			m.Update(keyPress("s"))
		}
		if m.linkList.Title != "Links" {
			t.Errorf("expected filter to wrap around, got %q", m.linkList.Title)
		}
	})

	t.Run("Tab Switches Views", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})

		m.Update(keyPress("tab"))
		if m.view != AlertsView {
			t.Fatalf("expected AlertsView, got %v", m.view)
		}
		if !strings.Contains(m.alertList.Title, "2 unread") {
			t.Errorf("expected unread count in title, got %q", m.alertList.Title)
		}

		m.Update(keyPress("esc"))
		if m.view != LinksView {
			t.Errorf("expected LinksView, got %v", m.view)
		}
	})

	t.Run("Mark All Read", func(t *testing.T) {
		m, backend := newTestModel(t, Options{})
		m.Update(keyPress("tab"))

		_, cmd := m.Update(keyPress("R"))
		if cmd == nil {
			t.Fatal("expected a command")
		}
		m.Update(cmd())

		if m.alerts.Unread() != 0 {
			t.Errorf("expected no unread alerts, got %d", m.alerts.Unread())
		}
		if !strings.Contains(m.View(), "All alerts marked as read") {
			t.Errorf("expected notice, got %q", m.View())
		}
		for _, a := range backend.Alerts() {
			if !a.Read {
				t.Errorf("expected alert %s read on the server", a.ID)
			}
		}
	})

	t.Run("Delete Shows Before Server Confirms", func(t *testing.T) {
		m, backend := newTestModel(t, Options{})
		backend.Fail("DELETE", "/links/a", 500)

		_, cmd := m.Update(keyPress("x"))
		if cmd == nil {
			t.Fatal("expected a command")
		}
		if n := len(m.linkList.Items()); n != 2 {
			t.Errorf("expected deleted link hidden before the request, got %d items", n)
		}
		if backend.Hits("DELETE", "/links/a") != 0 {
			t.Error("expected no request before the command runs")
		}

		m.Update(cmd())
		if n := len(m.linkList.Items()); n != 3 {
			t.Errorf("expected link restored after refusal, got %d items", n)
		}
		if m.err == nil {
			t.Error("expected error to be recorded")
		}
	})

	t.Run("Mark Read Shows Before Server Confirms", func(t *testing.T) {
		m, backend := newTestModel(t, Options{})
		m.Update(keyPress("tab"))

		_, cmd := m.Update(keyPress("r"))
		if cmd == nil {
			t.Fatal("expected a command")
		}
		if !strings.Contains(m.alertList.Title, "1 unread") {
			t.Errorf("expected unread count to drop before the request, got %q", m.alertList.Title)
		}
		if backend.Hits("PUT", "/alerts/1/read") != 0 {
			t.Error("expected no request before the command runs")
		}

		m.Update(cmd())
		if !strings.Contains(m.View(), "Alert marked as read") {
			t.Errorf("expected notice, got %q", m.View())
		}
	})

	t.Run("Header Before First Load", func(t *testing.T) {
		logger := shared.NewLogger(io.Discard)
		client := services.NewClient(services.ClientOpts{BaseURL: "http://127.0.0.1:1", Logger: logger})
		links := store.NewLinkStore(client, store.LinkStoreOpts{Logger: logger})
		m := &Model{links: links, alerts: store.NewAlertStore(client, logger)}

		if !strings.Contains(m.header(), "loading links") {
			t.Errorf("expected loading header, got %q", m.header())
		}
	})

	t.Run("Failed Check Shows Error", func(t *testing.T) {
		m, backend := newTestModel(t, Options{})
		backend.Fail("POST", "/links/a/check", 500)

		_, cmd := m.Update(keyPress("c"))
		if cmd == nil {
			t.Fatal("expected a command")
		}
		m.Update(cmd())

		if m.err == nil {
			t.Fatal("expected error to be recorded")
		}
		if !strings.Contains(m.View(), "injected failure") {
			t.Errorf("expected server message in view, got %q", m.View())
		}
	})

	t.Run("Expired Session", func(t *testing.T) {
		m, _ := newTestModel(t, Options{})

		m.Update(sessionMsg{From: session.StatusAuthenticated, To: session.StatusAnonymous, Reason: session.ReasonExpired})
		if m.view != ExpiredView {
			t.Fatalf("expected ExpiredView, got %v", m.view)
		}
		if !strings.Contains(m.View(), "expired") {
			t.Errorf("expected expiry notice, got %q", m.View())
		}
	})

	t.Run("Upload Flow", func(t *testing.T) {
		path := tu.MustWriteFile(t, t.TempDir(), "links.csv", "url,title\nhttps://amzn.to/d,Light\nbad,Broken\n")
		m, backend := newTestModel(t, Options{UploadPath: path})
		backend.SetBulkResult(models.BulkUploadResult{
			Success: 1,
			Failed:  1,
			Details: models.BulkUploadDetails{Failed: []models.FailedRow{{Row: 1, Error: "invalid url"}}},
		}, models.Link{ID: "d", URL: "https://amzn.to/d", Title: "Light", Status: models.LinkActive})

		m.view = UploadView
		cmd := m.startUpload(path)
		for i := 0; i < 10 && m.view != ResultView; i++ {
			_, cmd = m.Update(cmd())
		}

		if m.view != ResultView {
			t.Fatalf("expected ResultView, got %v", m.view)
		}
		view := m.View()
		if !strings.Contains(view, "Row 1: invalid url") {
			t.Errorf("expected failed row in view, got %q", view)
		}
		if len(m.links.Snapshot()) != 4 {
			t.Errorf("expected reconciled links, got %d", len(m.links.Snapshot()))
		}

		m.Update(keyPress("esc"))
		if m.view != LinksView {
			t.Errorf("expected LinksView after result, got %v", m.view)
		}
	})
}
