package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/desertthunder/linkguard/internal/store"
	tu "github.com/desertthunder/linkguard/internal/testing"
	"github.com/urfave/cli/v3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

func newTestRunner(t *testing.T, backend *tu.FakeBackend, db *sql.DB) (*Runner, *bytes.Buffer) {
	t.Helper()
	config := shared.DefaultConfig()
	config.API.BaseURL = backend.URL
	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config: config,
		DB:     db,
		Logger: shared.NewLogger(io.Discard),
		Output: output,
	})
	return runner, output
}

func run(r *Runner, args ...string) error {
	app := &cli.Command{Name: "linkguard", Commands: r.register()}
	return app.Run(context.Background(), append([]string{"linkguard"}, args...))
}

func login(t *testing.T, r *Runner) {
	t.Helper()
	if err := run(r, "auth", "login", "--email", tu.TestEmail, "--password", tu.TestPassword); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			db := openTestDB(t)

			runner := NewRunner(RunnerOpts{
				Config: config,
				Logger: logger,
				Output: output,
				DB:     db,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.history == nil {
				t.Error("expected upload history with a database")
			}
			if runner.client.BaseURL() != config.API.BaseURL {
				t.Errorf("expected base URL %s, got %s", config.API.BaseURL, runner.client.BaseURL())
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})

			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("without database keeps session in memory", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.history != nil {
				t.Error("expected no upload history without a database")
			}
			if runner.session == nil || runner.links == nil || runner.alerts == nil || runner.uploader == nil {
				t.Error("expected every component to be wired")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			err := runner.writeJSON(map[string]string{"key": "value"}, true)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("writes compact JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			expected := `{"key":"value"}` + "\n"
			if output.String() != expected {
				t.Errorf("expected %q, got %q", expected, output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil {
				t.Fatal("expected error for non-serializable data")
			}
			if !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil {
				t.Fatal("expected error writing newline")
			}
			if !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil {
				t.Fatal("expected error from failing writer")
			}
			if !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}

		for _, want := range []string{"setup", "auth", "links", "alerts", "analytics", "api", "tui"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("Login Persists Across Runners", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		db := openTestDB(t)

		first, out := newTestRunner(t, backend, db)
		login(t, first)
		if !strings.Contains(out.String(), "Signed in as Ada") {
			t.Errorf("expected sign-in notice, got %q", out.String())
		}

		second, out := newTestRunner(t, backend, db)
		if err := run(second, "auth", "whoami"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), tu.TestEmail) {
			t.Errorf("expected restored user, got %q", out.String())
		}
		if !strings.Contains(out.String(), "Saved:") {
			t.Errorf("expected credential timestamp, got %q", out.String())
		}
	})

	t.Run("Failed Relogin Keeps Stored Session", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		db := openTestDB(t)

		first, _ := newTestRunner(t, backend, db)
		login(t, first)

		second, _ := newTestRunner(t, backend, db)
		err := run(second, "auth", "login", "--email", tu.TestEmail, "--password", "typo")
		if !errors.Is(err, shared.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}

		third, out := newTestRunner(t, backend, db)
		if err := run(third, "auth", "whoami"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), tu.TestEmail) {
			t.Errorf("expected session to survive the failed login, got %q", out.String())
		}
	})

	t.Run("Forgot Password", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)

		if err := run(runner, "auth", "forgot-password", "--email", tu.TestEmail); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "reset link") {
			t.Errorf("expected reset notice, got %q", out.String())
		}
		if got := backend.ResetRequests(); len(got) != 1 || got[0] != tu.TestEmail {
			t.Errorf("expected one reset request, got %v", got)
		}

		err := run(runner, "auth", "forgot-password")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Wrong Password", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)

		err := run(runner, "auth", "login", "--email", tu.TestEmail, "--password", "nope")
		if err == nil {
			t.Fatal("expected login to fail")
		}
		if msg := shared.UserMessage(err); msg != "Invalid email or password" {
			t.Errorf("expected server message, got %q", msg)
		}
	})

	t.Run("Logout Clears Stored Token", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		db := openTestDB(t)

		first, _ := newTestRunner(t, backend, db)
		login(t, first)
		if err := run(first, "auth", "logout"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		second, out := newTestRunner(t, backend, db)
		if err := run(second, "auth", "whoami"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Not signed in") {
			t.Errorf("expected anonymous, got %q", out.String())
		}
	})

	t.Run("Profile Update", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)

		if err := run(runner, "auth", "profile", "--name", "Ada L"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Profile updated for Ada L") {
			t.Errorf("expected updated name, got %q", out.String())
		}
	})

	t.Run("Profile Needs A Field", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)

		err := run(runner, "auth", "profile")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestLinksCommands(t *testing.T) {
	t.Run("Requires Session Without Network", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)

		err := run(runner, "links", "ls")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
		if backend.TotalHits() != 0 {
			t.Errorf("expected no requests, got %d", backend.TotalHits())
		}
	})

	t.Run("Revoked Token", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		db := openTestDB(t)
		first, _ := newTestRunner(t, backend, db)
		login(t, first)

		backend.RevokeToken()
		second, _ := newTestRunner(t, backend, db)

		err := run(second, "links", "ls")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)
		out.Reset()

		if err := run(runner, "links", "ls"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		for _, want := range []string{"Camera", "Tripod", "Microphone", "3 links: 1 active, 1 warning, 1 broken"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected output to contain %q, got %q", want, out.String())
			}
		}
	})

	t.Run("List Filtered By Status", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)
		out.Reset()

		if err := run(runner, "links", "ls", "--status", "broken"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Microphone") || strings.Contains(out.String(), "Camera") {
			t.Errorf("expected only broken links, got %q", out.String())
		}
	})

	t.Run("Invalid Status", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)

		err := run(runner, "links", "ls", "--status", "gone")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Add And Edit", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)
		login(t, runner)

		if err := run(runner, "links", "add", "--url", "https://amzn.to/d", "--title", "Light"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got := len(backend.Links()); got != 4 {
			t.Fatalf("expected 4 links on the server, got %d", got)
		}

		if err := run(runner, "links", "edit", "--title", "Camera Body", "a"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		link, ok := runner.links.Get("a")
		if !ok || link.Title != "Camera Body" || link.URL != "https://amzn.to/a" {
			t.Errorf("expected title changed and url kept, got %+v", link)
		}
	})

	t.Run("Remove Many With One Rejected", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)
		backend.Fail("DELETE", "/links/b", 500)

		err := run(runner, "links", "rm", "a", "b", "c")

		var batchErr *store.BatchError
		if !errors.As(err, &batchErr) {
			t.Fatalf("expected BatchError, got %v", err)
		}
		if ids := batchErr.IDs(); len(ids) != 1 || ids[0] != "b" {
			t.Errorf("expected only b to fail, got %v", ids)
		}
		if !strings.Contains(out.String(), "✓ Deleted a") || !strings.Contains(out.String(), "✗ b") {
			t.Errorf("expected per-link outcome, got %q", out.String())
		}

		remaining := runner.links.Snapshot()
		if len(remaining) != 1 || remaining[0].ID != "b" {
			t.Errorf("expected only b cached, got %+v", remaining)
		}
	})

	t.Run("Upload Records History", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		db := openTestDB(t)
		runner, out := newTestRunner(t, backend, db)
		login(t, runner)

		backend.SetBulkResult(models.BulkUploadResult{
			Success: 2,
			Failed:  1,
			Details: models.BulkUploadDetails{Failed: []models.FailedRow{{Row: 0, Error: "invalid url"}}},
		},
			models.Link{ID: "d", URL: "https://amzn.to/d", Title: "Light", Status: models.LinkActive},
			models.Link{ID: "e", URL: "https://amzn.to/e", Title: "Stand", Status: models.LinkActive},
		)

		path := tu.MustWriteFile(t, t.TempDir(), "links.csv", "url,title\nhttps://amzn.to/d,Light\nhttps://amzn.to/e,Stand\nbad,Broken\n")
		out.Reset()

		if err := run(runner, "links", "upload", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Row 0: invalid url") {
			t.Errorf("expected failed row in report, got %q", out.String())
		}
		if len(runner.links.Snapshot()) != 5 {
			t.Errorf("expected 5 cached links, got %d", len(runner.links.Snapshot()))
		}

		out.Reset()
		if err := run(runner, "links", "uploads"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "links.csv") {
			t.Errorf("expected upload history entry, got %q", out.String())
		}
	})

	t.Run("Upload Rejects Non CSV", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)
		login(t, runner)

		path := tu.MustWriteFile(t, t.TempDir(), "links.png", "\x89PNG\r\n\x1a\n")
		err := run(runner, "links", "upload", path)
		if !errors.Is(err, shared.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if backend.Hits("POST", "/links/bulk-upload") != 0 {
			t.Error("expected no upload request")
		}
	})

	t.Run("Uploads Without Database", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)

		err := run(runner, "links", "uploads")
		if !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("Export", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)
		login(t, runner)
		dir := t.TempDir()

		csvPath := filepath.Join(dir, "links.csv")
		if err := run(runner, "links", "export", "--format", "csv", "-o", csvPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if content := tu.MustReadFile(t, csvPath); !strings.HasPrefix(content, "url,title") {
			t.Errorf("expected server CSV, got %q", content)
		}

		mdPath := filepath.Join(dir, "links.md")
		if err := run(runner, "links", "export", "--format", "markdown", "-o", mdPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		tu.AssertFileExists(t, mdPath)
		if content := tu.MustReadFile(t, mdPath); !strings.Contains(content, "Camera") {
			t.Errorf("expected rendered links, got %q", content)
		}
	})

	t.Run("Export Unknown Format", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)

		err := run(runner, "links", "export", "--format", "xml")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("Fix Picks Most Confident Suggestion", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)
		login(t, runner)
		backend.SetSuggestions([]models.Suggestion{
			{ID: "s1", URL: "https://amzn.to/low", Title: "Low", Confidence: 0.2},
			{ID: "s2", URL: "https://amzn.to/high", Title: "High", Confidence: 0.9},
		})

		if err := run(runner, "links", "fix", "c"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		link, _ := runner.links.Get("c")
		if link.URL != "https://amzn.to/high" {
			t.Errorf("expected most confident replacement, got %s", link.URL)
		}
	})
}

func TestAlertsCommands(t *testing.T) {
	t.Run("Read All Twice", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)
		login(t, runner)

		for range 2 {
			if err := run(runner, "alerts", "read-all"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}

		for _, a := range backend.Alerts() {
			if !a.Read {
				t.Errorf("expected alert %s to be read", a.ID)
			}
		}
		if hits := backend.Hits("PUT", "/alerts/read-all"); hits != 1 {
			t.Errorf("expected 1 read-all request, got %d", hits)
		}
	})

	t.Run("List Unread", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)
		out.Reset()

		if err := run(runner, "alerts", "ls", "--unread"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Contains(out.String(), "Weekly report ready") {
			t.Errorf("expected read alert to be hidden, got %q", out.String())
		}
		if !strings.Contains(out.String(), "2 unread of 3") {
			t.Errorf("expected unread summary, got %q", out.String())
		}
	})

	t.Run("Settings Toggle", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)
		login(t, runner)

		if err := run(runner, "alerts", "settings", "--enable", "priceChanges", "--disable", "emailNotifications"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		s := backend.Settings()
		if !s.PriceChanges || s.EmailNotifications || !s.BrokenLinks {
			t.Errorf("expected full settings object with toggles applied, got %+v", s)
		}
	})

	t.Run("Settings Unknown Name", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)
		login(t, runner)

		err := run(runner, "alerts", "settings", "--enable", "sms")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if backend.Hits("PUT", "/alerts/settings") != 0 {
			t.Error("expected no settings update")
		}
	})
}

func TestAnalyticsCommands(t *testing.T) {
	t.Run("Dashboard", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)
		out.Reset()

		if err := run(runner, "analytics", "dashboard"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), "Total links:    3") {
			t.Errorf("expected dashboard counts, got %q", out.String())
		}
	})

	t.Run("Overview With One Failing Endpoint", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)
		backend.Fail("GET", "/analytics/revenue-impact", 500)
		out.Reset()

		if err := run(runner, "analytics", "overview"); err != nil {
			t.Fatalf("expected partial overview without error, got %v", err)
		}
		if !strings.Contains(out.String(), "✗ /analytics/revenue-impact") {
			t.Errorf("expected failed endpoint listed, got %q", out.String())
		}
		if !strings.Contains(out.String(), "Link Health") {
			t.Errorf("expected dashboard section, got %q", out.String())
		}
	})
}

func TestAPICommands(t *testing.T) {
	t.Run("Get", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, out := newTestRunner(t, backend, nil)
		login(t, runner)
		out.Reset()

		if err := run(runner, "api", "get", "/links"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(out.String(), `"title": "Camera"`) {
			t.Errorf("expected pretty JSON body, got %q", out.String())
		}
	})

	t.Run("Post Rejects Invalid JSON", func(t *testing.T) {
		backend := tu.NewFakeBackend(t)
		runner, _ := newTestRunner(t, backend, nil)

		err := run(runner, "api", "post", "-d", "{not json", "/links")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}
