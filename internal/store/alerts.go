package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
)

// AlertClient is the backend surface used by [AlertStore]. Implemented by services.Client.
type AlertClient interface {
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	MarkAlertRead(ctx context.Context, id string) error
	MarkAllAlertsRead(ctx context.Context) error
	DeleteAlert(ctx context.Context, id string) error
	AlertSettings(ctx context.Context) (*models.AlertSettings, error)
	UpdateAlertSettings(ctx context.Context, s models.AlertSettings) (*models.AlertSettings, error)
}

// AlertStore caches alerts and the alert settings singleton.
type AlertStore struct {
	client AlertClient
	logger *log.Logger

	mu          sync.Mutex
	alerts      []models.Alert
	settings    models.AlertSettings
	hasSettings bool
}

func NewAlertStore(client AlertClient, logger *log.Logger) *AlertStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &AlertStore{client: client, logger: shared.WithLogger(logger, "component", "alerts")}
}

// Load replaces the cache with the server's alerts. On failure the previous cache stays.
func (s *AlertStore) Load(ctx context.Context) error {
	alerts, err := s.client.ListAlerts(ctx)
	if err != nil {
		s.logger.Warn("keeping cached alerts", "err", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
	return nil
}

func (s *AlertStore) index(id string) int {
	return slices.IndexFunc(s.alerts, func(a models.Alert) bool { return a.ID == id })
}

// setRead flips the read flag on ids. Must be called with mu held.
func (s *AlertStore) setRead(ids []string, read bool) {
	for _, id := range ids {
		if i := s.index(id); i >= 0 {
			s.alerts[i].Read = read
		}
	}
}

// MarkRead flips id to read locally, then confirms with the server. A refusal flips it back.
func (s *AlertStore) MarkRead(ctx context.Context, id string) error {
	commit, err := s.BeginMarkRead(id)
	if err != nil {
		return err
	}
	return commit(ctx)
}

// BeginMarkRead flips id to read in the cache and returns the server step. Marking a read alert again is a
// no-op that makes no request.
func (s *AlertStore) BeginMarkRead(id string) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: alert %s", shared.ErrNotFound, id)
	}
	if s.alerts[i].Read {
		return noCommit, nil
	}
	s.alerts[i].Read = true

	return func(ctx context.Context) error {
		if err := s.client.MarkAlertRead(ctx, id); err != nil {
			s.mu.Lock()
			s.setRead([]string{id}, false)
			s.mu.Unlock()
			return err
		}
		return nil
	}, nil
}

// MarkAllRead flips every unread alert and confirms with one call. With nothing unread no request is made. The
// backend reports a single outcome, so a failure rolls back every alert this call flipped.
func (s *AlertStore) MarkAllRead(ctx context.Context) error {
	return s.BeginMarkAllRead()(ctx)
}

// BeginMarkAllRead flips every unread alert in the cache and returns the server step of [AlertStore.MarkAllRead].
func (s *AlertStore) BeginMarkAllRead() Commit {
	s.mu.Lock()
	defer s.mu.Unlock()
	var flipped []string
	for i := range s.alerts {
		if !s.alerts[i].Read {
			s.alerts[i].Read = true
			flipped = append(flipped, s.alerts[i].ID)
		}
	}
	if len(flipped) == 0 {
		return noCommit
	}

	return func(ctx context.Context) error {
		if err := s.client.MarkAllAlertsRead(ctx); err != nil {
			s.mu.Lock()
			s.setRead(flipped, false)
			s.mu.Unlock()
			s.logger.Warn("rolled back mark-all-read", "count", len(flipped), "err", err)
			return err
		}
		return nil
	}
}

// Remove deletes id locally first and re-inserts it at its position if the server refuses.
func (s *AlertStore) Remove(ctx context.Context, id string) error {
	commit, err := s.BeginRemove(id)
	if err != nil {
		return err
	}
	return commit(ctx)
}

// BeginRemove drops id from the cache and returns the server step of [AlertStore.Remove].
func (s *AlertStore) BeginRemove(id string) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: alert %s", shared.ErrNotFound, id)
	}
	removed := s.alerts[i]
	s.alerts = slices.Delete(s.alerts, i, i+1)

	return func(ctx context.Context) error {
		if err := s.client.DeleteAlert(ctx, id); err != nil {
			s.mu.Lock()
			if s.index(id) < 0 {
				s.alerts = slices.Insert(s.alerts, min(i, len(s.alerts)), removed)
			}
			s.mu.Unlock()
			return err
		}
		return nil
	}, nil
}

func noCommit(context.Context) error { return nil }

// Unread counts cached alerts not yet read.
func (s *AlertStore) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.alerts {
		if !a.Read {
			n++
		}
	}
	return n
}

func (s *AlertStore) Snapshot() []models.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.alerts)
}

// LoadSettings fetches the settings singleton. On failure the previous settings stay.
func (s *AlertStore) LoadSettings(ctx context.Context) (models.AlertSettings, error) {
	settings, err := s.client.AlertSettings(ctx)
	if err != nil {
		cur, _ := s.Settings()
		return cur, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings, s.hasSettings = *settings, true
	return s.settings, nil
}

// SaveSettings sends the complete settings object. The previous settings stay active unless the server accepts.
func (s *AlertStore) SaveSettings(ctx context.Context, next models.AlertSettings) (models.AlertSettings, error) {
	saved, err := s.client.UpdateAlertSettings(ctx, next)
	if err != nil {
		cur, _ := s.Settings()
		return cur, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings, s.hasSettings = *saved, true
	return s.settings, nil
}

// Settings returns the active settings and whether they have been loaded.
func (s *AlertStore) Settings() (models.AlertSettings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, s.hasSettings
}
