package store

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	"golang.org/x/time/rate"
)

// LinkClient is the backend surface used by [LinkStore]. Implemented by services.Client.
type LinkClient interface {
	ListLinks(ctx context.Context) ([]models.Link, error)
	GetLink(ctx context.Context, id string) (*models.Link, error)
	CreateLink(ctx context.Context, in models.LinkInput) (*models.Link, error)
	UpdateLink(ctx context.Context, id string, in models.LinkInput) (*models.Link, error)
	DeleteLink(ctx context.Context, id string) error
	CheckLink(ctx context.Context, id string) error
	CheckAllLinks(ctx context.Context) error
	AutoFix(ctx context.Context, linkID, suggestionID string) (*models.Link, error)
}

// LinkStoreOpts configures the delete fan-out of [LinkStore.RemoveMany].
type LinkStoreOpts struct {
	Workers int     // concurrent deletes (default: 4, max: 10)
	Rate    float64 // deletes per second, <= 0 for unlimited
	Logger  *log.Logger
}

// LinkStore caches the account's links.
type LinkStore struct {
	client  LinkClient
	logger  *log.Logger
	workers int
	limiter *rate.Limiter

	mu      sync.Mutex
	links   []models.Link
	loaded  bool
	pending map[string]int // ids with an optimistic removal in flight
}

func NewLinkStore(client LinkClient, opts LinkStoreOpts) *LinkStore {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if opts.Workers > 10 {
		opts.Workers = 10
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}

	return &LinkStore{
		client:  client,
		logger:  shared.WithLogger(opts.Logger, "component", "links"),
		workers: opts.Workers,
		limiter: rate.NewLimiter(limit, 1),
		pending: map[string]int{},
	}
}

// Load replaces the cache with the server's collection. On failure the previous cache stays. Records that
// fail [models.Link.Validate] are skipped.
func (s *LinkStore) Load(ctx context.Context) error {
	links, err := s.client.ListLinks(ctx)
	if err != nil {
		s.logger.Warn("keeping cached links", "err", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.links = slices.DeleteFunc(links, func(l models.Link) bool {
		if err := l.Validate(); err != nil {
			s.logger.Warn("skipping link", "err", err)
			return true
		}
		return s.pending[l.ID] > 0
	})
	s.loaded = true
	s.logger.Debug("links loaded", "count", len(s.links))
	return nil
}

// Loaded reports whether a Load has ever succeeded.
func (s *LinkStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Fetch loads a single link from the server and caches it.
func (s *LinkStore) Fetch(ctx context.Context, id string) (models.Link, error) {
	link, err := s.client.GetLink(ctx, id)
	if err != nil {
		return models.Link{}, err
	}
	if err := link.Validate(); err != nil {
		return models.Link{}, fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending[id] > 0 {
		return models.Link{}, fmt.Errorf("%w: link %s is being removed", shared.ErrNotFound, id)
	}
	s.upsert(*link)
	return *link, nil
}

// CheckOne asks the server to re-check id, then reloads.
func (s *LinkStore) CheckOne(ctx context.Context, id string) error {
	if err := s.client.CheckLink(ctx, id); err != nil {
		return err
	}
	return s.Load(ctx)
}

// CheckAll asks the server to re-check every link, then reloads.
func (s *LinkStore) CheckAll(ctx context.Context) error {
	if err := s.client.CheckAllLinks(ctx); err != nil {
		return err
	}
	return s.Load(ctx)
}

// Add creates a link and caches the server's record.
func (s *LinkStore) Add(ctx context.Context, in models.LinkInput) (*models.Link, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	link, err := s.client.CreateLink(ctx, in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(*link)
	return link, nil
}

// Update edits a link and caches the server's record.
func (s *LinkStore) Update(ctx context.Context, id string, in models.LinkInput) (*models.Link, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	link, err := s.client.UpdateLink(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(*link)
	return link, nil
}

// Fix applies a replacement suggestion and caches the updated link.
func (s *LinkStore) Fix(ctx context.Context, id, suggestionID string) (*models.Link, error) {
	link, err := s.client.AutoFix(ctx, id, suggestionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(*link)
	return link, nil
}

// upsert must be called with mu held.
func (s *LinkStore) upsert(l models.Link) {
	if i := s.index(l.ID); i >= 0 {
		s.links[i] = l
		return
	}
	s.links = append(s.links, l)
}

func (s *LinkStore) index(id string) int {
	return slices.IndexFunc(s.links, func(l models.Link) bool { return l.ID == id })
}

// Commit sends an optimistic change to the server. A refused change is rolled back in the cache.
type Commit func(ctx context.Context) error

// Remove deletes id from the cache immediately, then from the server. If the server refuses, the link is
// re-inserted at its original position.
func (s *LinkStore) Remove(ctx context.Context, id string) error {
	commit, err := s.BeginRemove(id)
	if err != nil {
		return err
	}
	return commit(ctx)
}

// BeginRemove drops id from the cache and returns the server step of [LinkStore.Remove].
func (s *LinkStore) BeginRemove(id string) (Commit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: link %s", shared.ErrNotFound, id)
	}
	removed := s.links[i]
	s.links = slices.Delete(s.links, i, i+1)
	s.pending[id]++

	return func(ctx context.Context) error {
		err := s.client.DeleteLink(ctx, id)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.pending[id]--; s.pending[id] <= 0 {
			delete(s.pending, id)
		}
		if err != nil {
			if s.index(id) < 0 {
				s.links = slices.Insert(s.links, min(i, len(s.links)), removed)
			}
			s.logger.Warn("restored link after failed delete", "id", id, "err", err)
			return err
		}
		return nil
	}, nil
}

// RemoveMany issues one delete per id through a paced worker pool and waits for every outcome. The cache drops
// exactly the ids the server confirmed; a *[BatchError] names the rest.
func (s *LinkStore) RemoveMany(ctx context.Context, ids []string) (*BatchResult, error) {
	ids = dedupe(ids)
	result := &BatchResult{Failed: map[string]error{}}
	if len(ids) == 0 {
		return result, nil
	}

	type outcome struct {
		id  string
		err error
	}

	jobs := make(chan string, len(ids))
	outcomes := make(chan outcome, len(ids))

	var wg sync.WaitGroup
	for range min(s.workers, len(ids)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if err := s.limiter.Wait(ctx); err != nil {
					outcomes <- outcome{id, err}
					continue
				}
				outcomes <- outcome{id, s.client.DeleteLink(ctx, id)}
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	confirmed := map[string]bool{}
	for o := range outcomes {
		if o.err != nil {
			result.Failed[o.id] = o.err
			continue
		}
		confirmed[o.id] = true
	}

	for _, id := range ids {
		if confirmed[id] {
			result.Confirmed = append(result.Confirmed, id)
		}
	}

	s.mu.Lock()
	s.links = slices.DeleteFunc(s.links, func(l models.Link) bool { return confirmed[l.ID] })
	s.mu.Unlock()

	s.logger.Info("bulk delete finished", "confirmed", len(result.Confirmed), "failed", len(result.Failed))

	if len(result.Failed) > 0 {
		return result, &BatchError{Total: len(ids), Failed: result.Failed}
	}
	return result, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// Snapshot returns a copy of the cache.
func (s *LinkStore) Snapshot() []models.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.links)
}

func (s *LinkStore) Get(id string) (models.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.index(id); i >= 0 {
		return s.links[i], true
	}
	return models.Link{}, false
}

// Filter returns cached links matching query (title, url or page, case-insensitive) and status ("" for all).
func (s *LinkStore) Filter(query string, status models.LinkStatus) []models.Link {
	query = strings.TrimSpace(query)

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Link
	for _, l := range s.links {
		if status != "" && l.Status != status {
			continue
		}
		if !l.Matches(query) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Counts tallies cached links by status.
func (s *LinkStore) Counts() map[models.LinkStatus]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.LinkStatus]int, len(models.LinkStatuses))
	for _, st := range models.LinkStatuses {
		counts[st] = 0
	}
	for _, l := range s.links {
		counts[l.Status]++
	}
	return counts
}
