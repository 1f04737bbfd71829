package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/linkguard/internal/models"
	"github.com/desertthunder/linkguard/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

type Status int

const (
	StatusRestoring Status = iota
	StatusAnonymous
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusRestoring:
		return "restoring"
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Reason explains a transition.
type Reason int

const (
	ReasonRestore Reason = iota
	ReasonLogin
	ReasonSignup
	ReasonLogout
	ReasonExpired
)

func (r Reason) String() string {
	switch r {
	case ReasonRestore:
		return "restore"
	case ReasonLogin:
		return "login"
	case ReasonSignup:
		return "signup"
	case ReasonLogout:
		return "logout"
	case ReasonExpired:
		return "expired"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Event describes one session transition.
type Event struct {
	From   Status
	To     Status
	Reason Reason
	User   *models.User // nil unless To is authenticated
}

// AuthClient is the auth boundary used by [Manager]. Implemented by services.Client.
type AuthClient interface {
	Login(ctx context.Context, creds models.Credentials) (*models.AuthResponse, error)
	Signup(ctx context.Context, req models.SignupRequest) (*models.AuthResponse, error)
	Me(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error)
}

// Manager is the session state machine. It is safe for concurrent use; its lock is never held across a
// network call.
type Manager struct {
	client AuthClient
	store  CredentialStore
	logger *log.Logger

	restoreOnce sync.Once

	mu        sync.Mutex
	status    Status
	token     *oauth2.Token
	user      *models.User
	epoch     uint64
	listeners []func(Event)
}

// NewManager creates a manager in [StatusRestoring].
func NewManager(client AuthClient, store CredentialStore, logger *log.Logger) *Manager {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Manager{
		client: client,
		store:  store,
		logger: shared.WithLogger(logger, "component", "session"),
		status: StatusRestoring,
	}
}

// Subscribe registers fn to receive every transition. fn runs on the goroutine that caused the transition.
func (m *Manager) Subscribe(fn func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// User returns a copy of the current profile snapshot, or nil when not authenticated.
func (m *Manager) User() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

// Token returns the current credential, or nil.
func (m *Manager) Token() *oauth2.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == nil {
		return nil
	}
	t := *m.token
	return &t
}

// Restore resolves the initial state from the persisted credential. Only the first call does any work; later
// calls return the current status.
//
// An absent or already-expired credential resolves to anonymous without a network call. Otherwise the profile is
// fetched; any failure clears the credential.
func (m *Manager) Restore(ctx context.Context) Status {
	m.restoreOnce.Do(func() { m.restore(ctx) })
	return m.Status()
}

func (m *Manager) restore(ctx context.Context) {
	raw, err := m.store.Load(ctx)
	if err != nil {
		m.logger.Warn("failed to read stored credential", "err", err)
		raw = ""
	}

	m.mu.Lock()
	epoch := m.epoch
	if raw == "" {
		m.mu.Unlock()
		m.resolve(ctx, epoch, nil, nil, false)
		return
	}

	tok := tokenFrom(raw)
	if !tok.Valid() {
		m.mu.Unlock()
		m.logger.Info("stored credential has expired")
		m.resolve(ctx, epoch, nil, nil, true)
		return
	}
	m.token = tok
	m.mu.Unlock()

	user, err := m.client.Me(ctx)
	if err != nil {
		m.logger.Info("stored credential rejected", "err", err)
		m.resolve(ctx, epoch, nil, nil, true)
		return
	}
	m.resolve(ctx, epoch, tok, user, false)
}

// resolve finishes a restore unless another transition happened first.
func (m *Manager) resolve(ctx context.Context, epoch uint64, tok *oauth2.Token, user *models.User, clear bool) {
	m.mu.Lock()
	if m.epoch != epoch || m.status != StatusRestoring {
		m.mu.Unlock()
		m.logger.Debug("dropping stale restore result")
		return
	}

	if clear {
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear stored credential", "err", err)
		}
	}

	ev := m.transition(tok, user, ReasonRestore)
	listeners := m.listeners
	m.mu.Unlock()

	m.emit(listeners, ev)
}

// Login authenticates with email and password. Failures are returned as values and leave the state unchanged;
// [shared.UserMessage] gives the displayable text.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	epoch := m.currentEpoch()
	resp, err := m.client.Login(ctx, models.Credentials{Email: email, Password: password})
	if err != nil {
		m.logger.Debug("login failed", "email", email, "err", err)
		return err
	}
	return m.establish(ctx, epoch, resp, ReasonLogin)
}

// Signup creates an account and authenticates with it. Same contract as [Manager.Login].
func (m *Manager) Signup(ctx context.Context, req models.SignupRequest) error {
	epoch := m.currentEpoch()
	resp, err := m.client.Signup(ctx, req)
	if err != nil {
		m.logger.Debug("signup failed", "email", req.Email, "err", err)
		return err
	}
	return m.establish(ctx, epoch, resp, ReasonSignup)
}

func (m *Manager) establish(ctx context.Context, epoch uint64, resp *models.AuthResponse, reason Reason) error {
	if resp.Token == "" {
		return fmt.Errorf("%w: response carried no token", shared.NewAPIError(0, "", "Login failed"))
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		return shared.ErrStaleResponse
	}

	if err := m.store.Save(ctx, resp.Token); err != nil {
		m.logger.Warn("credential not persisted; session lasts until exit", "err", err)
	}

	user := resp.User
	ev := m.transition(tokenFrom(resp.Token), &user, reason)
	listeners := m.listeners
	m.mu.Unlock()

	m.logger.Info("authenticated", "user", user.ID, "reason", reason)
	m.emit(listeners, ev)
	return nil
}

// Logout clears the credential and user unconditionally. Calling it while anonymous only re-clears the store.
func (m *Manager) Logout(ctx context.Context) {
	m.end(ctx, ReasonLogout, "")
}

// ForceExpire ends the session because the backend rejected it. It is a no-op when already anonymous.
func (m *Manager) ForceExpire(ctx context.Context) {
	m.end(ctx, ReasonExpired, "")
}

// ExpireCredential forces expiry only if accessToken is still the active credential, so a late 401 from a
// previous session cannot end the current one.
func (m *Manager) ExpireCredential(ctx context.Context, accessToken string) {
	m.end(ctx, ReasonExpired, accessToken)
}

func (m *Manager) end(ctx context.Context, reason Reason, onlyToken string) {
	m.mu.Lock()
	if onlyToken != "" && (m.token == nil || m.token.AccessToken != onlyToken) {
		m.mu.Unlock()
		m.logger.Debug("ignoring expiry for inactive credential")
		return
	}

	if m.status == StatusAnonymous {
		if reason != ReasonLogout {
			m.mu.Unlock()
			return
		}
		// An explicit logout still invalidates any login in flight.
		m.epoch++
		m.mu.Unlock()
		if err := m.store.Clear(ctx); err != nil {
			m.logger.Warn("failed to clear stored credential", "err", err)
		}
		return
	}

	if err := m.store.Clear(ctx); err != nil {
		m.logger.Warn("failed to clear stored credential", "err", err)
	}
	ev := m.transition(nil, nil, reason)
	listeners := m.listeners
	m.mu.Unlock()

	m.logger.Info("session ended", "reason", reason)
	m.emit(listeners, ev)
}

// UpdateProfile merges fields into the cached user without a network call.
func (m *Manager) UpdateProfile(update models.ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, shared.ErrNotAuthenticated
	}
	merged := m.user.Merge(update)
	m.user = &merged
	u := merged
	return &u, nil
}

// SaveProfile sends the update to the backend and, on success, merges it locally.
func (m *Manager) SaveProfile(ctx context.Context, update models.ProfileUpdate) (*models.User, error) {
	if m.Status() != StatusAuthenticated {
		return nil, shared.ErrNotAuthenticated
	}

	epoch := m.currentEpoch()
	if _, err := m.client.UpdateProfile(ctx, update); err != nil {
		return nil, err
	}
	if m.currentEpoch() != epoch {
		return nil, shared.ErrStaleResponse
	}
	return m.UpdateProfile(update)
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// transition must be called with mu held.
func (m *Manager) transition(tok *oauth2.Token, user *models.User, reason Reason) Event {
	from := m.status
	m.epoch++
	m.token = tok
	m.user = user
	m.status = StatusAnonymous
	if user != nil {
		m.status = StatusAuthenticated
	}

	ev := Event{From: from, To: m.status, Reason: reason}
	if user != nil {
		u := *user
		ev.User = &u
	}
	return ev
}

func (m *Manager) emit(listeners []func(Event), ev Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}

// tokenFrom wraps a raw bearer token, taking its expiry from an unverified JWT exp claim when present.
func tokenFrom(raw string) *oauth2.Token {
	tok := &oauth2.Token{AccessToken: raw, TokenType: "Bearer"}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err == nil && claims.ExpiresAt != nil {
		tok.Expiry = claims.ExpiresAt.Time
	}
	return tok
}
