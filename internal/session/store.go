// Package session owns who is logged in and the bearer credential used to
// authorize task operations.
//
// A Store is either fully authenticated (identity and credential present) or
// fully anonymous. Every transition happens under one lock, together with the
// write to durable storage and the publication to subscribers, so observers
// never see a partial state.
//
// Requests run without the lock held. Each Store keeps an epoch that moves on
// every transition; a response is applied only if the epoch it started under
// is still current. A logout therefore makes every in-flight response inert.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"tasktrack/internal/credential"
	"tasktrack/internal/logging"
	"tasktrack/internal/observe"
	"tasktrack/internal/service"
)

var (
	// ErrNotAuthenticated is returned by Token when nobody is logged in.
	ErrNotAuthenticated = errors.New("not logged in")

	// ErrExpired is returned by Token when the credential has expired.
	ErrExpired = errors.New("credential expired")

	// ErrSuperseded is returned when the session changed (logout or a newer
	// login) while the request was in flight. The response was discarded.
	ErrSuperseded = errors.New("session changed while request was in flight")
)

// TaskCache is the part of the task cache the session drives.
type TaskCache interface {
	Hydrate(ctx context.Context, userID string) ([]service.Task, error)
	Reset()
}

// Options configures a Store.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// Log receives session events. Nil disables logging.
	Log *zap.Logger
}

// Store is the session store.
type Store struct {
	auth  service.AuthService
	creds credential.Store
	tasks TaskCache
	now   func() time.Time
	log   *zap.Logger

	mu           sync.Mutex
	epoch        uint64
	identity     *service.User
	token        string
	expiresAt    time.Time
	pendingEmail string

	current *observe.Value[*service.User]
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	Identity     *service.User
	HasToken     bool
	PendingEmail string
}

// New creates an anonymous Store. Attach must be called before the store
// authenticates anyone.
func New(auth service.AuthService, creds credential.Store, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		auth:    auth,
		creds:   creds,
		now:     now,
		log:     logging.OrNop(opts.Log),
		current: observe.New[*service.User](nil, copyUser),
	}
}

// Attach sets the task cache hydrated on login and reset on logout.
func (s *Store) Attach(tasks TaskCache) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
}

func copyUser(u *service.User) *service.User {
	if u == nil {
		return nil
	}
	cp := *u
	return &cp
}

// CheckIdentity logs in with email as the account key.
//
// exists is true when the account was found; the session is then
// authenticated and the task cache hydrated. Any other outcome of the lookup,
// a missing account or a failed request alike, leaves the session fully
// anonymous with PendingEmail set to email so registration can reuse it;
// this is not an error.
func (s *Store) CheckIdentity(ctx context.Context, email string) (exists bool, err error) {
	return s.checkIdentity(ctx, email, false)
}

// checkIdentity runs the lookup. With keepOnFailure set, a failed request
// other than not-found is returned and leaves identity and durable storage
// untouched; Resume uses this so a network failure at start does not discard
// the stored credential.
func (s *Store) checkIdentity(ctx context.Context, email string, keepOnFailure bool) (bool, error) {
	email, err := NormalizeEmail(email)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	s.pendingEmail = email
	s.mu.Unlock()

	res, err := s.auth.Login(ctx, email)
	if err != nil {
		if keepOnFailure && !errors.Is(err, service.ErrNotFound) {
			s.log.Debug("login failed", zap.String("user_id", email), zap.Error(err))
			return false, err
		}
		if !s.becomeAnonymous(epoch, email) {
			return false, ErrSuperseded
		}
		s.log.Debug("account not found", zap.String("user_id", email), zap.Error(err))
		return false, nil
	}

	if err := s.authenticate(ctx, epoch, res); err != nil {
		return false, err
	}
	return true, nil
}

// CreateIdentity registers a new account and signs it in. An empty
// profile.UserID defaults to PendingEmail. On failure the session is not
// modified.
func (s *Store) CreateIdentity(ctx context.Context, profile service.NewUser) (service.User, error) {
	s.mu.Lock()
	epoch := s.epoch
	if strings.TrimSpace(profile.UserID) == "" {
		profile.UserID = s.pendingEmail
	}
	s.mu.Unlock()

	email, err := NormalizeEmail(profile.UserID)
	if err != nil {
		return service.User{}, err
	}
	profile.UserID = email
	profile.Name = strings.TrimSpace(profile.Name)
	profile.LastName = strings.TrimSpace(profile.LastName)
	if profile.Name == "" || profile.LastName == "" {
		return service.User{}, ErrMissingName
	}
	if err := ValidateBirthDate(profile.DateOfBirth, s.now()); err != nil {
		return service.User{}, err
	}

	res, err := s.auth.CreateUser(ctx, profile)
	if err != nil {
		s.log.Debug("registration failed", zap.String("user_id", email), zap.Error(err))
		return service.User{}, err
	}

	if err := s.authenticate(ctx, epoch, res); err != nil {
		return service.User{}, err
	}
	return res.User, nil
}

// authenticate installs a login or registration result if epoch is still
// current, then hydrates the task cache for the new identity.
func (s *Store) authenticate(ctx context.Context, epoch uint64, res service.AuthResult) error {
	if res.Token == "" || res.User.UserID == "" {
		return errors.New("invalid auth response: missing token or user")
	}
	expiresAt := expiryFor(res.ExpiresIn, res.Token, s.now())
	user := res.User

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.log.Debug("discarding stale auth response", zap.String("user_id", user.UserID))
		return ErrSuperseded
	}
	s.epoch++
	previous := ""
	if s.identity != nil {
		previous = s.identity.UserID
	}
	s.identity = &user
	s.token = res.Token
	s.expiresAt = expiresAt
	s.pendingEmail = ""
	saveErr := s.creds.Save(credential.Credential{
		Token:     res.Token,
		UserID:    user.UserID,
		ExpiresAt: expiresAt,
	})
	s.current.Set(&user)
	tasks := s.tasks
	s.mu.Unlock()

	if saveErr != nil {
		// The session still works for this process; it just won't survive a restart.
		s.log.Warn("failed to persist credential", zap.Error(saveErr))
	}
	s.log.Debug("authenticated", zap.String("user_id", user.UserID))

	if tasks == nil {
		return nil
	}
	if previous != user.UserID {
		tasks.Reset()
	}
	if _, err := tasks.Hydrate(ctx, user.UserID); err != nil {
		s.log.Warn("failed to load tasks", zap.String("user_id", user.UserID), zap.Error(err))
	}
	return nil
}

// becomeAnonymous drops any identity and credential, keeping pending as the
// pending email. Reports false if epoch is no longer current.
func (s *Store) becomeAnonymous(epoch uint64, pending string) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	hadIdentity := s.identity != nil
	s.epoch++
	s.identity = nil
	s.token = ""
	s.expiresAt = time.Time{}
	s.pendingEmail = pending
	if err := s.creds.Clear(); err != nil {
		s.log.Warn("failed to clear stored credential", zap.Error(err))
	}
	if hadIdentity {
		s.current.Set(nil)
	}
	tasks := s.tasks
	s.mu.Unlock()

	if tasks != nil {
		tasks.Reset()
	}
	return true
}

// Logout returns the session to its initial anonymous state: identity,
// pending email and credential are cleared from memory and durable storage,
// and the task cache is reset. In-memory state is always cleared; the error
// reports only a failure to clear durable storage.
func (s *Store) Logout() error {
	s.mu.Lock()
	s.epoch++
	user := ""
	if s.identity != nil {
		user = s.identity.UserID
	}
	s.identity = nil
	s.token = ""
	s.expiresAt = time.Time{}
	s.pendingEmail = ""
	clearErr := s.creds.Clear()
	s.current.Set(nil)
	tasks := s.tasks
	s.mu.Unlock()

	if tasks != nil {
		tasks.Reset()
	}
	s.log.Debug("logged out", zap.String("user_id", user))

	if clearErr != nil {
		return fmt.Errorf("failed to remove stored credential: %w", clearErr)
	}
	return nil
}

// Resume restores a persisted credential at process start by logging in
// again with its account key. Expired, corrupt or unknown-account credentials
// are cleared; a failed request is returned and the credential kept for the
// next attempt. Reports whether the session is now authenticated.
func (s *Store) Resume(ctx context.Context) (bool, error) {
	cred, ok, err := s.creds.Load()
	if errors.Is(err, credential.ErrCorrupt) {
		s.log.Warn("discarding corrupt stored credential")
		return false, s.creds.Clear()
	}
	if err != nil || !ok {
		return false, err
	}
	if cred.Expired(s.now()) || cred.UserID == "" {
		s.log.Debug("discarding expired stored credential", zap.String("user_id", cred.UserID))
		return false, s.creds.Clear()
	}

	exists, err := s.checkIdentity(ctx, cred.UserID, true)
	if !exists {
		s.mu.Lock()
		if s.pendingEmail == cred.UserID {
			s.pendingEmail = ""
		}
		s.mu.Unlock()
	}
	return exists, err
}

// Current returns the logged-in user, if any.
func (s *Store) Current() (service.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return service.User{}, false
	}
	return *s.identity, true
}

// Subscribe observes the logged-in user. The channel yields the current
// value at once and the latest value after every change; nil means nobody is
// logged in.
func (s *Store) Subscribe() (<-chan *service.User, func()) {
	return s.current.Subscribe()
}

// UserID returns the account key of the logged-in user.
func (s *Store) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return "", false
	}
	return s.identity.UserID, true
}

// PendingEmail returns the email awaiting registration, if any.
func (s *Store) PendingEmail() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingEmail
}

// Snapshot returns a copy of the whole session state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Identity:     copyUser(s.identity),
		HasToken:     s.token != "",
		PendingEmail: s.pendingEmail,
	}
}

// Token implements oauth2.TokenSource. The store is the sole owner of the
// credential; HTTP transports read it through this method.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == "" {
		return nil, ErrNotAuthenticated
	}
	if !s.expiresAt.IsZero() && !s.now().Before(s.expiresAt) {
		return nil, ErrExpired
	}
	return &oauth2.Token{
		AccessToken: s.token,
		TokenType:   "Bearer",
		Expiry:      s.expiresAt,
	}, nil
}
