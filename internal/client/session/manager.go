// Package session owns the CLI's signed-in state. The state is loaded once
// from the local store, changed only by SignIn, SignOut and token rotation,
// and read through UserID.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/wordbook/internal/client/api"
	"github.com/dmitrijs2005/wordbook/internal/client/models"
	"github.com/dmitrijs2005/wordbook/internal/client/repositories/sessions"
	"github.com/dmitrijs2005/wordbook/internal/common"
	sm "github.com/dmitrijs2005/wordbook/internal/server/models"
)

var ErrNotSignedIn = errors.New("not signed in")

var now = time.Now

// AuthAPI is the part of the API client the manager needs.
type AuthAPI interface {
	SignIn(ctx context.Context, email, password string) (*api.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*sm.User, error)
}

type Manager struct {
	mu      sync.RWMutex
	store   sessions.Repository
	api     AuthAPI
	current *models.Session
}

func NewManager(store sessions.Repository, a AuthAPI) *Manager {
	return &Manager{store: store, api: a}
}

// Load restores the session saved by a previous run, if any.
func (m *Manager) Load(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if errors.Is(err, common.ErrorNotFound) {
		s, err = nil, nil
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

// SignIn authenticates against the server and persists the new session.
// The previous session stays in place when any step fails.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	pair, err := m.api.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	prev := m.current
	m.current = &models.Session{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
	m.mu.Unlock()

	restore := func() {
		m.mu.Lock()
		m.current = prev
		m.mu.Unlock()
	}

	u, err := m.api.Me(ctx)
	if err != nil {
		restore()
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	s := &models.Session{
		UserID:       u.ID,
		Email:        u.Email,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		SignedInAt:   now().UTC(),
	}
	if err := m.store.Save(ctx, s); err != nil {
		restore()
		return nil, err
	}

	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	out := *s
	return &out, nil
}

// SignOut revokes the refresh token on the server and forgets the local
// session. The local session is cleared even when revocation fails.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	s := m.current
	m.current = nil
	m.mu.Unlock()

	if s == nil {
		return ErrNotSignedIn
	}

	revokeErr := m.api.SignOut(ctx, s.RefreshToken)
	if err := m.store.Clear(ctx); err != nil {
		return errors.Join(revokeErr, err)
	}
	if revokeErr != nil {
		return fmt.Errorf("revoke session: %w", revokeErr)
	}
	return nil
}

// UserID is the id of the signed-in user.
func (m *Manager) UserID() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil || m.current.UserID == "" {
		return "", false
	}
	return m.current.UserID, true
}

// Current returns a copy of the signed-in session.
func (m *Manager) Current() (models.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return models.Session{}, false
	}
	return *m.current, true
}

// Tokens implements api.TokenStore.
func (m *Manager) Tokens() (string, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return "", ""
	}
	return m.current.AccessToken, m.current.RefreshToken
}

// SetTokens implements api.TokenStore. Rotated tokens are persisted when a
// user is signed in.
func (m *Manager) SetTokens(ctx context.Context, pair api.TokenPair) error {
	m.mu.Lock()
	if m.current == nil {
		m.mu.Unlock()
		return ErrNotSignedIn
	}
	next := *m.current
	next.AccessToken = pair.AccessToken
	next.RefreshToken = pair.RefreshToken
	m.current = &next
	m.mu.Unlock()

	if next.UserID == "" {
		return nil
	}
	return m.store.Save(ctx, &next)
}
