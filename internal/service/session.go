package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"

	"fruitshop/backend/internal/domain"
	"fruitshop/backend/internal/storage"
	"fruitshop/backend/internal/store"
)

// Authenticator is the part of the data gateway the session needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (domain.LoginResponse, error)
	Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error)
}

// StoreChangeFunc is called with the new active store id; an empty id means
// no store is active any more.
type StoreChangeFunc func(ctx context.Context, storeID string)

type persistedSession struct {
	User          *domain.UserProfile   `json:"user"`
	Token         string                `json:"token"`
	Stores        []domain.StoreProfile `json:"stores"`
	ActiveStoreID *string               `json:"activeStoreId"`
	Permissions   []string              `json:"permissions"`
}

// Session holds the signed-in user, the stores they may work in and which of
// them is active. It survives restarts through the session storage key.
type Session struct {
	mu            sync.RWMutex
	auth          Authenticator
	storage       storage.Storage
	logger        *zap.Logger
	user          *domain.UserProfile
	token         string
	stores        []domain.StoreProfile
	activeStoreID string
	permissions   []string
	loading       bool
	lastError     string
	listeners     []StoreChangeFunc
}

func NewSession(ctx context.Context, auth Authenticator, kv storage.Storage, opts ...Option) (*Session, error) {
	o := buildOptions(opts)
	s := &Session{auth: auth, storage: kv, logger: o.logger}
	if err := s.hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) hydrate(ctx context.Context) error {
	raw, err := s.storage.Get(ctx, store.SessionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}

	var cached persistedSession
	if err := json.Unmarshal(raw, &cached); err != nil {
		s.logger.Warn("discarding corrupt session", zap.Error(err))
		if err := s.storage.Remove(ctx, store.SessionKey); err != nil {
			return fmt.Errorf("remove corrupt session: %w", err)
		}
		return nil
	}

	s.user = cached.User
	s.token = cached.Token
	s.stores = cached.Stores
	s.permissions = cached.Permissions
	switch {
	case cached.ActiveStoreID != nil && *cached.ActiveStoreID != "":
		s.activeStoreID = *cached.ActiveStoreID
	case len(cached.Stores) > 0:
		s.activeStoreID = cached.Stores[0].ID
	}
	return nil
}

// persist writes the session, or removes it when nobody is signed in.
// Callers hold s.mu.
func (s *Session) persist(ctx context.Context) error {
	if s.user == nil || s.token == "" {
		if err := s.storage.Remove(ctx, store.SessionKey); err != nil {
			return fmt.Errorf("clear session: %w", err)
		}
		return nil
	}

	payload := persistedSession{
		User:        s.user,
		Token:       s.token,
		Stores:      s.stores,
		Permissions: s.permissions,
	}
	if s.activeStoreID != "" {
		active := s.activeStoreID
		payload.ActiveStoreID = &active
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, store.SessionKey, raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// OnActiveStoreChange registers fn to run after the active store changes.
func (s *Session) OnActiveStoreChange(fn StoreChangeFunc) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) notify(ctx context.Context, previous string) {
	s.mu.RLock()
	current := s.activeStoreID
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	if current == previous {
		return
	}
	for _, fn := range listeners {
		fn(ctx, current)
	}
}

func (s *Session) setLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	if loading {
		s.lastError = ""
	}
	s.mu.Unlock()
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
	return err
}

func (s *Session) Login(ctx context.Context, username, password string) error {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.auth.Login(ctx, username, password)
	if err != nil {
		return s.fail(err)
	}

	s.mu.Lock()
	previous := s.activeStoreID
	user := resp.User
	s.user = &user
	s.token = resp.Token
	s.stores = resp.Stores
	s.permissions = resp.Permissions
	s.activeStoreID = ""
	if len(resp.Stores) > 0 {
		s.activeStoreID = resp.Stores[0].ID
	}
	err = s.persist(ctx)
	s.mu.Unlock()
	if err != nil {
		return s.fail(err)
	}

	s.logger.Info("signed in", zap.String("username", user.Username), zap.String("store", s.ActiveStoreID()))
	s.notify(ctx, previous)
	return nil
}

func (s *Session) Register(ctx context.Context, req domain.RegisterRequest) (domain.RegisterResponse, error) {
	s.setLoading(true)
	defer s.setLoading(false)

	resp, err := s.auth.Register(ctx, req)
	if err != nil {
		return domain.RegisterResponse{}, s.fail(err)
	}
	return resp, nil
}

// SelectStore makes storeID active. Unknown stores, the store already active
// and a user lacking the switch permission among several stores are ignored.
func (s *Session) SelectStore(ctx context.Context, storeID string) error {
	s.mu.Lock()
	known := slices.ContainsFunc(s.stores, func(st domain.StoreProfile) bool { return st.ID == storeID })
	if !known || s.activeStoreID == storeID ||
		(!slices.Contains(s.permissions, domain.PermSwitchStore) && len(s.stores) > 1) {
		s.mu.Unlock()
		return nil
	}
	previous := s.activeStoreID
	s.activeStoreID = storeID
	err := s.persist(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(ctx, previous)
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	previous := s.activeStoreID
	s.user = nil
	s.token = ""
	s.stores = nil
	s.permissions = nil
	s.activeStoreID = ""
	err := s.persist(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.notify(ctx, previous)
	return nil
}

func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil && s.token != ""
}

func (s *Session) HasPermission(permission string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.permissions, permission)
}

// Token implements gateway.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *domain.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Stores() []domain.StoreProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.stores)
}

func (s *Session) Permissions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.permissions)
}

func (s *Session) ActiveStoreID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeStoreID
}

func (s *Session) ActiveStore() *domain.StoreProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stores {
		if st.ID == s.activeStoreID {
			out := st
			return &out
		}
	}
	return nil
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Session) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError
}
