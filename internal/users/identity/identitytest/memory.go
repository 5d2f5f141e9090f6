// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package identitytest provides in-memory identity storage for tests of
// packages that sit on top of the identity collaborator.
package identitytest

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"sync"
	"time"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/identity"
)

// Issuer is the token issuer used by [NewService].
const Issuer = "portal.test"

var (
	keyOnce sync.Once
	key     *rsa.PrivateKey
)

// SigningKey returns a process-wide RSA key so tests generate it only once.
func SigningKey() *rsa.PrivateKey {
	keyOnce.Do(func() {
		generated, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic("identitytest: generate key: " + err.Error())
		}
		key = generated
	})
	return key
}

// Store holds identities and sessions in memory. It implements both
// [identity.IdentityRepository] (via Identities) and [identity.SessionRepository]
// (via Sessions).
type Store struct {
	mu         sync.Mutex
	identities map[string]*identity.Identity
	sessions   map[string]*identity.Session

	// FailDelete makes Identities().Delete fail with an upstream error.
	FailDelete bool
	// FailUpdatePassword makes Identities().UpdatePassword fail with an upstream error.
	FailUpdatePassword bool
}

// NewStore returns an empty [Store].
func NewStore() *Store {
	return &Store{
		identities: map[string]*identity.Identity{},
		sessions:   map[string]*identity.Session{},
	}
}

// NewService wires a real [identity.Service] on top of store.
func NewService(store *Store) *identity.Service {
	tokens := sec.NewTokenServiceFromKey(SigningKey(), Issuer)
	return identity.NewService(store.Identities(), store.Sessions(), tokens)
}

// Identities exposes the identity half of the store.
func (store *Store) Identities() identity.IdentityRepository { return identityRepo{store} }

// Sessions exposes the session half of the store.
func (store *Store) Sessions() identity.SessionRepository { return sessionRepo{store} }

// HasIdentity reports whether id is still stored.
func (store *Store) HasIdentity(id string) bool {
	store.mu.Lock()
	defer store.mu.Unlock()
	_, ok := store.identities[id]
	return ok
}

// ActiveSessions counts unrevoked sessions of identityID.
func (store *Store) ActiveSessions(identityID string) int {
	store.mu.Lock()
	defer store.mu.Unlock()
	count := 0
	for _, session := range store.sessions {
		if session.IdentityID == identityID && session.Active(time.Now()) {
			count++
		}
	}
	return count
}

var errUpstream = errors.New("identitytest: injected failure")

type identityRepo struct{ store *Store }

func (repo identityRepo) FindByID(_ context.Context, id string) (*identity.Identity, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	if found, ok := repo.store.identities[id]; ok {
		copied := *found
		return &copied, nil
	}
	return nil, apperr.NotFound("Identity")
}

func (repo identityRepo) FindByLogin(_ context.Context, login string) (*identity.Identity, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	for _, found := range repo.store.identities {
		if found.Login == login {
			copied := *found
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Identity")
}

func (repo identityRepo) Create(_ context.Context, created *identity.Identity) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	for _, existing := range repo.store.identities {
		if existing.Login == created.Login {
			return apperr.Conflict("Identity already exists")
		}
	}
	copied := *created
	repo.store.identities[created.ID] = &copied
	return nil
}

func (repo identityRepo) UpdatePassword(_ context.Context, id, newHash string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	if repo.store.FailUpdatePassword {
		return apperr.Upstream("update_password", errUpstream)
	}
	found, ok := repo.store.identities[id]
	if !ok {
		return apperr.NotFound("Identity")
	}
	found.PasswordHash = newHash
	return nil
}

func (repo identityRepo) Delete(_ context.Context, id string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	if repo.store.FailDelete {
		return apperr.Upstream("delete_identity", errUpstream)
	}
	if _, ok := repo.store.identities[id]; !ok {
		return apperr.NotFound("Identity")
	}
	delete(repo.store.identities, id)
	for sessionID, session := range repo.store.sessions {
		if session.IdentityID == id {
			delete(repo.store.sessions, sessionID)
		}
	}
	return nil
}

type sessionRepo struct{ store *Store }

func (repo sessionRepo) Create(_ context.Context, session *identity.Session) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	copied := *session
	repo.store.sessions[session.ID] = &copied
	return nil
}

func (repo sessionRepo) FindByID(_ context.Context, id string) (*identity.Session, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	if found, ok := repo.store.sessions[id]; ok {
		copied := *found
		return &copied, nil
	}
	return nil, apperr.NotFound("Session")
}

func (repo sessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*identity.Session, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	for _, found := range repo.store.sessions {
		if found.TokenHash == tokenHash && found.Active(time.Now()) {
			copied := *found
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("Session")
}

func (repo sessionRepo) Revoke(_ context.Context, sessionID string) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	if found, ok := repo.store.sessions[sessionID]; ok {
		found.IsRevoked = true
	}
	return nil
}

func (repo sessionRepo) RevokeAll(_ context.Context, identityID string) error {
	return repo.revokeWhere(func(session *identity.Session) bool { return session.IdentityID == identityID })
}

func (repo sessionRepo) RevokeOthers(_ context.Context, identityID, keepSessionID string) error {
	return repo.revokeWhere(func(session *identity.Session) bool {
		return session.IdentityID == identityID && session.ID != keepSessionID
	})
}

func (repo sessionRepo) revokeWhere(match func(*identity.Session) bool) error {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	for _, session := range repo.store.sessions {
		if match(session) {
			session.IsRevoked = true
		}
	}
	return nil
}

func (repo sessionRepo) DeleteExpired(_ context.Context) (int64, error) {
	repo.store.mu.Lock()
	defer repo.store.mu.Unlock()
	var count int64
	now := time.Now()
	for id, session := range repo.store.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(repo.store.sessions, id)
			count++
		}
	}
	return count, nil
}
