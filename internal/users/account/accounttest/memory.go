// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package accounttest provides in-memory profile and role storage for tests.
package accounttest

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/mail"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/pkg/pagination"
)

// Store keeps profiles and role assignments in memory. It implements
// [account.ProfileRepository] and [account.RoleRepository].
type Store struct {
	mu       sync.Mutex
	profiles map[string]account.Profile
	roles    map[string]map[sec.UserRole]bool
	writes   int

	// FailCreate makes Create fail with an upstream error.
	FailCreate bool
	// FailDeleteAccount makes DeleteAccount fail with an upstream error.
	FailDeleteAccount bool
}

var errInjected = errors.New("accounttest: injected failure")

var (
	_ account.ProfileRepository = (*Store)(nil)
	_ account.RoleRepository    = (*Store)(nil)
)

// NewStore returns an empty [Store].
func NewStore() *Store {
	return &Store{
		profiles: map[string]account.Profile{},
		roles:    map[string]map[sec.UserRole]bool{},
	}
}

// Put stores profile as-is, bypassing the repository contract.
func (store *Store) Put(profile account.Profile) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.profiles[profile.UserID] = profile
}

// Profile returns the stored profile of userID.
func (store *Store) Profile(userID string) (account.Profile, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	profile, ok := store.profiles[userID]
	return profile, ok
}

// Roles returns the roles held by userID.
func (store *Store) Roles(userID string) []sec.UserRole {
	store.mu.Lock()
	defer store.mu.Unlock()
	var roles []sec.UserRole
	for role := range store.roles[userID] {
		roles = append(roles, role)
	}
	slices.Sort(roles)
	return roles
}

// Writes counts successful mutations of either table.
func (store *Store) Writes() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.writes
}

// # Profiles

func (store *Store) Create(_ context.Context, profile *account.Profile) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.FailCreate {
		return apperr.Upstream("create_profile", errInjected)
	}
	for _, existing := range store.profiles {
		if existing.RegistrationCode == profile.RegistrationCode || existing.UserID == profile.UserID {
			return apperr.Conflict("Profile already exists")
		}
	}
	now := time.Now()
	profile.CreatedAt, profile.UpdatedAt = now, now
	store.profiles[profile.UserID] = *profile
	store.grant(profile.UserID, sec.RoleUser)
	store.writes++
	return nil
}

func (store *Store) FindByUserID(_ context.Context, userID string) (*account.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	profile, ok := store.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("Profile")
	}
	return &profile, nil
}

func (store *Store) FindByRegistrationCode(_ context.Context, code string) (*account.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	for _, profile := range store.profiles {
		if profile.RegistrationCode == code {
			return &profile, nil
		}
	}
	return nil, apperr.NotFound("Profile")
}

func (store *Store) FindByEmail(_ context.Context, email string) ([]account.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	matches := []account.Profile{}
	for _, profile := range store.sorted() {
		if profile.Email != "" && strings.EqualFold(profile.Email, email) {
			matches = append(matches, profile)
		}
		if len(matches) == 2 {
			break
		}
	}
	return matches, nil
}

func (store *Store) List(_ context.Context, params pagination.Params) ([]account.Profile, int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	all := store.sorted()
	start := min(params.Offset(), len(all))
	end := min(start+params.Limit, len(all))
	return all[start:end], len(all), nil
}

func (store *Store) ListByUserIDs(_ context.Context, userIDs []string) ([]account.Profile, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	out := []account.Profile{}
	for _, id := range userIDs {
		if profile, ok := store.profiles[id]; ok {
			out = append(out, profile)
		}
	}
	return out, nil
}

func (store *Store) UpdateStatus(_ context.Context, userID string, status account.Status) error {
	return store.mutate(userID, func(profile *account.Profile) { profile.Status = status })
}

func (store *Store) UpdateContact(_ context.Context, userID string, update account.ProfileUpdate) (*account.Profile, error) {
	var updated account.Profile
	err := store.mutate(userID, func(profile *account.Profile) {
		set := func(target *string, value *string) {
			if value != nil {
				*target = *value
			}
		}
		set(&profile.Name, update.Name)
		set(&profile.Title, update.Title)
		set(&profile.Email, update.Email)
		set(&profile.Company, update.Company)
		set(&profile.Phone, update.Phone)
		updated = *profile
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (store *Store) SetMustChangePassword(_ context.Context, userID string, value bool) error {
	return store.mutate(userID, func(profile *account.Profile) { profile.MustChangePassword = value })
}

func (store *Store) DeleteAccount(_ context.Context, userID string) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.FailDeleteAccount {
		return apperr.Upstream("delete_account", errInjected)
	}
	if _, ok := store.profiles[userID]; !ok {
		return apperr.NotFound("Profile")
	}
	delete(store.profiles, userID)
	delete(store.roles, userID)
	store.writes++
	return nil
}

func (store *Store) mutate(userID string, apply func(*account.Profile)) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	profile, ok := store.profiles[userID]
	if !ok {
		return apperr.NotFound("Profile")
	}
	apply(&profile)
	profile.UpdatedAt = time.Now()
	store.profiles[userID] = profile
	store.writes++
	return nil
}

// sorted returns profiles newest first. Callers hold the lock.
func (store *Store) sorted() []account.Profile {
	all := make([]account.Profile, 0, len(store.profiles))
	for _, profile := range store.profiles {
		all = append(all, profile)
	}
	slices.SortFunc(all, func(a, b account.Profile) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.UserID, a.UserID)
	})
	return all
}

// # Roles

func (store *Store) HasRole(_ context.Context, userID string, role sec.UserRole) (bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.roles[userID][role], nil
}

func (store *Store) Grant(_ context.Context, userID string, role sec.UserRole) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.grant(userID, role)
	store.writes++
	return nil
}

func (store *Store) Revoke(_ context.Context, userID string, role sec.UserRole) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.roles[userID], role)
	store.writes++
	return nil
}

func (store *Store) ListUserIDs(_ context.Context, role sec.UserRole) ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	var ids []string
	for userID, roles := range store.roles {
		if roles[role] {
			ids = append(ids, userID)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

func (store *Store) grant(userID string, role sec.UserRole) {
	if store.roles[userID] == nil {
		store.roles[userID] = map[sec.UserRole]bool{}
	}
	store.roles[userID][role] = true
}

// # Mail

// Outbox records sent messages. A non-nil Err fails every send.
type Outbox struct {
	mu       sync.Mutex
	messages []mail.Message
	Err      error
}

// Send implements [mail.Sender].
func (outbox *Outbox) Send(_ context.Context, message mail.Message) error {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()
	if outbox.Err != nil {
		return outbox.Err
	}
	outbox.messages = append(outbox.messages, message)
	return nil
}

// Messages returns every delivered message.
func (outbox *Outbox) Messages() []mail.Message {
	outbox.mu.Lock()
	defer outbox.mu.Unlock()
	return slices.Clone(outbox.messages)
}
