// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/pkg/uuid"
)

const bootstrapPassword = "Admin#2026"

func (f *fixture) bootstrapper() *account.Bootstrapper {
	return account.NewBootstrapper(f.store, f.store, f.identities, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

/*
TestBootstrapAdmin_Fresh creates an active admin that must change its password.
*/
func TestBootstrapAdmin_Fresh(t *testing.T) {
	f := newFixture(t)

	profile, err := f.bootstrapper().BootstrapAdmin(context.Background(), account.BootstrapAdminInput{
		SignUpInput: validSignUp("TT000001"),
		Password:    bootstrapPassword,
	})
	require.NoError(t, err)

	assert.True(t, uuid.Valid(profile.ID))
	assert.Equal(t, account.StatusActive, profile.Status)
	assert.True(t, profile.MustChangePassword)
	assert.Equal(t, []sec.UserRole{sec.RoleAdmin, sec.RoleUser}, f.store.Roles(profile.UserID))

	result, err := f.service.Login(context.Background(), "TT000001", bootstrapPassword, "cli", "127.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Account.IsAdmin)
	assert.True(t, result.Account.MustChangePassword)
}

/*
TestBootstrapAdmin_ReplacesExisting removes the previous account under the same code.
*/
func TestBootstrapAdmin_ReplacesExisting(t *testing.T) {
	f := newFixture(t)
	previous := f.signUpWithPassword(t, validSignUp("TT000001"))

	profile, err := f.bootstrapper().BootstrapAdmin(context.Background(), account.BootstrapAdminInput{
		SignUpInput: validSignUp("TT000001"),
		Password:    bootstrapPassword,
	})
	require.NoError(t, err)

	assert.NotEqual(t, previous.UserID, profile.UserID)
	assert.False(t, f.identityStore.HasIdentity(previous.UserID))
	_, found := f.store.Profile(previous.UserID)
	assert.False(t, found)

	_, err = f.service.Login(context.Background(), "TT000001", testPassword, "cli", "127.0.0.1")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
}

/*
TestBootstrapAdmin_Validation rejects bad input before touching the stores.
*/
func TestBootstrapAdmin_Validation(t *testing.T) {
	f := newFixture(t)
	previous := f.signUpWithPassword(t, validSignUp("TT000001"))
	writes := f.store.Writes()

	tests := []struct {
		name  string
		input account.BootstrapAdminInput
	}{
		{name: "weak password", input: account.BootstrapAdminInput{SignUpInput: validSignUp("TT000001"), Password: "abc"}},
		{name: "bad code", input: account.BootstrapAdminInput{SignUpInput: validSignUp("XX1"), Password: bootstrapPassword}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bootstrapper().BootstrapAdmin(context.Background(), tt.input)
			assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
		})
	}

	assert.Equal(t, writes, f.store.Writes())
	assert.True(t, f.identityStore.HasIdentity(previous.UserID))
}
