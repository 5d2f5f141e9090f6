// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/internal/access"
	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/sec"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/internal/users/account/accounttest"
	"github.com/taibuivan/portal/internal/users/identity"
	"github.com/taibuivan/portal/internal/users/identity/identitytest"
	"github.com/taibuivan/portal/pkg/pagination"
)

const (
	testCode     = "TT123456"
	testPassword = "Secret#1"
)

// # Fixture

type recordingNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *recordingNotifier) NotifyNewUser(_ context.Context, _, code, _ string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, code)
	return n.err
}

type recordingActivity struct {
	mu      sync.Mutex
	actions []string
}

func (a *recordingActivity) Record(_ context.Context, userID, action, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, userID+":"+action)
	return nil
}

type fixture struct {
	identityStore *identitytest.Store
	identities    *identity.Service
	store         *accounttest.Store
	outbox        *accounttest.Outbox
	notifier      *recordingNotifier
	activity      *recordingActivity
	service       *account.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		identityStore: identitytest.NewStore(),
		store:         accounttest.NewStore(),
		outbox:        &accounttest.Outbox{},
		notifier:      &recordingNotifier{},
		activity:      &recordingActivity{},
	}
	f.identities = identitytest.NewService(f.identityStore)
	f.service = account.NewService(f.store, f.store, f.identities, f.outbox, slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithNotifier(f.notifier).
		WithActivity(f.activity)
	return f
}

func validSignUp(code string) account.SignUpInput {
	return account.SignUpInput{
		RegistrationCode: code,
		Name:             "Ana Souza",
		Title:            "Analista",
		Email:            "ana@empresa.com.br",
		Company:          "Empresa",
		Phone:            "(11) 98765-4321",
		Area:             "Suporte CL",
	}
}

// signUpWithPassword registers code and gives it a known credential.
func (f *fixture) signUpWithPassword(t *testing.T, input account.SignUpInput) *account.Profile {
	t.Helper()
	profile, err := f.service.SignUp(context.Background(), input)
	require.NoError(t, err)
	require.NoError(t, f.identities.AdminUpdateCredential(context.Background(), profile.UserID, testPassword))
	return profile
}

// activeUser registers, approves and returns a signed-in user.
func (f *fixture) activeUser(t *testing.T, input account.SignUpInput) (*account.Profile, *account.LoginResult) {
	t.Helper()
	profile := f.signUpWithPassword(t, input)
	_, err := f.service.SetStatus(context.Background(), profile.UserID, account.TransitionApprove)
	require.NoError(t, err)

	result, err := f.service.Login(context.Background(), input.RegistrationCode, testPassword, "test", "127.0.0.1")
	require.NoError(t, err)
	return profile, result
}

// # Lifecycle

/*
TestStatus_Apply checks every state and transition pair.
*/
func TestStatus_Apply(t *testing.T) {
	tests := []struct {
		from       account.Status
		transition account.Transition
		want       account.Status
		conflict   bool
	}{
		{account.StatusPending, account.TransitionApprove, account.StatusActive, false},
		{account.StatusActive, account.TransitionApprove, "", true},
		{account.StatusBlocked, account.TransitionApprove, "", true},
		{account.StatusPending, account.TransitionBlock, account.StatusBlocked, false},
		{account.StatusActive, account.TransitionBlock, account.StatusBlocked, false},
		{account.StatusBlocked, account.TransitionBlock, account.StatusBlocked, false},
		{account.StatusPending, account.TransitionReactivate, "", true},
		{account.StatusActive, account.TransitionReactivate, "", true},
		{account.StatusBlocked, account.TransitionReactivate, account.StatusActive, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.transition), func(t *testing.T) {
			got, err := tt.from.Apply(tt.transition)
			if tt.conflict {
				assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
				assert.Equal(t, tt.from, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTransition(t *testing.T) {
	transition, err := account.ParseTransition(" Block ")
	require.NoError(t, err)
	assert.Equal(t, account.TransitionBlock, transition)

	_, err = account.ParseTransition("delete")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

// # Sign Up

/*
TestSignUp creates a pending profile with the default role.
*/
func TestSignUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := validSignUp("tt123456")
	input.Area = "Comunicação de Dados"

	profile, err := f.service.SignUp(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, testCode, profile.RegistrationCode)
	assert.Equal(t, account.StatusPending, profile.Status)
	assert.Equal(t, "11987654321", profile.Phone)
	assert.Equal(t, access.AreaDataCommunication, profile.Area)
	assert.False(t, profile.MustChangePassword)
	assert.Equal(t, []sec.UserRole{sec.RoleUser}, f.store.Roles(profile.UserID))
	assert.True(t, f.identityStore.HasIdentity(profile.UserID))
	assert.Equal(t, []string{testCode}, f.notifier.calls)

	_, err = f.service.SignUp(ctx, validSignUp(testCode))
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))
}

/*
TestSignUp_Validation rejects bad input before touching the identity store.
*/
func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*account.SignUpInput)
	}{
		{"bad code", func(in *account.SignUpInput) { in.RegistrationCode = "AB123456" }},
		{"short code", func(in *account.SignUpInput) { in.RegistrationCode = "TT12345" }},
		{"missing name", func(in *account.SignUpInput) { in.Name = "  " }},
		{"bad email", func(in *account.SignUpInput) { in.Email = "not-an-email" }},
		{"missing company", func(in *account.SignUpInput) { in.Company = "" }},
		{"short phone", func(in *account.SignUpInput) { in.Phone = "1234-5678" }},
		{"unknown area", func(in *account.SignUpInput) { in.Area = "Financeiro" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			input := validSignUp(testCode)
			tt.mutate(&input)

			_, err := f.service.SignUp(context.Background(), input)
			assert.True(t, apperr.IsCode(err, apperr.CodeValidation), "got %v", err)

			_, err = f.identities.LookupLogin(context.Background(), testCode)
			assert.True(t, apperr.IsNotFound(err))
		})
	}
}

/*
TestSignUp_CompensatesIdentity removes the identity when the profile cannot be stored.
*/
func TestSignUp_CompensatesIdentity(t *testing.T) {
	f := newFixture(t)
	f.store.FailCreate = true

	_, err := f.service.SignUp(context.Background(), validSignUp(testCode))
	assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))

	_, err = f.identities.LookupLogin(context.Background(), testCode)
	assert.True(t, apperr.IsNotFound(err), "identity must be rolled back")
	assert.Empty(t, f.notifier.calls)
}

/*
TestSignUp_NotificationFailureIsIgnored keeps the signup when the admin notice fails.
*/
func TestSignUp_NotificationFailureIsIgnored(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("queue down")

	profile, err := f.service.SignUp(context.Background(), validSignUp(testCode))
	require.NoError(t, err)
	assert.Equal(t, account.StatusPending, profile.Status)
}

// # Login

/*
TestScenario_PendingLoginDiscardsSession rejects a pending account after the
credential was accepted, and leaves no session behind.
*/
func TestScenario_PendingLoginDiscardsSession(t *testing.T) {
	f := newFixture(t)
	profile := f.signUpWithPassword(t, validSignUp(testCode))

	_, err := f.service.Login(context.Background(), testCode, testPassword, "test", "127.0.0.1")
	assert.True(t, apperr.IsCode(err, apperr.CodeAccountPending))
	assert.Zero(t, f.identityStore.ActiveSessions(profile.UserID))

	_, err = f.service.Login(context.Background(), testCode, "Wrong#99", "test", "127.0.0.1")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
}

/*
TestLogin_Blocked discards the session of a blocked account.
*/
func TestLogin_Blocked(t *testing.T) {
	f := newFixture(t)
	profile := f.signUpWithPassword(t, validSignUp(testCode))
	_, err := f.service.SetStatus(context.Background(), profile.UserID, account.TransitionBlock)
	require.NoError(t, err)

	_, err = f.service.Login(context.Background(), testCode, testPassword, "test", "127.0.0.1")
	assert.True(t, apperr.IsCode(err, apperr.CodeAccountBlocked))
	assert.Zero(t, f.identityStore.ActiveSessions(profile.UserID))
}

/*
TestLogin_Active keeps the session and records the login.
*/
func TestLogin_Active(t *testing.T) {
	f := newFixture(t)
	profile, result := f.activeUser(t, validSignUp(testCode))

	assert.NotEmpty(t, result.Session.AccessToken)
	assert.Equal(t, profile.UserID, result.Account.UserID)
	assert.False(t, result.Account.IsAdmin)
	assert.Equal(t, 1, f.identityStore.ActiveSessions(profile.UserID))
	assert.Equal(t, []string{profile.UserID + ":login"}, f.activity.actions)

	_, err := f.service.Login(context.Background(), "TT12", testPassword, "", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
}

/*
TestLogin_ProfileMissing treats an identity without a profile as unknown.
*/
func TestLogin_ProfileMissing(t *testing.T) {
	f := newFixture(t)
	created, err := f.identities.SignUp(context.Background(), "TT654321", testPassword)
	require.NoError(t, err)

	_, err = f.service.Login(context.Background(), "TT654321", testPassword, "", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
	assert.Zero(t, f.identityStore.ActiveSessions(created.ID))
}

/*
TestRefresh_ReappliesGate refuses to rotate the session of a blocked account.
*/
func TestRefresh_ReappliesGate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, result := f.activeUser(t, validSignUp(testCode))

	rotated, err := f.service.Refresh(ctx, result.Session.RefreshToken, "test", "")
	require.NoError(t, err)
	assert.NotEqual(t, result.Session.RefreshToken, rotated.Session.RefreshToken)

	_, err = f.service.SetStatus(ctx, profile.UserID, account.TransitionBlock)
	require.NoError(t, err)

	_, err = f.service.Refresh(ctx, rotated.Session.RefreshToken, "test", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeAccountBlocked))
	assert.Zero(t, f.identityStore.ActiveSessions(profile.UserID))
}

// # Principal Resolution

/*
TestScenario_BlockedMidSession rejects an open session once the account is
blocked, although the token itself still verifies.
*/
func TestScenario_BlockedMidSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, result := f.activeUser(t, validSignUp(testCode))

	claims, err := f.identities.Authenticate(ctx, result.Session.AccessToken)
	require.NoError(t, err)

	principal, err := f.service.ResolvePrincipal(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, access.AreaSupportCL, principal.Area)
	assert.Equal(t, result.Session.SessionID, principal.SessionID)

	_, err = f.service.SetStatus(ctx, profile.UserID, account.TransitionBlock)
	require.NoError(t, err)

	claims, err = f.identities.Authenticate(ctx, result.Session.AccessToken)
	require.NoError(t, err, "the token is still technically valid")

	_, err = f.service.ResolvePrincipal(ctx, claims)
	assert.True(t, apperr.IsCode(err, apperr.CodeAccountBlocked))

	_, err = f.service.SetStatus(ctx, profile.UserID, account.TransitionReactivate)
	require.NoError(t, err)
	_, err = f.service.ResolvePrincipal(ctx, claims)
	assert.NoError(t, err)
}

/*
TestResolvePrincipal_RoleIsReadEveryTime reflects promotions and demotions immediately.
*/
func TestResolvePrincipal_RoleIsReadEveryTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, result := f.activeUser(t, validSignUp(testCode))
	claims := &sec.AuthClaims{UserID: profile.UserID, SessionID: result.Session.SessionID}

	require.NoError(t, f.store.Grant(ctx, profile.UserID, sec.RoleAdmin))
	principal, err := f.service.ResolvePrincipal(ctx, claims)
	require.NoError(t, err)
	assert.True(t, principal.IsAdmin)

	require.NoError(t, f.store.Revoke(ctx, profile.UserID, sec.RoleAdmin))
	principal, err = f.service.ResolvePrincipal(ctx, claims)
	require.NoError(t, err)
	assert.False(t, principal.IsAdmin)

	_, err = f.service.ResolvePrincipal(ctx, &sec.AuthClaims{UserID: "0190c6f4-0000-7000-8000-000000000000"})
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized))
}

// # Credentials

/*
TestForgotPassword rotates, flags and mails the credential.
*/
func TestForgotPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, _ := f.activeUser(t, validSignUp(testCode))

	require.NoError(t, f.service.ForgotPassword(ctx, "ANA@empresa.com.br"))

	messages := f.outbox.Messages()
	require.Len(t, messages, 1)
	assert.Equal(t, []string{"ana@empresa.com.br"}, messages[0].To)

	stored, _ := f.store.Profile(profile.UserID)
	assert.True(t, stored.MustChangePassword)
	assert.Zero(t, f.identityStore.ActiveSessions(profile.UserID))

	_, err := f.service.Login(ctx, testCode, testPassword, "", "")
	assert.True(t, apperr.IsCode(err, apperr.CodeUnauthorized), "old credential must stop working")
}

/*
TestForgotPassword_Ambiguity never says whether zero or several accounts matched.
*/
func TestForgotPassword_Ambiguity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.service.ForgotPassword(ctx, "nobody@empresa.com.br")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))

	f.signUpWithPassword(t, validSignUp("TT000001"))
	f.signUpWithPassword(t, validSignUp("TT000002"))

	err = f.service.ForgotPassword(ctx, "ana@empresa.com.br")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	assert.Empty(t, f.outbox.Messages())
}

/*
TestForgotPassword_DeliveryFailure keeps the rotation and reports the failed email.
*/
func TestForgotPassword_DeliveryFailure(t *testing.T) {
	f := newFixture(t)
	profile, _ := f.activeUser(t, validSignUp(testCode))
	f.outbox.Err = errors.New("provider down")

	err := f.service.ForgotPassword(context.Background(), "ana@empresa.com.br")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotificationFailed))

	stored, _ := f.store.Profile(profile.UserID)
	assert.True(t, stored.MustChangePassword)
}

/*
TestChangePassword clears the flag and keeps only the calling session.
*/
func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, first := f.activeUser(t, validSignUp(testCode))
	_, err := f.service.Login(ctx, testCode, testPassword, "other", "")
	require.NoError(t, err)
	require.NoError(t, f.store.SetMustChangePassword(ctx, profile.UserID, true))

	principal := access.Principal{UserID: profile.UserID, SessionID: first.Session.SessionID}

	err = f.service.ChangePassword(ctx, principal, "weak")
	assert.True(t, apperr.IsCode(err, apperr.CodeValidation))

	require.NoError(t, f.service.ChangePassword(ctx, principal, "Better#2"))

	stored, _ := f.store.Profile(profile.UserID)
	assert.False(t, stored.MustChangePassword)
	assert.Equal(t, 1, f.identityStore.ActiveSessions(profile.UserID))

	_, err = f.service.Login(ctx, testCode, "Better#2", "", "")
	assert.NoError(t, err)
}

// # Administration

/*
TestListProfiles pages newest first and marks admins.
*/
func TestListProfiles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.SignUp(ctx, validSignUp("TT000001"))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := f.service.SignUp(ctx, validSignUp("TT000002"))
	require.NoError(t, err)
	require.NoError(t, f.store.Grant(ctx, first.UserID, sec.RoleAdmin))

	views, total, err := f.service.ListProfiles(ctx, pagination.Params{Page: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, views, 1)
	assert.Equal(t, second.UserID, views[0].UserID)
	assert.False(t, views[0].IsAdmin)

	views, _, err = f.service.ListProfiles(ctx, pagination.Params{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsAdmin)
}

/*
TestSetStatus rejects transitions the current state does not allow.
*/
func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	profile, err := f.service.SignUp(ctx, validSignUp(testCode))
	require.NoError(t, err)

	_, err = f.service.SetStatus(ctx, profile.UserID, account.TransitionReactivate)
	assert.True(t, apperr.IsCode(err, apperr.CodeConflict))

	updated, err := f.service.SetStatus(ctx, profile.UserID, account.TransitionApprove)
	require.NoError(t, err)
	assert.Equal(t, account.StatusActive, updated.Status)

	_, err = f.service.SetStatus(ctx, "0190c6f4-0000-7000-8000-000000000000", account.TransitionBlock)
	assert.True(t, apperr.IsNotFound(err))
}
