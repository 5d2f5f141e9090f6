// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account owns employee profiles, their role assignments and the
account lifecycle.

# Lifecycle

Every profile starts pending. An admin approves it (active), may block it
and may reactivate it. Status is re-read from the store on every request by
[Gate], so a block takes effect on the next call of an already signed-in user.
*/
package account

import (
	"time"

	"github.com/taibuivan/portal/internal/access"
)

// # Domain Types

// Status is the lifecycle state of a profile.
type Status string

const (
	StatusPending Status = "pending"
	StatusActive  Status = "active"
	StatusBlocked Status = "blocked"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusBlocked:
		return true
	}
	return false
}

// Profile is the account record of an employee.
//
// RegistrationCode doubles as the identity login and never changes after signup.
type Profile struct {
	ID                 string      `json:"id"`
	UserID             string      `json:"user_id"`
	RegistrationCode   string      `json:"registration_code"`
	Name               string      `json:"name"`
	Title              string      `json:"title,omitempty"`
	Email              string      `json:"email,omitempty"`
	Company            string      `json:"company,omitempty"`
	Phone              string      `json:"phone,omitempty"`
	Area               access.Area `json:"area"`
	Status             Status      `json:"status"`
	MustChangePassword bool        `json:"must_change_password"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// ProfileUpdate carries the contact fields an admin may change.
// A nil field is left untouched.
type ProfileUpdate struct {
	Name    *string
	Title   *string
	Email   *string
	Company *string
	Phone   *string
}

// Empty reports whether no field is set.
func (update ProfileUpdate) Empty() bool {
	return update.Name == nil && update.Title == nil && update.Email == nil &&
		update.Company == nil && update.Phone == nil
}

// Principal builds the request principal for p.
func (p *Profile) Principal(sessionID string, isAdmin bool) *access.Principal {
	return &access.Principal{
		UserID:             p.UserID,
		SessionID:          sessionID,
		RegistrationCode:   p.RegistrationCode,
		Name:               p.Name,
		Area:               p.Area,
		IsAdmin:            isAdmin,
		MustChangePassword: p.MustChangePassword,
	}
}

// # Field Names

const (
	FieldRegistrationCode = "registration_code"
	FieldPassword         = "password"
	FieldNewPassword      = "new_password"
	FieldName             = "name"
	FieldTitle            = "title"
	FieldEmail            = "email"
	FieldCompany          = "company"
	FieldPhone            = "phone"
	FieldArea             = "area"
	FieldAccessToken      = "access_token"
	FieldTokenType        = "token_type"
	FieldExpiresIn        = "expires_in"
)

// Field limits.
const (
	MaxNameLength    = 150
	MaxTitleLength   = 100
	MaxEmailLength   = 254
	MaxCompanyLength = 150
)
