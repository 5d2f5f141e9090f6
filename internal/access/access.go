// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package access is the authorization policy engine.

It answers two questions for a request principal: may it open a module, and
which report links may it see. Evaluation is a pure function of the principal
and its area's permission record; the only I/O is loading that record.

# Rules

  - Admins see every module and every active report. Area records are ignored.
  - A non-admin whose area has no record gets nothing.
  - allAccess on the area record grants every module and every active report.
  - Otherwise modules and reports are limited to the record's lists.
  - Inactive reports are never served, admin or not.
*/
package access

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/portal/internal/platform/ctxkey"
)

// # Modules

// Module is a portal feature gated by area permissions.
type Module string

const (
	ModuleDashboard Module = "dashboard"
	ModulePowerBI   Module = "powerbi"
)

// AllModules lists every known module in display order.
func AllModules() []Module {
	return []Module{ModuleDashboard, ModulePowerBI}
}

// ParseModule validates a module name received at the boundary.
func ParseModule(value string) (Module, error) {
	module := Module(strings.ToLower(strings.TrimSpace(value)))
	if slices.Contains(AllModules(), module) {
		return module, nil
	}
	return "", fmt.Errorf("unknown module %q", value)
}

// # Areas

// Area is an organizational unit. Permissions are configured per area.
type Area string

const (
	AreaDataCommunication Area = "Comunicação de Dados"
	AreaHomeConnect       Area = "Home Connect"
	AreaSupportCL         Area = "Suporte CL"
	AreaManagement        Area = "Gerencia"
)

// AllAreas lists every known area.
func AllAreas() []Area {
	return []Area{AreaDataCommunication, AreaHomeConnect, AreaSupportCL, AreaManagement}
}

// ParseArea validates an area name. Input is NFC-normalized first so that
// decomposed accents ("c" + combining cedilla) match the canonical names.
func ParseArea(value string) (Area, error) {
	area := Area(norm.NFC.String(strings.TrimSpace(value)))
	if slices.Contains(AllAreas(), area) {
		return area, nil
	}
	return "", fmt.Errorf("unknown area %q", value)
}

// # Principal

// Principal is the authenticated caller of one request.
//
// It is built by the account gate after the session and profile checks and
// travels in the request context. Nothing caches it across requests.
type Principal struct {
	UserID             string `json:"user_id"`
	SessionID          string `json:"-"`
	RegistrationCode   string `json:"registration_code"`
	Name               string `json:"name"`
	Area               Area   `json:"area"`
	IsAdmin            bool   `json:"is_admin"`
	MustChangePassword bool   `json:"must_change_password"`
}

// WithPrincipal stores principal in ctx.
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	return context.WithValue(ctx, ctxkey.KeyPrincipal, principal)
}

// PrincipalFrom returns the principal stored in ctx, or nil.
func PrincipalFrom(ctx context.Context) *Principal {
	principal, _ := ctx.Value(ctxkey.KeyPrincipal).(*Principal)
	return principal
}

// # Area Permissions

// AreaPermission is the configured grant of one area.
type AreaPermission struct {
	Area      Area      `json:"area"`
	Modules   []Module  `json:"modules"`
	ReportIDs []string  `json:"report_ids"`
	AllAccess bool      `json:"all_access"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// DefaultPermission returns the built-in record of area: empty, except
// management which sees everything.
func DefaultPermission(area Area) AreaPermission {
	if area == AreaManagement {
		return AreaPermission{Area: area, Modules: AllModules(), ReportIDs: []string{}, AllAccess: true}
	}
	return AreaPermission{Area: area, Modules: []Module{}, ReportIDs: []string{}}
}

// BuiltinDefaults returns the default record of every known area.
func BuiltinDefaults() []AreaPermission {
	defaults := make([]AreaPermission, 0, len(AllAreas()))
	for _, area := range AllAreas() {
		defaults = append(defaults, DefaultPermission(area))
	}
	return defaults
}
