// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # User Roles

// UserRole is a role stored in the role assignment table.
//
// Roles are independent of account status: an admin can be blocked, and an
// active account is not an admin unless it holds the admin row.
type UserRole string

const (
	// RoleAdmin grants every module, every active report and the admin gateway.
	RoleAdmin UserRole = "admin"

	// RoleUser is the default role assigned on signup.
	RoleUser UserRole = "user"
)

// Valid reports whether r is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}
