// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/portal/internal/platform/database/schema"
)

/*
TestSessionQueries builds every session statement from the schema names.
*/
func TestSessionQueries(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected string
	}{
		{
			name:     "insert",
			query:    sessionInsertQuery,
			expected: "INSERT INTO auth.session (id, identityid, tokenhash, useragent, ipaddress, isrevoked, expiresat, createdat) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)",
		},
		{
			name:     "by id",
			query:    sessionByIDQuery,
			expected: "SELECT id, identityid, tokenhash, useragent, ipaddress, isrevoked, expiresat, createdat FROM auth.session WHERE id = $1",
		},
		{
			name:     "by token hash",
			query:    sessionByTokenHashQuery,
			expected: "SELECT id, identityid, tokenhash, useragent, ipaddress, isrevoked, expiresat, createdat FROM auth.session WHERE tokenhash = $1 AND isrevoked = FALSE AND expiresat > NOW()",
		},
		{
			name:     "revoke",
			query:    sessionRevokeQuery,
			expected: "UPDATE auth.session SET isrevoked = TRUE WHERE id = $1",
		},
		{
			name:     "revoke all",
			query:    sessionRevokeAllQuery,
			expected: "UPDATE auth.session SET isrevoked = TRUE WHERE identityid = $1 AND isrevoked = FALSE",
		},
		{
			name:     "revoke others",
			query:    sessionRevokeOthersQuery,
			expected: "UPDATE auth.session SET isrevoked = TRUE WHERE identityid = $1 AND id <> $2 AND isrevoked = FALSE",
		},
		{
			name:     "delete expired",
			query:    sessionDeleteExpiredQuery,
			expected: "DELETE FROM auth.session WHERE expiresat < NOW()",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.query)
			assert.True(t, strings.Contains(tt.query, schema.AuthSession.Table))
		})
	}
}
