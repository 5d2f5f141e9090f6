// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/portal/internal/platform/apperr"
	"github.com/taibuivan/portal/internal/platform/dberr"
)

/*
TestWrap maps driver errors onto the application taxonomy.
*/
func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"no_rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), apperr.CodeNotFound},
		{"unique", &pgconn.PgError{Code: "23505"}, apperr.CodeConflict},
		{"foreign_key", &pgconn.PgError{Code: "23503"}, apperr.CodeValidation},
		{"other", errors.New("connection reset"), apperr.CodeUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := dberr.Wrap(tt.err, "Profile", "profile_lookup")
			assert.True(t, apperr.IsCode(wrapped, tt.code))
		})
	}

	assert.Nil(t, dberr.Wrap(nil, "Profile", "profile_lookup"))
	assert.True(t, dberr.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, dberr.IsUniqueViolation(errors.New("x")))
}

/*
TestWrap_UpstreamMessage keeps the collaborator message visible to the caller.
*/
func TestWrap_UpstreamMessage(t *testing.T) {
	wrapped := dberr.Wrap(errors.New("connection reset"), "Profile", "profile_update")
	assert.Equal(t, "profile_update failed: connection reset", wrapped.Error())
}
