// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pagination_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/portal/pkg/pagination"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  pagination.Params
	}{
		{query: "", want: pagination.Params{Page: 1, Limit: 20}},
		{query: "?page=3&limit=10", want: pagination.Params{Page: 3, Limit: 10}},
		{query: "?page=-2&limit=0", want: pagination.Params{Page: 1, Limit: 20}},
		{query: "?page=x&limit=500", want: pagination.Params{Page: 1, Limit: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := pagination.FromRequest(httptest.NewRequest("GET", "/visits"+tt.query, nil))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewMeta(t *testing.T) {
	meta := pagination.NewMeta(2, 20, 45)
	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasMore)

	assert.False(t, pagination.NewMeta(3, 20, 45).HasMore)
	assert.Equal(t, 0, pagination.NewMeta(1, 20, 0).TotalPages)
	assert.Equal(t, 40, pagination.Params{Page: 3, Limit: 20}.Offset())
}
