// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ulid_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/portal/pkg/ulid"
)

/*
TestNew_Monotonic checks ids generated back to back sort in creation order.
*/
func TestNew_Monotonic(t *testing.T) {
	previous := ulid.New()
	for i := 0; i < 100; i++ {
		next := ulid.New()
		assert.Greater(t, next, previous)
		previous = next
	}
}

/*
TestTime recovers the embedded millisecond timestamp.
*/
func TestTime(t *testing.T) {
	moment := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	id := ulid.At(moment)

	decoded, err := ulid.Time(id)
	require.NoError(t, err)
	assert.True(t, moment.Equal(decoded.UTC()))

	_, err = ulid.Time("not-a-ulid")
	assert.Error(t, err)
}
