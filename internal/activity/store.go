// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"time"
)

// LogRepository defines the persistence contract for the access log.
type LogRepository interface {

	// Append writes one entry. Entries are never updated.
	Append(context context.Context, entry *Entry) error

	// Recent returns the newest entries first, at most limit of them.
	Recent(context context.Context, limit int) ([]Entry, error)

	// DeleteByUser removes every entry of userID.
	DeleteByUser(context context.Context, userID string) error
}

// PresenceStore keeps the latest heartbeat per user.
type PresenceStore interface {

	/*
		Touch records a heartbeat seen at the given instant.

		Description: A heartbeat older than the stored one is ignored, so
		out-of-order requests never move lastSeenAt backwards.

		Returns:
		  - bool: Whether the record was written
		  - error: Connectivity failures
	*/
	Touch(context context.Context, userID, page string, seenAt time.Time) (bool, error)

	// Online returns users whose last heartbeat is within the TTL of now, most recent first.
	Online(context context.Context, now time.Time) ([]Presence, error)

	// Remove forgets userID.
	Remove(context context.Context, userID string) error
}
