// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package activity records what portal users do and who is online.

The access log is an append-only table in PostgreSQL. Presence is volatile
and lives in Redis: each heartbeat refreshes a per-user record that expires
on its own, so nothing has to clean up after a closed browser tab.
*/
package activity

import "time"

// Actions written by the portal itself. Clients may log others.
const (
	ActionLogin    = "login"
	ActionPageView = "page_view"
)

// RecentLimit is how many log entries the admin overview shows.
const RecentLimit = 100

// DailyWindow is how many calendar days, today included, the overview counts.
const DailyWindow = 7

// dayLayout formats [DayCount.Date].
const dayLayout = "2006-01-02"

// Input limits.
const (
	MaxActionLength = 50
	MaxPageLength   = 200
)

// Entry is one access log row.
type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	Page      string    `json:"page,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Presence is the last heartbeat of a user.
type Presence struct {
	UserID     string    `json:"user_id"`
	Page       string    `json:"page,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// Person names the owner of an entry or presence record in the overview.
type Person struct {
	Name             string `json:"name,omitempty"`
	RegistrationCode string `json:"registration_code,omitempty"`
}

// EntryView is an [Entry] with its owner's name.
type EntryView struct {
	Entry
	Person
}

// PresenceView is a [Presence] with its owner's name.
type PresenceView struct {
	Presence
	Person
}

// DayCount is the number of log entries written on one calendar day.
type DayCount struct {
	Date     string `json:"date"`
	Accesses int    `json:"accesses"`
}

// Overview is the admin activity screen.
type Overview struct {
	Recent []EntryView    `json:"recent"`
	Online []PresenceView `json:"online"`
	Daily  []DayCount     `json:"daily"`
}
