// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taibuivan/portal/internal/platform/validate"
	"github.com/taibuivan/portal/internal/users/account"
	"github.com/taibuivan/portal/pkg/ulid"
)

// Directory resolves user ids to profiles for display.
type Directory interface {
	ListByUserIDs(ctx context.Context, userIDs []string) ([]account.Profile, error)
}

// Service records activity and builds the admin overview.
type Service struct {
	logs      LogRepository
	presence  PresenceStore
	directory Directory
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a new [Service].
func NewService(logs LogRepository, presence PresenceStore, directory Directory, logger *slog.Logger) *Service {
	return &Service{logs: logs, presence: presence, directory: directory, logger: logger, now: time.Now}
}

// WithClock replaces the time source. Used by tests.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

/*
Record appends an access log entry.

Parameters:
  - context: context.Context
  - userID: string
  - action: string (required)
  - page: string (optional)

Returns:
  - error: ValidationError or storage failures
*/
func (service *Service) Record(context context.Context, userID, action, page string) error {
	action = strings.ToLower(strings.TrimSpace(action))
	page = strings.TrimSpace(page)

	validator := &validate.Validator{}
	validator.Required("action", action).MaxLen("action", action, MaxActionLength)
	validator.MaxLen("page", page, MaxPageLength)
	if err := validator.Err(); err != nil {
		return err
	}

	now := service.now()
	entry := &Entry{ID: ulid.At(now), UserID: userID, Action: action, Page: page, CreatedAt: now}
	if err := service.logs.Append(context, entry); err != nil {
		return fmt.Errorf("activity_service_record_failed: %w", err)
	}
	return nil
}

// Heartbeat marks userID as online on page.
func (service *Service) Heartbeat(context context.Context, userID, page string) error {
	page = strings.TrimSpace(page)

	validator := &validate.Validator{}
	validator.MaxLen("page", page, MaxPageLength)
	if err := validator.Err(); err != nil {
		return err
	}

	if _, err := service.presence.Touch(context, userID, page, service.now()); err != nil {
		return fmt.Errorf("activity_service_heartbeat_failed: %w", err)
	}
	return nil
}

// PurgeUser removes the log entries and presence of a deleted user. Both stores are attempted.
func (service *Service) PurgeUser(context context.Context, userID string) error {
	logErr := service.logs.DeleteByUser(context, userID)
	presenceErr := service.presence.Remove(context, userID)

	if err := errors.Join(logErr, presenceErr); err != nil {
		return fmt.Errorf("activity_service_purge_failed: %w", err)
	}

	service.logger.InfoContext(context, "user_activity_purged", slog.String("user_id", userID))
	return nil
}

/*
Overview loads the admin activity screen.

Description: The log and presence reads run concurrently. Names are then
resolved in one directory lookup for every user that appears in either
list. Users deleted since their entry was written keep an empty name.
Daily counts cover the last [DailyWindow] days and are taken from the same
recent entries, so busy days may be undercounted.

Returns:
  - *Overview: Recent entries, online users and per-day counts
  - error: Storage failures
*/
func (service *Service) Overview(context context.Context) (*Overview, error) {
	var (
		recent []Entry
		online []Presence
	)

	group, groupCtx := errgroup.WithContext(context)
	group.Go(func() error {
		entries, err := service.logs.Recent(groupCtx, RecentLimit)
		if err != nil {
			return fmt.Errorf("activity_service_recent_failed: %w", err)
		}
		recent = entries
		return nil
	})
	group.Go(func() error {
		present, err := service.presence.Online(groupCtx, service.now())
		if err != nil {
			return fmt.Errorf("activity_service_online_failed: %w", err)
		}
		online = present
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	people, err := service.people(context, recent, online)
	if err != nil {
		return nil, err
	}

	overview := &Overview{
		Recent: make([]EntryView, 0, len(recent)),
		Online: make([]PresenceView, 0, len(online)),
		Daily:  dailyCounts(recent, service.now()),
	}
	for _, entry := range recent {
		overview.Recent = append(overview.Recent, EntryView{Entry: entry, Person: people[entry.UserID]})
	}
	for _, presence := range online {
		overview.Online = append(overview.Online, PresenceView{Presence: presence, Person: people[presence.UserID]})
	}
	return overview, nil
}

func (service *Service) people(context context.Context, recent []Entry, online []Presence) (map[string]Person, error) {
	seen := map[string]bool{}
	var userIDs []string
	add := func(userID string) {
		if !seen[userID] {
			seen[userID] = true
			userIDs = append(userIDs, userID)
		}
	}
	for _, entry := range recent {
		add(entry.UserID)
	}
	for _, presence := range online {
		add(presence.UserID)
	}

	people := make(map[string]Person, len(userIDs))
	if len(userIDs) == 0 {
		return people, nil
	}

	profiles, err := service.directory.ListByUserIDs(context, userIDs)
	if err != nil {
		return nil, fmt.Errorf("activity_service_directory_failed: %w", err)
	}
	for _, profile := range profiles {
		people[profile.UserID] = Person{Name: profile.Name, RegistrationCode: profile.RegistrationCode}
	}
	return people, nil
}

// dailyCounts buckets entries by calendar day in now's location, oldest day
// first. Days without entries are present with zero.
func dailyCounts(entries []Entry, now time.Time) []DayCount {
	location := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, location)

	days := make([]DayCount, DailyWindow)
	index := make(map[string]int, DailyWindow)
	for i := range days {
		date := today.AddDate(0, 0, i-DailyWindow+1).Format(dayLayout)
		days[i] = DayCount{Date: date}
		index[date] = i
	}

	for _, entry := range entries {
		if i, ok := index[entry.CreatedAt.In(location).Format(dayLayout)]; ok {
			days[i].Accesses++
		}
	}
	return days
}
