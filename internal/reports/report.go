// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package reports manages the Power BI report links shown in the portal.

Admins own the catalog. Everyone else only ever receives the subset the
access engine lets them see, and inactive links are never served.
*/
package reports

import "time"

// Field names used in validation errors.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldURL         = "url"
	FieldIcon        = "icon"
	FieldOrder       = "order"
)

// Input limits.
const (
	MaxTitleLength       = 150
	MaxDescriptionLength = 500
	MaxURLLength         = 2048
	MaxIconLength        = 50
)

// Report is one link in the catalog.
type Report struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url"`
	Icon        string    `json:"icon,omitempty"`
	Order       int       `json:"order"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ReportID returns the catalog id.
func (report Report) ReportID() string { return report.ID }

// IsActive reports whether the link may be served.
func (report Report) IsActive() bool { return report.Active }

// Input carries an admin create or edit. Nil fields are left unchanged on edit.
type Input struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
	Icon        *string `json:"icon"`
	Order       *int    `json:"order"`
	Active      *bool   `json:"active"`
}
