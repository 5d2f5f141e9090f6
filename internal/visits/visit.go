// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package visits records supervisor field visits with an optional drawn signature.
package visits

import "time"

// StatusCompleted is the only status a visit is created with.
const StatusCompleted = "completed"

// SignaturePrefix is the data URL prefix a signature must carry.
const SignaturePrefix = "data:image/png;base64,"

// DateLayout is the wire format of a visit date.
const DateLayout = time.DateOnly

// Input limits.
const (
	MaxLocationLength = 200
	MaxNotesLength    = 2000
	// MaxSignatureLength bounds the encoded data URL.
	MaxSignatureLength = 512 << 10
)

// Field names used in validation errors.
const (
	FieldLocation  = "location"
	FieldNotes     = "notes"
	FieldSignature = "signature"
	FieldVisitDate = "visit_date"
)

// Visit is one recorded visit.
type Visit struct {
	ID           string    `json:"id"`
	SupervisorID string    `json:"supervisor_id"`
	Location     string    `json:"location"`
	VisitDate    time.Time `json:"visit_date"`
	Notes        string    `json:"notes,omitempty"`
	Signature    string    `json:"signature,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Input is a new visit as submitted by its supervisor.
type Input struct {
	Location  string `json:"location"`
	VisitDate string `json:"visit_date"`
	Notes     string `json:"notes"`
	Signature string `json:"signature"`
}
