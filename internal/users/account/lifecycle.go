// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"fmt"
	"strings"

	"github.com/taibuivan/portal/internal/platform/apperr"
)

// Transition is an admin decision that moves a profile between states.
type Transition string

const (
	TransitionApprove    Transition = "approve"
	TransitionBlock      Transition = "block"
	TransitionReactivate Transition = "reactivate"
)

// ParseTransition accepts a transition name in any case.
func ParseTransition(value string) (Transition, error) {
	transition := Transition(strings.ToLower(strings.TrimSpace(value)))
	switch transition {
	case TransitionApprove, TransitionBlock, TransitionReactivate:
		return transition, nil
	}
	return "", apperr.ValidationError("Unknown status transition",
		apperr.FieldError{Field: "status", Message: "must be one of approve, block, reactivate"})
}

/*
Apply returns the state reached by applying transition to s.

	approve:    pending            -> active
	block:      pending|active|blocked -> blocked
	reactivate: blocked            -> active

Any other pair is a Conflict. Block is idempotent.
*/
func (s Status) Apply(transition Transition) (Status, error) {
	switch transition {
	case TransitionApprove:
		if s == StatusPending {
			return StatusActive, nil
		}
	case TransitionBlock:
		if s.Valid() {
			return StatusBlocked, nil
		}
	case TransitionReactivate:
		if s == StatusBlocked {
			return StatusActive, nil
		}
	}
	return s, apperr.Conflict(fmt.Sprintf("Cannot %s an account that is %s", transition, s))
}
