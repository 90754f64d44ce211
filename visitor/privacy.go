// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"encoding/json"
	"fmt"
	"log"
)

// Controller owns the privacy-mode state machine and consent gating. Mode
// and consent persist in the durable store; the once-per-session tracking
// flags live in a session-scoped store that dies with the process, the way
// sessionStorage dies with the tab.
//
// Transitions go from any mode to any other, only on explicit selection.
// Entering disabled clears the session flags, so leaving disabled re-arms
// capture for the current session. There are no automatic transitions.
type Controller struct {
	kv      KV
	session KV
}

// NewController creates a controller over the durable and session stores.
func NewController(kv, session KV) *Controller {
	return &Controller{kv: kv, session: session}
}

// Mode returns the active privacy mode: the persisted preference, or the
// default. A corrupted preference falls back to the default rather than
// failing.
func (c *Controller) Mode() Mode {
	data, ok, err := c.kv.Get(keyMode)
	if err != nil {
		log.Printf("visitor: reading mode preference: %v", err)

		return DefaultMode
	}

	if !ok {
		return DefaultMode
	}

	return ParseMode(string(data))
}

// SetMode selects a privacy mode and persists the choice. Entering disabled
// clears the session tracking flags.
func (c *Controller) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("unknown privacy mode %q", m)
	}

	if err := c.kv.Set(keyMode, []byte(m)); err != nil {
		return fmt.Errorf("persisting mode preference: %w", err)
	}

	if m == ModeDisabled {
		return c.ResetSessions()
	}

	return nil
}

// Consent reports whether the visitor accepted tracking. Until acceptance is
// recorded no capture happens in any mode.
func (c *Controller) Consent() bool {
	data, ok, err := c.kv.Get(keyConsent)
	if err != nil {
		log.Printf("visitor: reading consent flag: %v", err)

		return false
	}

	return ok && string(data) == "true"
}

// SetConsent records the consent decision. Rejection forces the mode to
// disabled and persists that choice.
func (c *Controller) SetConsent(accepted bool) error {
	value := "false"
	if accepted {
		value = "true"
	}

	if err := c.kv.Set(keyConsent, []byte(value)); err != nil {
		return fmt.Errorf("persisting consent flag: %w", err)
	}

	if !accepted {
		return c.SetMode(ModeDisabled)
	}

	return nil
}

// Tracked reports whether the given session already produced a capture.
func (c *Controller) Tracked(sessionID string) bool {
	return c.trackedSessions()[sessionID]
}

// MarkTracked flags the session so it captures at most once.
func (c *Controller) MarkTracked(sessionID string) error {
	sessions := c.trackedSessions()
	sessions[sessionID] = true

	data, err := json.Marshal(sessions)
	if err != nil {
		return fmt.Errorf("serializing session flags: %w", err)
	}

	return c.session.Set(keyTracked, data)
}

// ResetSessions drops every session tracking flag.
func (c *Controller) ResetSessions() error {
	return c.session.Delete(keyTracked)
}

func (c *Controller) trackedSessions() map[string]bool {
	data, ok, err := c.session.Get(keyTracked)
	if err != nil {
		log.Printf("visitor: reading session flags: %v", err)

		return map[string]bool{}
	}

	if !ok {
		return map[string]bool{}
	}

	var sessions map[string]bool
	if err := json.Unmarshal(data, &sessions); err != nil {
		log.Printf("visitor: malformed session flags, resetting: %v", err)

		return map[string]bool{}
	}

	if sessions == nil {
		sessions = map[string]bool{}
	}

	return sessions
}
