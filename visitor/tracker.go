// Copyright 2026 The VisitMap Authors
// SPDX-License-Identifier: Apache-2.0

package visitor

import (
	"context"
	"log"
	"time"

	"github.com/jcodagnone/visitmap/geo"
)

// Recorder accepts a resolved location under the active privacy mode. Both
// store variants implement it.
type Recorder interface {
	Record(mode Mode, loc *geo.Location, at time.Time) error
}

// Tracker orchestrates one capture per session: consent gate, mode gate,
// session gate, then resolve and record. Resolution failures are downgraded
// to a logged skip; tracking is best-effort and never blocks a page view.
type Tracker struct {
	ctrl     *Controller
	rec      Recorder
	resolver geo.Resolver
	now      func() time.Time
}

// NewTracker wires the controller, a store, and a resolver together.
func NewTracker(ctrl *Controller, rec Recorder, resolver geo.Resolver) *Tracker {
	return &Tracker{
		ctrl:     ctrl,
		rec:      rec,
		resolver: resolver,
		now:      time.Now,
	}
}

// Track processes one page view for the given session. It reports whether a
// capture actually happened. The only error it returns is a storage failure;
// resolver problems and unmapped timezones record nothing and return
// (false, nil).
func (t *Tracker) Track(ctx context.Context, sessionID, timezoneID string) (bool, error) {
	if !t.ctrl.Consent() {
		return false, nil
	}

	mode := t.ctrl.Mode()
	if mode == ModeDisabled {
		return false, nil
	}

	if t.ctrl.Tracked(sessionID) {
		return false, nil
	}

	loc, err := t.resolver.Resolve(ctx, timezoneID)
	if err != nil {
		log.Printf("visitor: location lookup failed, skipping capture: %v", err)

		return false, nil
	}

	if loc == nil {
		return false, nil
	}

	if err := t.rec.Record(mode, loc, t.now()); err != nil {
		return false, err
	}

	if err := t.ctrl.MarkTracked(sessionID); err != nil {
		return false, err
	}

	return true, nil
}
