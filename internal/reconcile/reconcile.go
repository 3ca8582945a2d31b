// Package reconcile computes the add/update/remove decisions that keep
// an external representation of a router in step with its snapshots.
//
// Elements are identified by content-derived keys, never by position,
// so the diff stays correct when the router enumerates devices and
// networks in a different order between polls.
package reconcile

import (
	"fmt"
	"sort"
	"sync"

	"github.com/muurk/wrtsync/internal/wireless"
)

// RadioKey returns the identity key of a radio: radio:<device>:<band>.
func RadioKey(r wireless.Radio) string {
	return fmt.Sprintf("radio:%s:%s", r.Device, r.Band)
}

// SsidKey returns the identity key of a network: ssid:<name>:<device>:<band>.
func SsidKey(s wireless.Ssid) string {
	return fmt.Sprintf("ssid:%s:%s:%s", s.Name, s.Device, s.Band)
}

// Element is one radio or network in a plan. Exactly one of Radio and
// Ssid is set.
type Element struct {
	Key   string          `json:"key"`
	Radio *wireless.Radio `json:"radio,omitempty"`
	Ssid  *wireless.Ssid  `json:"ssid,omitempty"`
}

// Plan is the outcome of one reconciliation.
type Plan struct {
	ToAdd    []Element `json:"toAdd"`
	ToUpdate []Element `json:"toUpdate"`
	ToRemove []string  `json:"toRemove"`
}

// Empty reports whether the plan carries no decisions at all.
func (p Plan) Empty() bool {
	return len(p.ToAdd) == 0 && len(p.ToUpdate) == 0 && len(p.ToRemove) == 0
}

// Elements lists the radios and networks of a snapshot in snapshot
// order, radios first. Later duplicates of a key are dropped.
func Elements(snap *wireless.Snapshot) []Element {
	if snap == nil {
		return nil
	}

	seen := make(map[string]struct{}, len(snap.Radios)+len(snap.Ssids))
	out := make([]Element, 0, len(snap.Radios)+len(snap.Ssids))

	for i := range snap.Radios {
		r := snap.Radios[i]
		key := RadioKey(r)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Element{Key: key, Radio: &r})
	}
	for i := range snap.Ssids {
		s := snap.Ssids[i]
		key := SsidKey(s)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, Element{Key: key, Ssid: &s})
	}

	return out
}

// Keys returns the identity keys of a snapshot.
func Keys(snap *wireless.Snapshot) []string {
	elems := Elements(snap)
	keys := make([]string, len(elems))
	for i, e := range elems {
		keys[i] = e.Key
	}
	return keys
}

// Reconcile diffs the previously known keys against a new snapshot.
//
// Every element of the snapshot is either added (key not previously
// known) or updated (key known); updates are unconditional so the
// external side always carries current values. Previously known keys
// missing from the snapshot are removed, in sorted order.
func Reconcile(previous []string, snap *wireless.Snapshot) Plan {
	prev := make(map[string]struct{}, len(previous))
	for _, k := range previous {
		prev[k] = struct{}{}
	}

	plan := Plan{
		ToAdd:    []Element{},
		ToUpdate: []Element{},
		ToRemove: []string{},
	}

	current := make(map[string]struct{})
	for _, e := range Elements(snap) {
		current[e.Key] = struct{}{}
		if _, known := prev[e.Key]; known {
			plan.ToUpdate = append(plan.ToUpdate, e)
		} else {
			plan.ToAdd = append(plan.ToAdd, e)
		}
	}

	for k := range prev {
		if _, ok := current[k]; !ok {
			plan.ToRemove = append(plan.ToRemove, k)
		}
	}
	sort.Strings(plan.ToRemove)

	return plan
}

// Tracker remembers the keys of the last reconciled snapshot.
type Tracker struct {
	mu   sync.Mutex
	keys []string
}

// NewTracker creates a tracker with no known elements.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Apply reconciles snap against the remembered keys and then remembers
// the keys of snap.
func (t *Tracker) Apply(snap *wireless.Snapshot) Plan {
	t.mu.Lock()
	defer t.mu.Unlock()

	plan := Reconcile(t.keys, snap)
	t.keys = Keys(snap)
	return plan
}

// Keys returns a copy of the remembered keys.
func (t *Tracker) Keys() []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Reset forgets every known element; the next Apply adds everything.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keys = nil
}
