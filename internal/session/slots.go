package session

import (
	"errors"
	"fmt"
)

// ErrSlotBusy is returned when a generation is requested while another of
// the same kind is still running.
var ErrSlotBusy = errors.New("generation already in progress")

// Slot names one kind of long-running gateway call. At most one call per
// slot may be in flight; different slots run concurrently.
type Slot string

const (
	SlotOnboarding Slot = "onboarding"
	SlotNetworking Slot = "networking"
	SlotContent    Slot = "content"
	SlotAudit      Slot = "audit"
)

// slotTracker records which slots are busy. Callers must hold the session
// mutex around acquire and release.
type slotTracker map[Slot]bool

func (t slotTracker) acquire(s Slot) error {
	if t[s] {
		return fmt.Errorf("%s: %w", s, ErrSlotBusy)
	}
	t[s] = true
	return nil
}

func (t slotTracker) release(s Slot) {
	delete(t, s)
}

func (t slotTracker) busy() []Slot {
	var out []Slot
	for _, s := range []Slot{SlotOnboarding, SlotNetworking, SlotContent, SlotAudit} {
		if t[s] {
			out = append(out, s)
		}
	}
	return out
}
