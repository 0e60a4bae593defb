// Package profile owns the canonical user profile record, its merge rules,
// and its persistence against the record store.
package profile

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserProfile is the root record for a signed-in identity. The JSON shape is
// the on-disk persistence format and must stay loadable across releases:
// analysis, avatar, email and networkingHistory are additive fields and may
// be absent in older records.
type UserProfile struct {
	Name              string             `json:"name"`
	RawText           string             `json:"rawText"`
	Analysis          string             `json:"analysis,omitempty"`
	IsTrained         bool               `json:"isTrained"`
	Avatar            string             `json:"avatar,omitempty"`
	Email             string             `json:"email,omitempty"`
	NetworkingHistory []NetworkingResult `json:"networkingHistory"`
}

// NetworkingResult is one saved dossier in the networking history. Entries
// are immutable after creation; the ledger only prepends and removes whole
// entries, keyed by ID.
type NetworkingResult struct {
	ID           string   `json:"id"`
	Timestamp    int64    `json:"timestamp"` // milliseconds since epoch
	TargetName   string   `json:"targetName"`
	Context      string   `json:"context"`
	Icebreaker   string   `json:"icebreaker"`
	FollowUp     string   `json:"followUp"`
	TrustBuilder string   `json:"trustBuilder"`
	Sources      []string `json:"sources,omitempty"`
}

// Fresh returns the profile a brand-new (or unrecoverable) identity starts
// with: untrained, empty history, email set from the login identity.
func Fresh(email string) UserProfile {
	return UserProfile{
		Email:             email,
		NetworkingHistory: []NetworkingResult{},
	}
}

// Clone returns a deep copy, so callers can hand out profile values without
// sharing history backing arrays.
func (p UserProfile) Clone() UserProfile {
	cp := p
	if p.NetworkingHistory != nil {
		cp.NetworkingHistory = make([]NetworkingResult, len(p.NetworkingHistory))
		copy(cp.NetworkingHistory, p.NetworkingHistory)
		for i, r := range cp.NetworkingHistory {
			if r.Sources != nil {
				src := make([]string, len(r.Sources))
				copy(src, r.Sources)
				cp.NetworkingHistory[i].Sources = src
			}
		}
	}
	return cp
}

// defaultTargetLabel names dossiers generated from pasted text.
const defaultTargetLabel = "Text Analysis"

// TargetName picks the display label for a dossier: the AI-supplied label
// when present, else the uploaded file name with its extension stripped,
// else a generic text label.
func TargetName(aiLabel, fileName string) string {
	if aiLabel != "" {
		return aiLabel
	}
	if fileName != "" {
		return strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}
	return defaultTargetLabel
}

// NewResult builds a dossier with a fresh unique ID and creation timestamp.
// IDs are never reused, so re-running the same analysis yields a distinct
// history entry.
func NewResult(targetName, context, icebreaker, followUp, trustBuilder string, sources []string) NetworkingResult {
	return NetworkingResult{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UnixMilli(),
		TargetName:   targetName,
		Context:      context,
		Icebreaker:   icebreaker,
		FollowUp:     followUp,
		TrustBuilder: trustBuilder,
		Sources:      sources,
	}
}
