package profile

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/brantatech/linkichat/internal/storage"
)

// keyPrefix namespaces profile records in the shared record store. The full
// key embeds the login email verbatim, case-sensitive.
const keyPrefix = "linkichat_user_"

// StorageKey returns the record-store key for the given identity.
func StorageKey(email string) string {
	return keyPrefix + email
}

// RecordStore is the persistence surface the repository needs.
// Implemented by storage.Store.
type RecordStore interface {
	Put(key, value string) error
	Get(key string) (string, error)
}

// Repository loads and saves user profiles. Persistence is best-effort by
// design: write failures are logged and swallowed so a full store never
// interrupts the session, and unreadable records degrade to a fresh profile.
type Repository struct {
	store  RecordStore
	logger *slog.Logger
}

// NewRepository creates a Repository over the given store.
func NewRepository(store RecordStore) *Repository {
	return &Repository{store: store, logger: slog.Default()}
}

// ResolveOnLogin returns the stored profile for email, or a fresh one when
// no record exists or the stored record cannot be decoded. The two fallback
// paths are indistinguishable to the caller: both mean "start onboarding".
func (r *Repository) ResolveOnLogin(email string) UserProfile {
	raw, err := r.store.Get(StorageKey(email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Warn("profile load failed, treating identity as new", "key", StorageKey(email), "error", err)
		}
		return Fresh(email)
	}

	var p UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		r.logger.Warn("stored profile is corrupt, treating identity as new", "key", StorageKey(email), "error", err)
		return Fresh(email)
	}

	// Tolerate records written before these fields existed.
	if p.NetworkingHistory == nil {
		p.NetworkingHistory = []NetworkingResult{}
	}
	if p.Email == "" {
		p.Email = email
	}
	return p
}

// CompleteOnboarding merges the onboarding output (name, rawText, analysis)
// with the email and networking history carried over from the profile that
// was active before onboarding, marks the result trained, and persists it.
func (r *Repository) CompleteOnboarding(prior, onboarded UserProfile) UserProfile {
	merged := onboarded
	merged.IsTrained = true
	merged.Email = prior.Email
	merged.NetworkingHistory = prior.NetworkingHistory
	if merged.NetworkingHistory == nil {
		merged.NetworkingHistory = []NetworkingResult{}
	}
	r.save(merged)
	return merged
}

// UpdateProfile replaces the persisted profile wholesale with p. Field-level
// invariants are the caller's responsibility.
func (r *Repository) UpdateProfile(p UserProfile) UserProfile {
	r.save(p)
	return p
}

func (r *Repository) save(p UserProfile) {
	if p.Email == "" {
		r.logger.Warn("refusing to persist profile without identity")
		return
	}
	raw, err := json.Marshal(p)
	if err != nil {
		r.logger.Warn("profile serialization failed, keeping in-memory copy only", "error", err)
		return
	}
	if err := r.store.Put(StorageKey(p.Email), string(raw)); err != nil {
		r.logger.Warn("profile write failed, keeping in-memory copy only", "key", StorageKey(p.Email), "error", err)
	}
}
