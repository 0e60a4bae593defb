package profile

import (
	"errors"
	"reflect"
	"testing"

	"github.com/brantatech/linkichat/internal/storage"
)

// --- Mock store ---

type mockStore struct {
	data    map[string]string
	putErr  error
	getErr  error
	putted  int
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Put(key, value string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.putted++
	m.data[key] = value
	return nil
}

func (m *mockStore) Get(key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// --- Tests ---

func TestStorageKey(t *testing.T) {
	if got := StorageKey("a@x.com"); got != "linkichat_user_a@x.com" {
		t.Errorf("StorageKey = %q, want %q", got, "linkichat_user_a@x.com")
	}
	// Identity is used verbatim, case preserved.
	if got := StorageKey("A@X.com"); got != "linkichat_user_A@X.com" {
		t.Errorf("StorageKey = %q, want %q", got, "linkichat_user_A@X.com")
	}
}

func TestResolveOnLogin_NewIdentity(t *testing.T) {
	repo := NewRepository(newMockStore())

	p := repo.ResolveOnLogin("a@x.com")

	want := UserProfile{Email: "a@x.com", NetworkingHistory: []NetworkingResult{}}
	if !reflect.DeepEqual(p, want) {
		t.Errorf("fresh profile = %+v, want %+v", p, want)
	}
}

func TestResolveOnLogin_RoundTrip(t *testing.T) {
	store := newMockStore()
	repo := NewRepository(store)

	saved := UserProfile{
		Name:      "Ada",
		RawText:   "bio",
		Analysis:  "analysis",
		IsTrained: true,
		Avatar:    "data:image/png;base64,xyz",
		Email:     "a@x.com",
		NetworkingHistory: []NetworkingResult{
			sampleResult("1"),
		},
	}
	repo.UpdateProfile(saved)

	got := repo.ResolveOnLogin("a@x.com")
	if !reflect.DeepEqual(got, saved) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, saved)
	}
}

func TestResolveOnLogin_CorruptRecord(t *testing.T) {
	store := newMockStore()
	store.data[StorageKey("a@x.com")] = "{not json"
	repo := NewRepository(store)

	p := repo.ResolveOnLogin("a@x.com")

	want := Fresh("a@x.com")
	if !reflect.DeepEqual(p, want) {
		t.Errorf("corrupt record fallback = %+v, want fresh %+v", p, want)
	}
}

func TestResolveOnLogin_StoreError(t *testing.T) {
	store := newMockStore()
	store.getErr = errors.New("disk on fire")
	repo := NewRepository(store)

	p := repo.ResolveOnLogin("a@x.com")
	if !reflect.DeepEqual(p, Fresh("a@x.com")) {
		t.Errorf("store-error fallback = %+v, want fresh profile", p)
	}
}

func TestResolveOnLogin_LegacyRecordWithoutHistory(t *testing.T) {
	store := newMockStore()
	// Record written before networkingHistory/avatar/email existed.
	store.data[StorageKey("a@x.com")] = `{"name":"Ada","rawText":"bio","isTrained":true}`
	repo := NewRepository(store)

	p := repo.ResolveOnLogin("a@x.com")

	if p.NetworkingHistory == nil || len(p.NetworkingHistory) != 0 {
		t.Errorf("missing history should load as empty, got %+v", p.NetworkingHistory)
	}
	if p.Email != "a@x.com" {
		t.Errorf("missing email should be filled from identity, got %q", p.Email)
	}
	if !p.IsTrained || p.Name != "Ada" {
		t.Errorf("surviving fields lost: %+v", p)
	}
}

func TestCompleteOnboarding_MergesIdentityAndHistory(t *testing.T) {
	store := newMockStore()
	repo := NewRepository(store)

	prior := Fresh("a@x.com")
	prior = AppendResult(prior, sampleResult("kept"))

	merged := repo.CompleteOnboarding(prior, UserProfile{
		Name:     "Ada",
		RawText:  "bio",
		Analysis: "digital twin ready",
	})

	if merged.Name != "Ada" || merged.RawText != "bio" || merged.Analysis != "digital twin ready" {
		t.Errorf("onboarding fields not applied: %+v", merged)
	}
	if !merged.IsTrained {
		t.Error("merged profile should be trained")
	}
	if merged.Email != "a@x.com" {
		t.Errorf("email = %q, want carried-over a@x.com", merged.Email)
	}
	if len(merged.NetworkingHistory) != 1 || merged.NetworkingHistory[0].ID != "kept" {
		t.Errorf("history not carried over: %+v", merged.NetworkingHistory)
	}
	if store.putted != 1 {
		t.Errorf("expected one persisted write, got %d", store.putted)
	}
}

func TestCompleteOnboarding_Scenario(t *testing.T) {
	store := newMockStore()
	repo := NewRepository(store)

	// "a@x.com" logs in with no prior record, then completes onboarding.
	fresh := repo.ResolveOnLogin("a@x.com")
	merged := repo.CompleteOnboarding(fresh, UserProfile{Name: "Ada", RawText: "bio"})

	want := UserProfile{
		Name:              "Ada",
		RawText:           "bio",
		IsTrained:         true,
		Email:             "a@x.com",
		NetworkingHistory: []NetworkingResult{},
	}
	if !reflect.DeepEqual(merged, want) {
		t.Errorf("merged = %+v, want %+v", merged, want)
	}

	// The merged profile is the one a later login resolves to.
	if got := repo.ResolveOnLogin("a@x.com"); !reflect.DeepEqual(got, want) {
		t.Errorf("reloaded = %+v, want %+v", got, want)
	}
}

func TestUpdateProfile_WriteFailureIsSwallowed(t *testing.T) {
	store := newMockStore()
	store.putErr = errors.New("quota exceeded")
	repo := NewRepository(store)

	p := Fresh("a@x.com")
	p.Name = "Ada"

	// Must not panic or surface the error; the in-memory value is returned.
	got := repo.UpdateProfile(p)
	if !reflect.DeepEqual(got, p) {
		t.Errorf("UpdateProfile = %+v, want %+v", got, p)
	}
}

func TestSave_SkipsProfileWithoutIdentity(t *testing.T) {
	store := newMockStore()
	repo := NewRepository(store)

	repo.UpdateProfile(UserProfile{Name: "nobody"})

	if len(store.data) != 0 {
		t.Errorf("identity-less profile was persisted: %+v", store.data)
	}
}
