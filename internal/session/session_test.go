package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/brantatech/linkichat/internal/document"
	"github.com/brantatech/linkichat/internal/gateway"
	"github.com/brantatech/linkichat/internal/profile"
	"github.com/brantatech/linkichat/internal/storage"
)

type memStore struct {
	data map[string]string
}

func (m *memStore) Put(key, value string) error {
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
	return nil
}

func (m *memStore) Get(key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", storage.ErrNotFound
}

type mockGateway struct {
	analysis string
	strategy gateway.Strategy
	post     gateway.Post
	audit    string
	err      error

	// when set, calls block until the channel is closed
	gate chan struct{}

	calls []string
}

func (g *mockGateway) wait() {
	if g.gate != nil {
		<-g.gate
	}
}

func (g *mockGateway) AnalyzeProfile(_ context.Context, text string) (string, error) {
	g.calls = append(g.calls, "analyze:"+text)
	g.wait()
	return g.analysis, g.err
}

func (g *mockGateway) NetworkingStrategy(_ context.Context, _, target string) (gateway.Strategy, error) {
	g.calls = append(g.calls, "networking:"+target)
	g.wait()
	return g.strategy, g.err
}

func (g *mockGateway) ContentPost(_ context.Context, _ string, fw gateway.Framework, topic string) (gateway.Post, error) {
	g.calls = append(g.calls, "content:"+string(fw)+":"+topic)
	g.wait()
	return g.post, g.err
}

func (g *mockGateway) AuditProfile(_ context.Context, text string) (string, error) {
	g.calls = append(g.calls, "audit:"+text)
	g.wait()
	return g.audit, g.err
}

func newTestSession(t *testing.T, gw Gateway) (*Session, *memStore) {
	t.Helper()
	store := &memStore{}
	logger := slog.New(slog.DiscardHandler)
	repo := profile.NewRepository(store)
	return New(repo, gw, logger), store
}

func seedTrained(t *testing.T, store *memStore, email string, history []profile.NetworkingResult) {
	t.Helper()
	p := profile.UserProfile{
		Name:              "Ada",
		RawText:           "15 years shipping infrastructure.",
		Analysis:          "Systems thinker.",
		IsTrained:         true,
		Email:             email,
		NetworkingHistory: history,
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Put(profile.StorageKey(email), string(raw)); err != nil {
		t.Fatal(err)
	}
}

func TestLoginFreshIdentityGoesToOnboarding(t *testing.T) {
	s, _ := newTestSession(t, &mockGateway{})

	st, err := s.Login("new@example.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if st.View != ViewOnboarding {
		t.Errorf("view = %v, want ONBOARDING", st.View)
	}
	if st.Profile == nil || st.Profile.Email != "new@example.com" {
		t.Errorf("profile = %+v", st.Profile)
	}
}

func TestLoginTrainedIdentityGoesToDashboard(t *testing.T) {
	s, store := newTestSession(t, &mockGateway{})
	seedTrained(t, store, "ada@example.com", []profile.NetworkingResult{
		{ID: "r1", TargetName: "Jane"},
	})

	st, err := s.Login("ada@example.com")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if st.View != ViewDashboard {
		t.Errorf("view = %v, want DASHBOARD", st.View)
	}
	if len(st.Profile.NetworkingHistory) != 1 {
		t.Errorf("history = %v", st.Profile.NetworkingHistory)
	}
}

func TestLoginRejectsInvalidEmail(t *testing.T) {
	s, _ := newTestSession(t, &mockGateway{})
	for _, email := range []string{"", "   ", "no-at-sign"} {
		if _, err := s.Login(email); err == nil {
			t.Errorf("Login(%q): expected error", email)
		}
	}
}

func TestCompleteOnboardingFromText(t *testing.T) {
	gw := &mockGateway{analysis: "Digital twin: pragmatic operator."}
	s, store := newTestSession(t, gw)
	if _, err := s.Login("new@example.com"); err != nil {
		t.Fatal(err)
	}

	st, err := s.CompleteOnboarding(t.Context(), OnboardingInput{
		Name: "Ada",
		Text: "I ship infrastructure.",
	})
	if err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	if st.View != ViewDashboard {
		t.Errorf("view = %v, want DASHBOARD", st.View)
	}
	p := st.Profile
	if !p.IsTrained || p.Name != "Ada" || p.Email != "new@example.com" {
		t.Errorf("profile = %+v", p)
	}
	if p.Analysis != gw.analysis {
		t.Errorf("analysis = %q", p.Analysis)
	}
	if _, err := store.Get(profile.StorageKey("new@example.com")); err != nil {
		t.Errorf("profile was not persisted: %v", err)
	}
}

func TestCompleteOnboardingFromDocument(t *testing.T) {
	gw := &mockGateway{analysis: "Resume analysis."}
	s, _ := newTestSession(t, gw)
	if _, err := s.Login("new@example.com"); err != nil {
		t.Fatal(err)
	}

	st, err := s.CompleteOnboarding(t.Context(), OnboardingInput{
		Name: "Ada",
		File: &document.File{Name: "resume.txt", Data: []byte("Ten years of SRE."), MIMEType: "text/plain"},
	})
	if err != nil {
		t.Fatalf("CompleteOnboarding: %v", err)
	}
	raw := st.Profile.RawText
	if !strings.HasPrefix(raw, "[Resume Uploaded: resume.txt]") {
		t.Errorf("rawText = %q", raw)
	}
	if !strings.Contains(raw, "Extracted Context & Analysis:\nResume analysis.") {
		t.Errorf("rawText missing analysis: %q", raw)
	}
	if len(gw.calls) != 1 || !strings.Contains(gw.calls[0], "Ten years of SRE.") {
		t.Errorf("gateway saw %v, want the extracted document text", gw.calls)
	}
}

func TestCompleteOnboardingGatewayFailureLeavesStateUntouched(t *testing.T) {
	gw := &mockGateway{err: errors.New("upstream down")}
	s, _ := newTestSession(t, gw)
	if _, err := s.Login("new@example.com"); err != nil {
		t.Fatal(err)
	}

	if _, err := s.CompleteOnboarding(t.Context(), OnboardingInput{Name: "Ada", Text: "x"}); err == nil {
		t.Fatal("expected gateway error")
	}
	st := s.State()
	if st.View != ViewOnboarding || st.Profile.IsTrained {
		t.Errorf("state after failure = %+v", st)
	}

	// the slot must be free for a retry
	gw.err = nil
	gw.analysis = "ok"
	if _, err := s.CompleteOnboarding(t.Context(), OnboardingInput{Name: "Ada", Text: "x"}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestOnboardingPreservesHistoryFromPriorSession(t *testing.T) {
	gw := &mockGateway{analysis: "fresh analysis"}
	s, store := newTestSession(t, gw)
	seedTrained(t, store, "ada@example.com", []profile.NetworkingResult{{ID: "old", TargetName: "Kept"}})

	// force a fresh-looking record: untrained but with history
	raw, _ := store.Get(profile.StorageKey("ada@example.com"))
	var p profile.UserProfile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	p.IsTrained = false
	out, _ := json.Marshal(p)
	_ = store.Put(profile.StorageKey("ada@example.com"), string(out))

	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}
	st, err := s.CompleteOnboarding(t.Context(), OnboardingInput{Name: "Ada v2", Text: "rebooted"})
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Profile.NetworkingHistory) != 1 || st.Profile.NetworkingHistory[0].ID != "old" {
		t.Errorf("history lost in merge: %+v", st.Profile.NetworkingHistory)
	}
}

func TestGenerateNetworkingPersistsResult(t *testing.T) {
	gw := &mockGateway{strategy: gateway.Strategy{
		TargetName:   "Jane Cooper",
		Context:      "VP Eng at Acme",
		Icebreaker:   "Loved your talk",
		FollowUp:     "Sharing notes",
		TrustBuilder: "Quarterly catch-up",
		Sources:      []string{"https://example.com/jane"},
	}}
	s, store := newTestSession(t, gw)
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	result, err := s.GenerateNetworking(t.Context(), NetworkingInput{Text: "Jane Cooper, Acme"})
	if err != nil {
		t.Fatalf("GenerateNetworking: %v", err)
	}
	if result.TargetName != "Jane Cooper" || result.ID == "" {
		t.Errorf("result = %+v", result)
	}

	raw, err := store.Get(profile.StorageKey("ada@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	var stored profile.UserProfile
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored.NetworkingHistory) != 1 || stored.NetworkingHistory[0].ID != result.ID {
		t.Errorf("stored history = %+v", stored.NetworkingHistory)
	}
}

func TestGenerateNetworkingRequiresTraining(t *testing.T) {
	s, _ := newTestSession(t, &mockGateway{})
	if _, err := s.Login("new@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GenerateNetworking(t.Context(), NetworkingInput{Text: "x"}); !errors.Is(err, ErrNotTrained) {
		t.Errorf("err = %v, want ErrNotTrained", err)
	}
}

func TestGenerateNetworkingSlotBusy(t *testing.T) {
	gw := &mockGateway{gate: make(chan struct{}), strategy: gateway.Strategy{Icebreaker: "hi"}}
	s, store := newTestSession(t, gw)
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.GenerateNetworking(context.Background(), NetworkingInput{Text: "first"})
		done <- err
	}()

	// wait for the first call to take the slot
	for {
		if st := s.State(); len(st.Busy) == 1 && st.Busy[0] == SlotNetworking {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if _, err := s.GenerateNetworking(t.Context(), NetworkingInput{Text: "second"}); !errors.Is(err, ErrSlotBusy) {
		t.Errorf("concurrent call: err = %v, want ErrSlotBusy", err)
	}

	close(gw.gate)
	if err := <-done; err != nil {
		t.Fatalf("first call: %v", err)
	}
	if st := s.State(); len(st.Busy) != 0 {
		t.Errorf("slot not released: %v", st.Busy)
	}
}

func TestNetworkingResultDiscardedAfterLogout(t *testing.T) {
	gw := &mockGateway{gate: make(chan struct{}), strategy: gateway.Strategy{Icebreaker: "hi"}}
	s, store := newTestSession(t, gw)
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.GenerateNetworking(context.Background(), NetworkingInput{Text: "target"})
		done <- err
	}()
	for {
		if st := s.State(); len(st.Busy) == 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	s.Logout()
	close(gw.gate)

	if err := <-done; !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
	raw, err := store.Get(profile.StorageKey("ada@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	var stored profile.UserProfile
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatal(err)
	}
	if len(stored.NetworkingHistory) != 0 {
		t.Errorf("late result was persisted: %+v", stored.NetworkingHistory)
	}
}

func TestDeleteNetworking(t *testing.T) {
	s, store := newTestSession(t, &mockGateway{})
	seedTrained(t, store, "ada@example.com", []profile.NetworkingResult{
		{ID: "keep"}, {ID: "drop"},
	})
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	st, err := s.DeleteNetworking("drop")
	if err != nil {
		t.Fatalf("DeleteNetworking: %v", err)
	}
	if len(st.Profile.NetworkingHistory) != 1 || st.Profile.NetworkingHistory[0].ID != "keep" {
		t.Errorf("history = %+v", st.Profile.NetworkingHistory)
	}

	// unknown id is a no-op
	st, err = s.DeleteNetworking("ghost")
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Profile.NetworkingHistory) != 1 {
		t.Errorf("history = %+v", st.Profile.NetworkingHistory)
	}
}

func TestGenerateContentIsNotPersisted(t *testing.T) {
	gw := &mockGateway{post: gateway.Post{PostBody: "The playbook.", VisualDescription: "Whiteboard"}}
	s, store := newTestSession(t, gw)
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}
	before, _ := store.Get(profile.StorageKey("ada@example.com"))

	post, err := s.GenerateContent(t.Context(), gateway.FrameworkSystemReveal, "hiring")
	if err != nil {
		t.Fatalf("GenerateContent: %v", err)
	}
	if post.PostBody != "The playbook." {
		t.Errorf("post = %+v", post)
	}

	after, _ := store.Get(profile.StorageKey("ada@example.com"))
	if before != after {
		t.Error("content generation modified the stored profile")
	}
}

func TestGenerateContentRequiresTopic(t *testing.T) {
	s, store := newTestSession(t, &mockGateway{})
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GenerateContent(t.Context(), gateway.FrameworkRealityCheck, "  "); err == nil {
		t.Error("expected error for empty topic")
	}
}

func TestRunAudit(t *testing.T) {
	gw := &mockGateway{audit: "Strong positioning, weak proof."}
	s, store := newTestSession(t, gw)
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	report, err := s.RunAudit(t.Context())
	if err != nil {
		t.Fatalf("RunAudit: %v", err)
	}
	if report != gw.audit {
		t.Errorf("report = %q", report)
	}
	if len(gw.calls) != 1 || !strings.Contains(gw.calls[0], "15 years shipping infrastructure.") {
		t.Errorf("audit input = %v", gw.calls)
	}
}

func TestSelectTab(t *testing.T) {
	s, store := newTestSession(t, &mockGateway{})

	if _, err := s.SelectTab(ViewNetworking); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("signed out: err = %v", err)
	}

	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	st, err := s.SelectTab(ViewSettings)
	if err != nil {
		t.Fatalf("SelectTab: %v", err)
	}
	if st.View != ViewSettings {
		t.Errorf("view = %v", st.View)
	}

	if _, err := s.SelectTab(ViewAuth); err == nil {
		t.Error("AUTH should not be selectable")
	}
	if _, err := s.SelectTab(ViewOnboarding); err == nil {
		t.Error("ONBOARDING should not be selectable")
	}
}

func TestSelectTabRequiresTraining(t *testing.T) {
	s, _ := newTestSession(t, &mockGateway{})
	if _, err := s.Login("new@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SelectTab(ViewContent); !errors.Is(err, ErrNotTrained) {
		t.Errorf("err = %v, want ErrNotTrained", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	s, store := newTestSession(t, &mockGateway{})
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	name := "Ada L."
	avatar := ""
	st, err := s.UpdateSettings(SettingsUpdate{Name: &name, Avatar: &avatar})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if st.Profile.Name != "Ada L." || st.Profile.Avatar != "" {
		t.Errorf("profile = %+v", st.Profile)
	}

	raw, _ := store.Get(profile.StorageKey("ada@example.com"))
	var stored profile.UserProfile
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Name != "Ada L." {
		t.Errorf("stored name = %q", stored.Name)
	}

	empty := ""
	if _, err := s.UpdateSettings(SettingsUpdate{Name: &empty}); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := s.UpdateSettings(SettingsUpdate{RawText: &empty}); err == nil {
		t.Error("expected error for empty profile text on a trained profile")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	s, store := newTestSession(t, &mockGateway{})
	seedTrained(t, store, "ada@example.com", nil)
	if _, err := s.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}

	st := s.Logout()
	if st.View != ViewAuth || st.Profile != nil {
		t.Errorf("state after logout = %+v", st)
	}
	if _, err := s.RunAudit(t.Context()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("err = %v, want ErrNotAuthenticated", err)
	}
}
