package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/brantatech/linkichat/internal/document"
	"github.com/brantatech/linkichat/internal/gateway"
	"github.com/brantatech/linkichat/internal/profile"
)

var (
	// ErrNotAuthenticated is returned by operations that require a
	// signed-in identity.
	ErrNotAuthenticated = errors.New("not signed in")

	// ErrNotTrained is returned by dashboard operations invoked before
	// onboarding has completed.
	ErrNotTrained = errors.New("profile has not been onboarded")

	// ErrInvalidInput wraps request validation failures so transport
	// layers can distinguish them from upstream errors.
	ErrInvalidInput = errors.New("invalid input")
)

// Gateway is the slice of the AI client the session depends on.
type Gateway interface {
	AnalyzeProfile(ctx context.Context, profileText string) (string, error)
	NetworkingStrategy(ctx context.Context, profileContext, target string) (gateway.Strategy, error)
	ContentPost(ctx context.Context, profileContext string, framework gateway.Framework, topic string) (gateway.Post, error)
	AuditProfile(ctx context.Context, profileText string) (string, error)
}

// ProfileStore is the slice of the profile repository the session depends on.
type ProfileStore interface {
	ResolveOnLogin(email string) profile.UserProfile
	CompleteOnboarding(prior, onboarded profile.UserProfile) profile.UserProfile
	UpdateProfile(p profile.UserProfile) profile.UserProfile
}

// Session is the single-user application state machine.
type Session struct {
	repo   ProfileStore
	gw     Gateway
	client *http.Client
	logger *slog.Logger

	mu      sync.Mutex
	view    View
	profile *profile.UserProfile
	slots   slotTracker
}

// New creates a signed-out Session.
func New(repo ProfileStore, gw Gateway, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		repo:   repo,
		gw:     gw,
		client: &http.Client{},
		logger: logger,
		view:   ViewAuth,
		slots:  make(slotTracker),
	}
}

// State is a snapshot of the session for API and CLI consumers.
type State struct {
	View    View
	Profile *profile.UserProfile
	Busy    []Slot
}

// State returns a copy of the current session state. The profile is a deep
// copy; nil when signed out.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{View: s.view, Profile: s.profileCopy(), Busy: s.slots.busy()}
}

// Login resolves the profile stored for the identity and signs it in.
// A trained profile lands on the dashboard; a fresh or untrained one goes to
// onboarding.
func (s *Session) Login(email string) (State, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return State{}, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}

	p := s.repo.ResolveOnLogin(email)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &p
	if p.IsTrained {
		s.view = ViewDashboard
	} else {
		s.view = ViewOnboarding
	}
	s.logger.Info("signed in", "email", email, "trained", p.IsTrained)
	return State{View: s.view, Profile: s.profileCopy(), Busy: s.slots.busy()}, nil
}

// Logout clears the in-memory identity. Persisted state is untouched.
func (s *Session) Logout() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	s.view = ViewAuth
	return State{View: s.view}
}

// SelectTab switches between dashboard tabs. Only a trained, signed-in
// profile may navigate; AUTH and ONBOARDING cannot be selected directly.
func (s *Session) SelectTab(v View) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return State{}, ErrNotAuthenticated
	}
	if !s.profile.IsTrained {
		return State{}, ErrNotTrained
	}
	if !isTab(v) {
		return State{}, fmt.Errorf("%w: view %q is not selectable", ErrInvalidInput, v)
	}
	s.view = v
	return State{View: s.view, Profile: s.profileCopy(), Busy: s.slots.busy()}, nil
}

// OnboardingInput is the material for the one-time profile analysis: a
// display name plus either pasted text or an uploaded document.
type OnboardingInput struct {
	Name string
	Text string
	File *document.File
}

// CompleteOnboarding runs the profile analysis and promotes the session to
// the dashboard. The identity and networking history of the signed-in
// profile survive the merge. A gateway failure leaves the session unchanged.
func (s *Session) CompleteOnboarding(ctx context.Context, in OnboardingInput) (State, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return State{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Text) == "" && in.File == nil {
		return State{}, fmt.Errorf("%w: profile text or a document is required", ErrInvalidInput)
	}

	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return State{}, ErrNotAuthenticated
	}
	if err := s.slots.acquire(SlotOnboarding); err != nil {
		s.mu.Unlock()
		return State{}, err
	}
	email := s.profile.Email
	s.mu.Unlock()

	result, err := s.analyze(ctx, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots.release(SlotOnboarding)
	if err != nil {
		return State{}, err
	}
	if s.profile == nil || s.profile.Email != email {
		s.logger.Warn("discarding onboarding result, identity changed", "email", email)
		return State{}, ErrNotAuthenticated
	}

	merged := s.repo.CompleteOnboarding(*s.profile, result)
	s.profile = &merged
	s.view = ViewDashboard
	s.logger.Info("onboarding complete", "email", email)
	return State{View: s.view, Profile: s.profileCopy(), Busy: s.slots.busy()}, nil
}

// analyze extracts the input text, runs the gateway analysis, and assembles
// the onboarded profile. Runs without the session lock held.
func (s *Session) analyze(ctx context.Context, in OnboardingInput) (profile.UserProfile, error) {
	rawText := strings.TrimSpace(in.Text)
	analysisInput := rawText
	if in.File != nil {
		extracted, err := document.ExtractText(*in.File)
		if err != nil {
			return profile.UserProfile{}, fmt.Errorf("%w: reading document: %v", ErrInvalidInput, err)
		}
		analysisInput = extracted
	}

	analysis, err := s.gw.AnalyzeProfile(ctx, analysisInput)
	if err != nil {
		return profile.UserProfile{}, err
	}

	if in.File != nil {
		rawText = fmt.Sprintf("[Resume Uploaded: %s]\n\nExtracted Context & Analysis:\n%s",
			in.File.Name, analysis)
	}
	return profile.UserProfile{
		Name:     in.Name,
		RawText:  rawText,
		Analysis: analysis,
	}, nil
}

// NetworkingInput names a target connection: pasted text, a public URL, or
// an uploaded document. Exactly one must be set.
type NetworkingInput struct {
	Text string
	URL  string
	File *document.File
}

// GenerateNetworking researches the target, generates a relationship
// strategy, and prepends the result to the persisted history. The result is
// applied even if the user has navigated elsewhere in the meantime, but is
// discarded if the identity changed underneath the call.
func (s *Session) GenerateNetworking(ctx context.Context, in NetworkingInput) (profile.NetworkingResult, error) {
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return profile.NetworkingResult{}, ErrNotAuthenticated
	}
	if !s.profile.IsTrained {
		s.mu.Unlock()
		return profile.NetworkingResult{}, ErrNotTrained
	}
	if err := s.slots.acquire(SlotNetworking); err != nil {
		s.mu.Unlock()
		return profile.NetworkingResult{}, err
	}
	email := s.profile.Email
	profileContext := s.profile.RawText
	s.mu.Unlock()

	result, err := s.research(ctx, profileContext, in)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots.release(SlotNetworking)
	if err != nil {
		return profile.NetworkingResult{}, err
	}
	if s.profile == nil || s.profile.Email != email {
		s.logger.Warn("discarding networking result, identity changed", "email", email)
		return profile.NetworkingResult{}, ErrNotAuthenticated
	}

	updated := s.repo.UpdateProfile(profile.AppendResult(*s.profile, result))
	s.profile = &updated
	return result, nil
}

func (s *Session) research(ctx context.Context, profileContext string, in NetworkingInput) (profile.NetworkingResult, error) {
	target := strings.TrimSpace(in.Text)
	fileName := ""
	switch {
	case in.File != nil:
		extracted, err := document.ExtractText(*in.File)
		if err != nil {
			return profile.NetworkingResult{}, fmt.Errorf("%w: reading document: %v", ErrInvalidInput, err)
		}
		target = extracted
		fileName = in.File.Name
	case in.URL != "":
		fetched, err := document.FetchText(ctx, s.client, in.URL)
		if err != nil {
			return profile.NetworkingResult{}, fmt.Errorf("fetching target url: %w", err)
		}
		target = fetched
	case target == "":
		return profile.NetworkingResult{}, fmt.Errorf("%w: target text, url, or document is required", ErrInvalidInput)
	}

	strategy, err := s.gw.NetworkingStrategy(ctx, profileContext, target)
	if err != nil {
		return profile.NetworkingResult{}, err
	}

	return profile.NewResult(
		profile.TargetName(strategy.TargetName, fileName),
		strategy.Context,
		strategy.Icebreaker,
		strategy.FollowUp,
		strategy.TrustBuilder,
		strategy.Sources,
	), nil
}

// DeleteNetworking removes one history entry by id and persists the change.
// An unknown id is a no-op.
func (s *Session) DeleteNetworking(id string) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return State{}, ErrNotAuthenticated
	}
	updated := s.repo.UpdateProfile(profile.RemoveResult(*s.profile, id))
	s.profile = &updated
	return State{View: s.view, Profile: s.profileCopy(), Busy: s.slots.busy()}, nil
}

// GenerateContent produces a post for the given framework and topic. Posts
// are returned to the caller but never persisted.
func (s *Session) GenerateContent(ctx context.Context, framework gateway.Framework, topic string) (gateway.Post, error) {
	if strings.TrimSpace(topic) == "" {
		return gateway.Post{}, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}

	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return gateway.Post{}, ErrNotAuthenticated
	}
	if !s.profile.IsTrained {
		s.mu.Unlock()
		return gateway.Post{}, ErrNotTrained
	}
	if err := s.slots.acquire(SlotContent); err != nil {
		s.mu.Unlock()
		return gateway.Post{}, err
	}
	profileContext := s.profile.RawText
	s.mu.Unlock()

	post, err := s.gw.ContentPost(ctx, profileContext, framework, topic)

	s.mu.Lock()
	s.slots.release(SlotContent)
	s.mu.Unlock()
	return post, err
}

// RunAudit compares the profile against top-creator patterns. The report is
// returned to the caller but never persisted.
func (s *Session) RunAudit(ctx context.Context) (string, error) {
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return "", ErrNotAuthenticated
	}
	if !s.profile.IsTrained {
		s.mu.Unlock()
		return "", ErrNotTrained
	}
	if err := s.slots.acquire(SlotAudit); err != nil {
		s.mu.Unlock()
		return "", err
	}
	profileText := s.profile.RawText
	s.mu.Unlock()

	report, err := s.gw.AuditProfile(ctx, profileText)

	s.mu.Lock()
	s.slots.release(SlotAudit)
	s.mu.Unlock()
	return report, err
}

// SettingsUpdate carries partial profile edits. Nil fields are unchanged.
// An empty Avatar clears the stored avatar.
type SettingsUpdate struct {
	Name    *string
	RawText *string
	Avatar  *string
}

// UpdateSettings applies profile edits and persists them. Name and profile
// text cannot be emptied once the profile is trained.
func (s *Session) UpdateSettings(upd SettingsUpdate) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return State{}, ErrNotAuthenticated
	}

	p := s.profile.Clone()
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return State{}, fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		p.Name = name
	}
	if upd.RawText != nil {
		text := strings.TrimSpace(*upd.RawText)
		if text == "" && p.IsTrained {
			return State{}, fmt.Errorf("%w: profile text cannot be empty", ErrInvalidInput)
		}
		p.RawText = text
	}
	if upd.Avatar != nil {
		p.Avatar = *upd.Avatar
	}

	updated := s.repo.UpdateProfile(p)
	s.profile = &updated
	return State{View: s.view, Profile: s.profileCopy(), Busy: s.slots.busy()}, nil
}

// profileCopy returns a deep copy of the signed-in profile, or nil. Callers
// must hold the mutex.
func (s *Session) profileCopy() *profile.UserProfile {
	if s.profile == nil {
		return nil
	}
	p := s.profile.Clone()
	return &p
}
