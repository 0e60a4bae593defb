package gateway

import (
	"strings"
	"testing"
)

func TestParseStrategyPlainJSON(t *testing.T) {
	raw := `{"targetName":"Jane Cooper","context":"VP Eng at Acme","icebreaker":"Saw your talk","followUp":"Sharing a post","trustBuilder":"Intro to my network"}`

	s := ParseStrategy(raw, []string{"https://example.com/jane"})

	if s.TargetName != "Jane Cooper" {
		t.Errorf("targetName = %q", s.TargetName)
	}
	if s.Icebreaker != "Saw your talk" {
		t.Errorf("icebreaker = %q", s.Icebreaker)
	}
	if len(s.Sources) != 1 || s.Sources[0] != "https://example.com/jane" {
		t.Errorf("sources = %v", s.Sources)
	}
}

func TestParseStrategyFencedJSON(t *testing.T) {
	raw := "```json\n{\"context\":\"c\",\"icebreaker\":\"i\",\"followUp\":\"f\",\"trustBuilder\":\"t\"}\n```"

	s := ParseStrategy(raw, nil)

	if s.Icebreaker != "i" || s.FollowUp != "f" || s.TrustBuilder != "t" {
		t.Errorf("unexpected strategy: %+v", s)
	}
}

func TestParseStrategyFallbackOnProse(t *testing.T) {
	raw := "I could not find enough information to build a strategy for this target."

	s := ParseStrategy(raw, []string{"https://example.com"})

	if !strings.HasPrefix(s.Context, "I could not find") || !strings.HasSuffix(s.Context, "...") {
		t.Errorf("context = %q", s.Context)
	}
	if s.Icebreaker != fallbackIcebreaker {
		t.Errorf("icebreaker = %q", s.Icebreaker)
	}
	if len(s.Sources) != 1 {
		t.Errorf("sources dropped on fallback: %v", s.Sources)
	}
}

func TestParseStrategyFallbackTruncates(t *testing.T) {
	raw := strings.Repeat("x", 500)

	s := ParseStrategy(raw, nil)

	if len(s.Context) != fallbackContextLimit+len("...") {
		t.Errorf("context length = %d", len(s.Context))
	}
}

func TestParsePost(t *testing.T) {
	p, err := parsePost("```json\n{\"postBody\":\"Here is the playbook.\",\"visualDescription\":\"Whiteboard photo\"}\n```")
	if err != nil {
		t.Fatalf("parsePost: %v", err)
	}
	if p.PostBody != "Here is the playbook." || p.VisualDescription != "Whiteboard photo" {
		t.Errorf("unexpected post: %+v", p)
	}
}

func TestParsePostRejectsGarbage(t *testing.T) {
	if _, err := parsePost("not json at all"); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
	if _, err := parsePost(`{"visualDescription":"only visuals"}`); err == nil {
		t.Fatal("expected error for missing postBody")
	}
}

func TestParseFramework(t *testing.T) {
	for _, name := range []string{"SYSTEM_REVEAL", "REALITY_CHECK", "MINDSET_SHIFT"} {
		if _, err := ParseFramework(name); err != nil {
			t.Errorf("ParseFramework(%q): %v", name, err)
		}
	}
	if _, err := ParseFramework("HOT_TAKE"); err == nil {
		t.Error("expected error for unknown framework")
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```{\"a\":1}```", "{\"a\":1}"},
		{"plain prose", "plain prose"},
	}
	for _, tc := range cases {
		if got := stripCodeFences(tc.in); got != tc.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
