package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	fallbackContextLimit = 200

	fallbackIcebreaker   = "Error generating structured data. Please try again."
	fallbackFollowUp     = "Error."
	fallbackTrustBuilder = "Error."
)

// ParseStrategy decodes the model's networking reply. Search-grounded calls
// cannot use a response schema, so the model occasionally wraps the JSON in
// markdown fences or ignores the format entirely. Fenced JSON is unwrapped;
// anything still unparsable degrades to a Strategy carrying a truncated
// excerpt of the raw reply, so the caller can still record the attempt.
// Grounding sources survive either way.
func ParseStrategy(raw string, sources []string) Strategy {
	text := stripCodeFences(raw)

	var s Strategy
	if err := json.Unmarshal([]byte(text), &s); err == nil && s.Icebreaker != "" {
		s.Sources = sources
		return s
	}

	excerpt := text
	if len(excerpt) > fallbackContextLimit {
		excerpt = excerpt[:fallbackContextLimit]
	}
	return Strategy{
		Context:      excerpt + "...",
		Icebreaker:   fallbackIcebreaker,
		FollowUp:     fallbackFollowUp,
		TrustBuilder: fallbackTrustBuilder,
		Sources:      sources,
	}
}

func parsePost(raw string) (Post, error) {
	var p Post
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &p); err != nil {
		return Post{}, fmt.Errorf("decoding post response: %w", err)
	}
	if p.PostBody == "" {
		return Post{}, fmt.Errorf("post response missing postBody")
	}
	return p, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or without
// a language tag, leaving other text untouched.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		// A language tag has no spaces; anything else is content.
		if first == "" || !strings.ContainsAny(first, " \t{") {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
