// Package gateway is the client for the upstream generative-AI service.
// It owns request construction, structured-output parsing, and the graceful
// degradation applied when the model returns text that is not valid JSON.
package gateway

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// DefaultModel is the generation model used unless configured otherwise.
const DefaultModel = "gemini-2.5-flash"

// Strategy is the structured networking roadmap for one target connection.
type Strategy struct {
	TargetName   string   `json:"targetName,omitempty"`
	Context      string   `json:"context"`
	Icebreaker   string   `json:"icebreaker"`
	FollowUp     string   `json:"followUp"`
	TrustBuilder string   `json:"trustBuilder"`
	Sources      []string `json:"sources,omitempty"`
}

// Post is one generated content piece: the post text and its visual concept.
type Post struct {
	PostBody          string `json:"postBody"`
	VisualDescription string `json:"visualDescription"`
}

// Framework selects the narrative structure for generated posts.
type Framework string

const (
	FrameworkSystemReveal Framework = "SYSTEM_REVEAL"
	FrameworkRealityCheck Framework = "REALITY_CHECK"
	FrameworkMindsetShift Framework = "MINDSET_SHIFT"
)

// ParseFramework validates a framework name from an API request.
func ParseFramework(s string) (Framework, error) {
	switch Framework(s) {
	case FrameworkSystemReveal, FrameworkRealityCheck, FrameworkMindsetShift:
		return Framework(s), nil
	}
	return "", fmt.Errorf("unknown content framework %q", s)
}

// Client calls the Gemini API. All methods are safe for concurrent use.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Client for the given API key. An empty model selects
// DefaultModel.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Client{client: client, model: model}, nil
}

// AnalyzeProfile runs the one-time onboarding analysis over the user's
// profile text, returning the free-text "digital twin" analysis.
func (c *Client) AnalyzeProfile(ctx context.Context, profileText string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(analyzePrompt(profileText)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("profile analysis: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("profile analysis: empty model response")
	}
	return text, nil
}

// NetworkingStrategy generates a relationship roadmap for a target
// connection, grounded with Google Search. A response schema cannot be
// combined with search tools, so the model is prompted for raw JSON and the
// reply is parsed leniently: unparsable output degrades to a synthesized
// Strategy rather than an error, so the caller always gets a well-formed
// record once the transport succeeded.
func (c *Client) NetworkingStrategy(ctx context.Context, profileContext, target string) (Strategy, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(networkingPrompt(profileContext, target)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
		},
	)
	if err != nil {
		return Strategy{}, fmt.Errorf("networking strategy: %w", err)
	}

	return ParseStrategy(resp.Text(), groundingSources(resp)), nil
}

// ContentPost generates a post for the given framework and topic. Output is
// schema-constrained, so the reply is strict JSON.
func (c *Client) ContentPost(ctx context.Context, profileContext string, framework Framework, topic string) (Post, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(contentPrompt(profileContext, framework, topic)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    postSchema(),
		},
	)
	if err != nil {
		return Post{}, fmt.Errorf("content post: %w", err)
	}

	post, err := parsePost(resp.Text())
	if err != nil {
		return Post{}, fmt.Errorf("content post: %w", err)
	}
	return post, nil
}

// AuditProfile compares the user's profile against top-creator patterns and
// returns the free-text audit.
func (c *Client) AuditProfile(ctx context.Context, profileText string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(auditPrompt(profileText)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		},
	)
	if err != nil {
		return "", fmt.Errorf("profile audit: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("profile audit: empty model response")
	}
	return text, nil
}

func postSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"postBody":          {Type: genai.TypeString, Description: "The post content."},
			"visualDescription": {Type: genai.TypeString, Description: "Description of the image/overlay OR a video script with [Visual] and [Audio] columns."},
		},
		Required: []string{"postBody", "visualDescription"},
	}
}

// groundingSources collects the web URIs backing a search-grounded response.
func groundingSources(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	meta := resp.Candidates[0].GroundingMetadata
	if meta == nil {
		return nil
	}
	var sources []string
	for _, chunk := range meta.GroundingChunks {
		if chunk != nil && chunk.Web != nil && chunk.Web.URI != "" {
			sources = append(sources, chunk.Web.URI)
		}
	}
	return sources
}
