package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/brantatech/linkichat/internal/gateway"
	"github.com/brantatech/linkichat/internal/profile"
	"github.com/brantatech/linkichat/internal/session"
)

func newTestMCPDeps(t *testing.T, gw session.Gateway) MCPDeps {
	t.Helper()
	repo := profile.NewRepository(&memStore{})
	sess := session.New(repo, gw, slog.New(slog.DiscardHandler))
	return MCPDeps{Session: sess}
}

func signIn(t *testing.T, deps MCPDeps) {
	t.Helper()
	if _, err := deps.Session.Login("ada@example.com"); err != nil {
		t.Fatal(err)
	}
	_, err := deps.Session.CompleteOnboarding(t.Context(), session.OnboardingInput{
		Name: "Ada",
		Text: "I ship infrastructure.",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestMCPTool_NetworkingStrategy(t *testing.T) {
	gw := &stubGateway{
		analysis: "analysis",
		strategy: gateway.Strategy{TargetName: "Jane", Icebreaker: "hi", FollowUp: "f", TrustBuilder: "t"},
	}
	deps := newTestMCPDeps(t, gw)
	signIn(t, deps)
	handler := mcpNetworkingStrategy(deps)

	result, err := handler(context.Background(), makeCallToolRequest("generate_networking_strategy", map[string]interface{}{
		"target": "Jane at Acme",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var r profile.NetworkingResult
	if err := json.Unmarshal([]byte(toolText(t, result)), &r); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if r.TargetName != "Jane" || r.ID == "" {
		t.Errorf("result = %+v", r)
	}

	// The tool writes through to the session history.
	st := deps.Session.State()
	if len(st.Profile.NetworkingHistory) != 1 {
		t.Errorf("history = %+v", st.Profile.NetworkingHistory)
	}
}

func TestMCPTool_NetworkingStrategyRequiresTarget(t *testing.T) {
	deps := newTestMCPDeps(t, &stubGateway{})
	handler := mcpNetworkingStrategy(deps)

	result, err := handler(context.Background(), makeCallToolRequest("generate_networking_strategy", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing target")
	}
}

func TestMCPTool_ContentPost(t *testing.T) {
	gw := &stubGateway{
		analysis: "analysis",
		post:     gateway.Post{PostBody: "The playbook.", VisualDescription: "Whiteboard"},
	}
	deps := newTestMCPDeps(t, gw)
	signIn(t, deps)
	handler := mcpContentPost(deps)

	result, err := handler(context.Background(), makeCallToolRequest("generate_content_post", map[string]interface{}{
		"framework": "SYSTEM_REVEAL",
		"topic":     "hiring",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("tool error: %s", toolText(t, result))
	}

	var p gateway.Post
	if err := json.Unmarshal([]byte(toolText(t, result)), &p); err != nil {
		t.Fatal(err)
	}
	if p.PostBody != "The playbook." {
		t.Errorf("post = %+v", p)
	}
}

func TestMCPTool_ContentPostRejectsUnknownFramework(t *testing.T) {
	deps := newTestMCPDeps(t, &stubGateway{analysis: "a"})
	signIn(t, deps)
	handler := mcpContentPost(deps)

	result, err := handler(context.Background(), makeCallToolRequest("generate_content_post", map[string]interface{}{
		"framework": "HOT_TAKE",
		"topic":     "x",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown framework")
	}
}

func TestMCPTool_AuditSignedOut(t *testing.T) {
	deps := newTestMCPDeps(t, &stubGateway{audit: "report"})
	handler := mcpAuditProfile(deps)

	result, err := handler(context.Background(), makeCallToolRequest("audit_profile", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when signed out")
	}
}

func TestMCPResource_Profile(t *testing.T) {
	deps := newTestMCPDeps(t, &stubGateway{analysis: "a"})
	signIn(t, deps)
	handler := mcpResourceProfile(deps)

	contents, err := handler(context.Background(), makeReadResourceRequest("user://profile"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %v", contents)
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var p profile.UserProfile
	if err := json.Unmarshal([]byte(tc.Text), &p); err != nil {
		t.Fatal(err)
	}
	if p.Name != "Ada" || !p.IsTrained {
		t.Errorf("profile = %+v", p)
	}
}

func TestMCPResource_ProfileSignedOut(t *testing.T) {
	deps := newTestMCPDeps(t, &stubGateway{})
	handler := mcpResourceProfile(deps)

	if _, err := handler(context.Background(), makeReadResourceRequest("user://profile")); err == nil {
		t.Fatal("expected error when signed out")
	}
}
