package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/brantatech/linkichat/internal/gateway"
	"github.com/brantatech/linkichat/internal/session"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Session *session.Session
}

// NewMCPServer creates an MCP server exposing the branding assistant to
// agent hosts. Tools operate on the signed-in session; when nobody is signed
// in they return tool errors rather than protocol errors.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"linkichat",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("linkichat — personal branding assistant: networking strategies, content generation, and profile audits built on the signed-in user's professional profile."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("generate_networking_strategy",
			mcp.WithDescription("Research a target person or company and generate a relationship strategy (icebreaker, follow-up, trust builder). The result is saved to the user's networking history."),
			mcp.WithString("target", mcp.Description("Who to connect with: a name, a company, or pasted text about them"), mcp.Required()),
		),
		mcpNetworkingStrategy(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_content_post",
			mcp.WithDescription("Generate a social media post in the user's voice using one of the content frameworks."),
			mcp.WithString("framework", mcp.Description("One of SYSTEM_REVEAL, REALITY_CHECK, MINDSET_SHIFT"), mcp.Required()),
			mcp.WithString("topic", mcp.Description("What the post should be about"), mcp.Required()),
		),
		mcpContentPost(deps),
	)

	s.AddTool(
		mcp.NewTool("audit_profile",
			mcp.WithDescription("Audit the user's professional profile against top-creator patterns and return concrete improvements."),
		),
		mcpAuditProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("The signed-in user's profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"user://networking",
			"Networking History",
			mcp.WithResourceDescription("Saved networking strategies, newest first"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceNetworking(deps),
	)

	return s
}

func mcpNetworkingStrategy(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := req.RequireString("target")
		if err != nil {
			return mcpError("target is required"), nil
		}

		result, err := deps.Session.GenerateNetworking(ctx, session.NetworkingInput{Text: target})
		if err != nil {
			return mcpError(fmt.Sprintf("networking strategy failed: %v", err)), nil
		}

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpContentPost(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		frameworkName, err := req.RequireString("framework")
		if err != nil {
			return mcpError("framework is required"), nil
		}
		topic, err := req.RequireString("topic")
		if err != nil {
			return mcpError("topic is required"), nil
		}

		framework, err := gateway.ParseFramework(frameworkName)
		if err != nil {
			return mcpError(err.Error()), nil
		}

		post, err := deps.Session.GenerateContent(ctx, framework, topic)
		if err != nil {
			return mcpError(fmt.Sprintf("content generation failed: %v", err)), nil
		}

		b, err := json.Marshal(post)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal post: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpAuditProfile(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		report, err := deps.Session.RunAudit(ctx)
		if err != nil {
			return mcpError(fmt.Sprintf("audit failed: %v", err)), nil
		}
		return mcpText(report), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		st := deps.Session.State()
		if st.Profile == nil {
			return nil, fmt.Errorf("nobody is signed in")
		}

		b, err := json.Marshal(st.Profile)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal profile: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceNetworking(deps MCPDeps) server.ResourceHandlerFunc {
	return func(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		st := deps.Session.State()
		if st.Profile == nil {
			return nil, fmt.Errorf("nobody is signed in")
		}

		b, err := json.Marshal(st.Profile.NetworkingHistory)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal history: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
