// Package session holds the single-user application state: the active
// profile, the current view, and the in-flight generation slots. It
// orchestrates the profile repository, the document extractors, and the AI
// gateway behind one mutex-guarded facade shared by the HTTP API, the MCP
// server, and the CLI.
package session

import "fmt"

// View identifies the screen the client should be rendering.
type View string

const (
	ViewAuth       View = "AUTH"
	ViewOnboarding View = "ONBOARDING"
	ViewDashboard  View = "DASHBOARD"
	ViewNetworking View = "NETWORKING"
	ViewContent    View = "CONTENT"
	ViewAudit      View = "AUDIT"
	ViewSettings   View = "SETTINGS"
)

// ParseView validates a view name from an API request.
func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewAuth, ViewOnboarding, ViewDashboard,
		ViewNetworking, ViewContent, ViewAudit, ViewSettings:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// isTab reports whether v is one of the dashboard tabs a signed-in, trained
// user may switch between. AUTH and ONBOARDING are only reachable through
// login and onboarding completion, never by direct selection.
func isTab(v View) bool {
	switch v {
	case ViewDashboard, ViewNetworking, ViewContent, ViewAudit, ViewSettings:
		return true
	}
	return false
}
