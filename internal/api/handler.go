// Package api exposes the session over HTTP for the CLI and local clients,
// and over MCP for agent integrations. The HTTP surface is loopback-only in
// practice; everything except /health requires the daemon's bearer token.
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brantatech/linkichat/internal/document"
	"github.com/brantatech/linkichat/internal/gateway"
	"github.com/brantatech/linkichat/internal/profile"
	"github.com/brantatech/linkichat/internal/session"
)

const maxRequestBodySize = 10 << 20 // 10MB, bounded by uploaded documents

type AppDeps struct {
	Session *session.Session
	Token   string
}

func NewAppHandler(deps AppDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Post("/login", handleLogin(deps))
		r.Post("/logout", handleLogout(deps))
		r.Get("/session", handleGetSession(deps))
		r.Post("/view", handleSelectView(deps))
		r.Post("/onboarding", handleOnboarding(deps))
		r.Get("/profile", handleGetProfile(deps))
		r.Patch("/profile", handlePatchProfile(deps))
		r.Get("/dashboard", handleDashboard(deps))
		r.Post("/networking", handleGenerateNetworking(deps))
		r.Get("/networking", handleListNetworking(deps))
		r.Delete("/networking/{id}", handleDeleteNetworking(deps))
		r.Post("/content", handleGenerateContent(deps))
		r.Post("/audit", handleAudit(deps))
	})

	return r
}

// StateResponse is the wire form of the session state shared by most
// endpoints.
type StateResponse struct {
	View    string               `json:"view"`
	Profile *profile.UserProfile `json:"profile"`
	Busy    []string             `json:"busy"`
}

func stateResponse(st session.State) StateResponse {
	busy := make([]string, 0, len(st.Busy))
	for _, s := range st.Busy {
		busy = append(busy, string(s))
	}
	return StateResponse{View: string(st.View), Profile: st.Profile, Busy: busy}
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleLogin(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		st, err := deps.Session.Login(req.Email)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(st))
	}
}

func handleLogout(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, stateResponse(deps.Session.Logout()))
	}
}

func handleGetSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, stateResponse(deps.Session.State()))
	}
}

func handleSelectView(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			View string `json:"view"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		v, err := session.ParseView(req.View)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		st, err := deps.Session.SelectTab(v)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(st))
	}
}

// FilePayload is an uploaded document: base64 data plus its metadata.
type FilePayload struct {
	Name     string `json:"name"`
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

func (p *FilePayload) decode() (*document.File, error) {
	if p == nil {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 file data: %w", err)
	}
	return &document.File{Name: p.Name, MIMEType: p.MIMEType, Data: data}, nil
}

func handleOnboarding(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name string       `json:"name"`
			Text string       `json:"text"`
			File *FilePayload `json:"file"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		file, err := req.File.decode()
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		st, err := deps.Session.CompleteOnboarding(r.Context(), session.OnboardingInput{
			Name: req.Name,
			Text: req.Text,
			File: file,
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(st))
	}
}

func handleGetProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := deps.Session.State()
		if st.Profile == nil {
			writeSessionError(w, session.ErrNotAuthenticated)
			return
		}
		writeJSON(w, http.StatusOK, st.Profile)
	}
}

func handlePatchProfile(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Name    *string `json:"name"`
			RawText *string `json:"rawText"`
			Avatar  *string `json:"avatar"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		st, err := deps.Session.UpdateSettings(session.SettingsUpdate{
			Name:    req.Name,
			RawText: req.RawText,
			Avatar:  req.Avatar,
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(st))
	}
}

func handleDashboard(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := deps.Session.State()
		if st.Profile == nil {
			writeSessionError(w, session.ErrNotAuthenticated)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"view":            string(st.View),
			"name":            st.Profile.Name,
			"email":           st.Profile.Email,
			"trained":         st.Profile.IsTrained,
			"networkingCount": len(st.Profile.NetworkingHistory),
			"busy":            stateResponse(st).Busy,
		})
	}
}

func handleGenerateNetworking(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string       `json:"text"`
			URL  string       `json:"url"`
			File *FilePayload `json:"file"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		file, err := req.File.decode()
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		result, err := deps.Session.GenerateNetworking(r.Context(), session.NetworkingInput{
			Text: req.Text,
			URL:  req.URL,
			File: file,
		})
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func handleListNetworking(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := deps.Session.State()
		if st.Profile == nil {
			writeSessionError(w, session.ErrNotAuthenticated)
			return
		}
		writeJSON(w, http.StatusOK, st.Profile.NetworkingHistory)
	}
}

func handleDeleteNetworking(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := deps.Session.DeleteNetworking(chi.URLParam(r, "id"))
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, stateResponse(st))
	}
}

func handleGenerateContent(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Framework string `json:"framework"`
			Topic     string `json:"topic"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		framework, err := gateway.ParseFramework(req.Framework)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		post, err := deps.Session.GenerateContent(r.Context(), framework, req.Topic)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, post)
	}
}

func handleAudit(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := deps.Session.RunAudit(r.Context())
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"report": report})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
		return false
	}
	return true
}

// writeSessionError maps session errors onto the HTTP error envelope.
// Anything that is not a validation or state error is treated as an upstream
// failure.
func writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	case errors.Is(err, session.ErrNotAuthenticated):
		httpError(w, http.StatusUnauthorized, "authentication_error", "%v", err)
	case errors.Is(err, session.ErrNotTrained), errors.Is(err, session.ErrSlotBusy):
		httpError(w, http.StatusConflict, "conflict", "%v", err)
	default:
		httpError(w, http.StatusBadGateway, "api_error", "%v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
