package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dvloznov/receipts-web/internal/api/middleware"
	"github.com/dvloznov/receipts-web/internal/failure"
	"github.com/dvloznov/receipts-web/internal/session"
	"github.com/rs/zerolog"
)

// Authenticator exchanges credentials for a session token.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

// SessionHandler handles login and logout.
type SessionHandler struct {
	auth       Authenticator
	cookieName string
	log        zerolog.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(auth Authenticator, cookieName string, log zerolog.Logger) *SessionHandler {
	if cookieName == "" {
		cookieName = session.DefaultCookieName
	}
	return &SessionHandler{
		auth:       auth,
		cookieName: cookieName,
		log:        log,
	}
}

// Login handles POST /api/session
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.log.Warn().Err(err).Str("username", req.Username).Msg("Login failed")
		middleware.WriteError(w, loginStatus(err), failure.UserMessage(err, "Login failed. Please try again."))
		return
	}

	http.SetCookie(w, session.NewCookie(h.cookieName, token, session.IsSecureRequest(r)))
	h.log.Info().Str("username", req.Username).Msg("Session started")

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Logout handles DELETE /api/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, session.ClearCookie(h.cookieName))
	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// loginStatus passes client errors from the backend through and reports
// everything else as a bad gateway.
func loginStatus(err error) int {
	var fe *failure.Error
	if errors.As(err, &fe) && fe.Kind == failure.KindStatus && fe.Status >= 400 && fe.Status < 500 {
		return fe.Status
	}
	return http.StatusBadGateway
}
