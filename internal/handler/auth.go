package handler

import (
	"net/http"

	"github.com/sakif/mindspace/internal/auth"
	"github.com/sakif/mindspace/internal/service"
)

// AuthHandler exposes registration, login and the current account.
//
// A successful register or login returns the token in the body and also sets
// it as an HttpOnly cookie, so both API clients (Bearer header) and browsers
// (cookie) work.
type AuthHandler struct {
	auth   *service.AuthService
	tokens *auth.TokenService
	secure bool
}

// NewAuthHandler creates an AuthHandler. secure marks the cookie
// HTTPS-only; enable it in production.
func NewAuthHandler(authService *service.AuthService, tokens *auth.TokenService, secure bool) *AuthHandler {
	return &AuthHandler{auth: authService, tokens: tokens, secure: secure}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister creates an account and signs it in.
//
// HTTP: POST /api/auth/register
// REQUEST BODY: {"email": "...", "password": "...", "name": "...", "kind": "student|counselor"}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Name, req.Kind)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	writeJSON(w, r, http.StatusCreated, res)
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.setTokenCookie(w, res.Token)
	writeJSON(w, r, http.StatusOK, res)
}

// HandleLogout clears the token cookie. Tokens are stateless, so one that
// was copied elsewhere stays valid until it expires.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.clearTokenCookie(w)
	writeJSON(w, r, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleDeactivate closes the authenticated account.
//
// HTTP: DELETE /api/me
//
// Unlike logout this does revoke outstanding tokens: RequireOwner checks
// the account on every request and refuses inactive ones.
func (h *AuthHandler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	if err := h.auth.Deactivate(r.Context(), owner); err != nil {
		writeError(w, r, err)
		return
	}
	h.clearTokenCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated account.
//
// HTTP: GET /api/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	owner, ok := requireOwner(w, r)
	if !ok {
		return
	}

	account, err := h.auth.Me(r.Context(), owner)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, account)
}

func (h *AuthHandler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
