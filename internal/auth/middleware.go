package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sakif/mindspace/internal/apperror"
	"github.com/sakif/mindspace/internal/model"
)

// CookieName is the HttpOnly cookie the login handler sets.
const CookieName = "token"

type contextKey string

const ownerKey contextKey = "owner"

// AccountLookup is the slice of the account directory the middleware needs.
type AccountLookup interface {
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
}

// RequireOwner admits a request only when it carries a valid token for an
// account that still exists, is active and has the kind the token claims.
// The owner is stored in the request context for handlers to read with
// OwnerFromContext.
//
// The token is read from "Authorization: Bearer <jwt>" first and from the
// token cookie otherwise.
func RequireOwner(tokens *TokenService, accounts AccountLookup, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := tokenFromRequest(r)
			if raw == "" {
				unauthorized(w, "valid authentication required")
				return
			}

			owner, err := tokens.Validate(raw)
			if err != nil {
				logger.Debug().Err(err).Msg("rejecting token")
				unauthorized(w, "valid authentication required")
				return
			}

			// Only a definite answer from the directory rejects the token. A
			// lookup that failed says nothing about the account, so it is a
			// 500 and the client keeps its session.
			account, err := accounts.GetAccountByID(r.Context(), owner.ID)
			switch {
			case errors.Is(err, apperror.ErrNotFound):
				logger.Info().Str("owner", owner.String()).Msg("token for unknown account")
				unauthorized(w, "account is not active")
				return
			case err != nil:
				logger.Error().Err(err).Str("owner", owner.String()).Msg("looking up token account")
				writeAuthError(w, http.StatusInternalServerError, "store_failure",
					apperror.StoreFailure("loading account", err).Message)
				return
			case !account.IsActive || account.Kind != owner.Kind:
				logger.Info().Str("owner", owner.String()).Msg("token for inactive account or wrong kind")
				unauthorized(w, "account is not active")
				return
			}

			ctx := context.WithValue(r.Context(), ownerKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the authenticated owner, if any.
func OwnerFromContext(ctx context.Context) (model.Owner, bool) {
	owner, ok := ctx.Value(ownerKey).(model.Owner)
	return owner, ok && owner.ID != ""
}

// WithOwner returns ctx carrying owner. Handler tests use it to skip the
// token round trip.
func WithOwner(ctx context.Context, owner model.Owner) context.Context {
	return context.WithValue(ctx, ownerKey, owner)
}

// tokenFromRequest finds the JWT on r.
//
// COOKIE FLOW (browsers):
//  1. Register/login answers with Set-Cookie: token=<jwt>; HttpOnly; SameSite=Lax
//  2. The browser sends Cookie: token=<jwt> on every later request
//  3. We read it here; page scripts never see it (HttpOnly)
//
// API clients send "Authorization: Bearer <jwt>" instead. The header wins
// when both are present, and a malformed header is not rescued by a cookie.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func unauthorized(w http.ResponseWriter, message string) {
	writeAuthError(w, http.StatusUnauthorized, "unauthorized", message)
}

// writeAuthError writes the same {"error","message"} body as the handler
// package; the middleware runs before any handler and cannot import it.
func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   kind,
		"message": message,
	})
}
