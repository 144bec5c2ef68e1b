package httpapi

import (
	"context"
	"net/http"
	"strings"

	"edutech-backend-go/internal/services"
)

type contextKey string

const ctxSession contextKey = "session"

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
}

// WithAuth validates the bearer token and stores the session in the request
// context. Revoked tokens are rejected like invalid ones.
func WithAuth(tokens services.TokenService, revoker services.Revoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := tokens.ValidateSession(bearerToken(r))
			if err != nil {
				serr, _ := services.AsServiceError(err)
				WriteError(w, http.StatusUnauthorized, serr.Message, services.CodeUnauthorized)
				return
			}
			revoked, err := revoker.IsRevoked(r.Context(), session.TokenID)
			if err != nil {
				WriteError(w, http.StatusServiceUnavailable, "Serviço de sessão indisponível.", services.CodeUnavailable)
				return
			}
			if revoked {
				WriteError(w, http.StatusUnauthorized, "Token inválido.", services.CodeUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ctxSession, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentSession(r *http.Request) (services.Session, bool) {
	session, ok := r.Context().Value(ctxSession).(services.Session)
	return session, ok
}

// RequirePermission rejects the request with 403 before any handler work
// when the caller's role may not perform op.
func RequirePermission(op services.Operation) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, ok := CurrentSession(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "Token não fornecido.", services.CodeUnauthorized)
				return
			}
			if !services.Authorize(session.Role, op) {
				WriteError(w, http.StatusForbidden, "Acesso negado.", services.CodeForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
