package auth

import (
	"net/http"
	"strings"

	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/platform/httpx"
	"github.com/EmmanuelMsafiri1992/Mugodi2026-sub000/internal/shared"
)

// Middleware resolves bearer tokens and enforces roles.
type Middleware struct {
	service *Service
}

// NewMiddleware constructs the auth middleware.
func NewMiddleware(service *Service) Middleware {
	return Middleware{service: service}
}

// RequireAuth rejects requests without a valid bearer token.
func (m Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		actor, err := m.service.Resolve(r.Context(), token)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "valid bearer token required")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithActor(r.Context(), actor)))
	})
}

// RequireRole allows only the listed roles through.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := shared.ActorFromContext(r.Context())
			if actor == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "valid bearer token required")
				return
			}
			if _, ok := allowed[actor.Role]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
