package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"grouple.org/internal/auth"
	"grouple.org/internal/obs"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/auth/login",
	"/auth/register",
	"/auth/refresh",
	"/auth/check-id",
	"/healthz",
	"/readyz",
	"/metrics",
	"/openapi.yaml",
}

var publicPrefixes = []string{
	"/docs/",
}

// withAuth verifies bearer tokens and attaches the principal to the request
// context. A request without an Authorization header passes through
// unauthenticated; handlers that need a principal reject it themselves.
// A present but unusable token short-circuits with 401.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		// Already authenticated upstream; nothing to do.
		if _, ok := auth.PrincipalFromContext(r.Context()); ok {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			unauthorizedToken(w, err.Error())
			return
		}

		principal, err := a.tokens.Verify(token)
		if err != nil {
			obs.TokenRejected(tokenFailureReason(err))
			unauthorizedToken(w, "invalid token")
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// unauthorizedToken writes the 401 challenge for an unusable bearer token.
func unauthorizedToken(w http.ResponseWriter, msg string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
	writeError(w, http.StatusUnauthorized, msg)
}

// requirePrincipal is the handler-level check behind every protected route.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return auth.Principal{}, false
	}
	return principal, true
}

func extractBearerToken(header string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func tokenFailureReason(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "expired"
	case errors.Is(err, auth.ErrBadSignature):
		return "bad_signature"
	default:
		return "malformed"
	}
}
