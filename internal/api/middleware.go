package api

import (
	"net/http"
	"strings"

	"github.com/kirjastoapp/kirjasto-server/internal/auth"
)

// authenticate resolves the current user from the Authorization header
// and attaches it to the request context.
//
// No header means the request proceeds anonymously; resolvers enforce
// authentication per field. A present but invalid token fails the whole
// request so "no credential" and "bad credential" stay distinguishable.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			next.ServeHTTP(w, r)
			return
		}

		// Scheme matching is case-insensitive per RFC 7235.
		const prefix = "bearer "
		if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
			s.writeRequestError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid authorization header format")
			return
		}
		tokenString := strings.TrimSpace(authHeader[len(prefix):])

		user, err := s.authService.VerifyToken(r.Context(), tokenString)
		if err != nil {
			s.writeRequestError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid or expired token")
			return
		}
		if user == nil {
			// Valid token for a user that no longer exists; proceed
			// anonymously.
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithCurrentUser(r.Context(), user)))
	})
}

// rateLimit rejects clients that exceed the per-IP request budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// RealIP middleware has already resolved forwarding headers.
		key := clientIP(r)

		if !s.limiter.Allow(key) {
			s.logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
			s.writeRequestError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client address without the port.
func clientIP(r *http.Request) string {
	addr := r.RemoteAddr
	if i := strings.LastIndexByte(addr, ':'); i != -1 {
		return addr[:i]
	}
	return addr
}
