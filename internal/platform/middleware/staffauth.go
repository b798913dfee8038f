package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"pintcert/internal/staff"
	"pintcert/pkg/requestcontext"
)

// Authenticator validates a bearer token and returns the staff identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*staff.Staff, error)
}

type staffKey struct{}

// GetStaff retrieves the authenticated staff account from the context.
// Returns nil on unauthenticated requests.
func GetStaff(ctx context.Context) *staff.Staff {
	if s, ok := ctx.Value(staffKey{}).(*staff.Staff); ok {
		return s
	}
	return nil
}

// WithStaff injects a staff account into a context. Useful for handler
// tests that bypass the middleware chain.
func WithStaff(ctx context.Context, s *staff.Staff) context.Context {
	ctx = context.WithValue(ctx, staffKey{}, s)
	return requestcontext.WithStaffID(ctx, s.ID)
}

// RequireStaff rejects requests without a valid staff bearer token and
// stores the authenticated identity in the context.
func RequireStaff(auth Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || token == "" {
				logger.WarnContext(r.Context(), "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			identity, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithStaff(r.Context(), identity)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + message + `"}`))
}
