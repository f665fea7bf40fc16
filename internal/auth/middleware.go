package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type contextKey struct{}

// Middleware requires a valid bearer token when v is non-nil and stores its
// claims in the request context. With a nil Verifier requests pass through.
func Middleware(v *Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if v == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w, ErrMissingToken)
				return
			}

			claims, err := v.Verify(token)
			if err != nil {
				logger.Debug("Rejected dashboard token", zap.Error(err))
				unauthorized(w, ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, claims)))
		})
	}
}

// ClaimsFrom returns the verified claims of the request, if any
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKey{}).(*Claims)
	return claims, ok
}

// Authorize checks that the verified subject owns uid. Requests without
// claims (token checks disabled) are allowed.
func Authorize(ctx context.Context, uid string) error {
	claims, ok := ClaimsFrom(ctx)
	if !ok {
		return nil
	}
	if claims.Subject != uid {
		return ErrForbidden
	}
	return nil
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="dashboard"`)
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
