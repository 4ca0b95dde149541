package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/vowline/vowline/internal/auth"
	"github.com/vowline/vowline/internal/model"
)

// TokenValidator verifies an access token. Satisfied by *auth.JWTManager.
type TokenValidator interface {
	Validate(token string) (*model.AuthContext, error)
}

// TokenDenylist reports revoked access tokens. Satisfied by *cache.Cache.
type TokenDenylist interface {
	IsTokenDenied(ctx context.Context, tokenID string) (bool, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Tokens   TokenValidator
	Denylist TokenDenylist // optional
}

// Auth returns a middleware that authenticates API requests.
// It extracts the bearer token from the Authorization header,
// verifies it, and injects the auth context into the request.
func Auth(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				logAuthFailure(cfg.Logger, r, "missing_token")
				writeAuthError(w)
				return
			}

			authCtx, err := cfg.Tokens.Validate(token)
			if err != nil {
				logAuthFailure(cfg.Logger, r, "invalid_token")
				writeAuthError(w)
				return
			}

			if cfg.Denylist != nil && authCtx.TokenID != "" {
				denied, err := cfg.Denylist.IsTokenDenied(r.Context(), authCtx.TokenID)
				if err != nil {
					// Fail open: the token is still signed and unexpired.
					cfg.Logger.Warn("token denylist check failed",
						slog.String("error", err.Error()),
						slog.String("user_id", authCtx.UserID),
						slog.String("request_id", GetRequestID(r.Context())),
					)
				} else if denied {
					logAuthFailure(cfg.Logger, r, "revoked_token")
					writeAuthError(w)
					return
				}
			}

			annotateUser(r.Context(), authCtx.UserID)
			ctx := auth.ContextWithAuth(r.Context(), authCtx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func logAuthFailure(logger *slog.Logger, r *http.Request, reason string) {
	logger.Warn("authentication failed",
		slog.String("reason", reason),
		slog.String("ip", r.RemoteAddr),
		slog.String("endpoint", r.Method+" "+r.URL.Path),
		slog.String("request_id", GetRequestID(r.Context())),
	)
}

// writeAuthError writes a 401 Unauthorized response.
// Uses the same message for all auth failures to prevent enumeration.
func writeAuthError(w http.ResponseWriter) {
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid or missing access token")
}
