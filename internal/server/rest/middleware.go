package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/onboardkit/internal/common"
	"github.com/dmitrijs2005/onboardkit/internal/logging"
	"github.com/dmitrijs2005/onboardkit/internal/server/auth"
	"github.com/dmitrijs2005/onboardkit/internal/server/models"
	"github.com/google/uuid"
)

// UserFinder resolves a token's user id to a record without its password.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticator verifies bearer tokens and attaches the resolved user to the
// request context.
type Authenticator struct {
	tokens  *auth.TokenIssuer
	users   UserFinder
	admins  auth.AdminList
	logger  logging.Logger
	metrics *Metrics
	resp    responder
}

func NewAuthenticator(tokens *auth.TokenIssuer, users UserFinder, admins auth.AdminList,
	logger logging.Logger, metrics *Metrics, devMode bool) *Authenticator {
	return &Authenticator{
		tokens:  tokens,
		users:   users,
		admins:  admins,
		logger:  logger,
		metrics: metrics,
		resp:    responder{logger: logger, devMode: devMode},
	}
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get(common.AuthorizationHeaderName))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func (a *Authenticator) reject(w http.ResponseWriter, r *http.Request, cause string, err error) {
	a.logger.Warn(r.Context(), "authentication rejected", "cause", cause, "path", r.URL.Path,
		"request_id", RequestIDFromContext(r.Context()))
	if a.metrics != nil {
		a.metrics.AuthRejectionsTotal.WithLabelValues(cause).Inc()
	}
	a.resp.error(w, r, err)
}

// Authenticate runs the token checks in order: presence, server secret,
// signature and expiry, user id claim, user lookup. The first failure ends
// the request.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			a.reject(w, r, "missing_token", common.Unauthorized("Authentication required"))
			return
		}

		if !a.tokens.Configured() {
			a.reject(w, r, "missing_secret", common.Configuration("Server configuration error", auth.ErrMissingSecret))
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				a.reject(w, r, "token_expired", common.Unauthorized("Token expired"))
				return
			}
			a.reject(w, r, "invalid_token", common.Unauthorized("Invalid token"))
			return
		}

		if claims.UserID == "" {
			a.reject(w, r, "missing_user_id", common.Unauthorized("Invalid token format"))
			return
		}

		u, err := a.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				a.reject(w, r, "user_not_found", common.Unauthorized("User not found"))
				return
			}
			a.reject(w, r, "store_error", common.Internal("Authentication error", err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireAdmin lets the request through only when the authenticated user's
// email is on the admin allow-list. It must run after Authenticate.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := UserFromContext(r.Context())
		if u == nil {
			a.reject(w, r, "missing_user", common.Unauthorized("Authentication required"))
			return
		}
		if !a.admins.IsAdmin(u.Email) {
			a.reject(w, r, "not_admin", common.Forbidden("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestID propagates X-Request-ID, generating one when absent.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// Logging writes one entry per request.
func Logging(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			logger.Info(r.Context(), "request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFromContext(r.Context()))
		})
	}
}

// Recovery turns a handler panic into a 500 response.
func Recovery(logger logging.Logger, devMode bool) func(http.Handler) http.Handler {
	resp := responder{logger: logger, devMode: devMode}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					resp.error(w, r, common.Internal("Internal server error", fmt.Errorf("panic: %v", p)))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS sets the allow headers for the configured origins and answers
// preflight requests. "*" allows any origin.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := map[string]struct{}{}
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if allowAll {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else if _, ok := allowed[origin]; ok {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
