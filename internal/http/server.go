// Package http exposes the REST API: route policies, the auth guard, rate
// limiting and the JSON envelope conventions.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"schoolhub/internal/auth"
	"schoolhub/internal/cache"
	"schoolhub/internal/config"
	"schoolhub/internal/model"
	"schoolhub/internal/service"
)

type Server struct {
	cfg        config.Config
	tokens     *auth.Tokens
	auth       *service.Auth
	schools    *service.Schools
	classrooms *service.Classrooms
	students   *service.Students
	limiter    cache.Store
	logger     *zap.Logger
}

func NewServer(cfg config.Config, tokens *auth.Tokens, authSvc *service.Auth, schools *service.Schools, classrooms *service.Classrooms, students *service.Students, limiter cache.Store, logger *zap.Logger) *Server {
	return &Server{
		cfg:        cfg,
		tokens:     tokens,
		auth:       authSvc,
		schools:    schools,
		classrooms: classrooms,
		students:   students,
		limiter:    limiter,
		logger:     logger,
	}
}

// policy is the per-route authorization descriptor. An empty role set means
// any authenticated caller.
type policy struct {
	roles []string
}

var (
	superadminOnly = policy{roles: []string{model.RoleSuperAdmin}}
	anyAdmin       = policy{roles: []string{model.RoleSuperAdmin, model.RoleSchoolAdmin}}
	authenticated  = policy{}
)

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.NotFound(handleNotFound)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.rateLimit("global", s.cfg.RateLimitMax, s.cfg.RateLimitWindow, "Too many requests"))
		r.NotFound(handleNotFound)

		r.With(s.rateLimit("login", s.cfg.LoginRateLimitMax, s.cfg.LoginRateLimitWindow, "Too many login attempts")).
			Post("/auth/login", s.handleLogin)
		r.Post("/auth/refresh", s.handleRefresh)
		r.With(s.guard(authenticated)).Post("/auth/logout", s.handleLogout)
		r.With(s.guard(superadminOnly)).Post("/auth/register", s.handleRegister)

		r.Route("/schools", func(r chi.Router) {
			r.Use(s.guard(superadminOnly))
			r.Post("/", s.handleCreateSchool)
			r.Get("/", s.handleListSchools)
			r.Get("/{id}", s.handleGetSchool)
			r.Put("/{id}", s.handleUpdateSchool)
			r.Delete("/{id}", s.handleDeleteSchool)
		})

		r.Route("/classrooms", func(r chi.Router) {
			r.Use(s.guard(anyAdmin))
			r.Post("/", s.handleCreateClassroom)
			r.Get("/", s.handleListClassrooms)
			r.Get("/{id}", s.handleGetClassroom)
			r.Put("/{id}", s.handleUpdateClassroom)
			r.Delete("/{id}", s.handleDeleteClassroom)
		})

		r.Route("/students", func(r chi.Router) {
			r.Use(s.guard(anyAdmin))
			r.Post("/", s.handleCreateStudent)
			r.Get("/", s.handleListStudents)
			r.Get("/{id}", s.handleGetStudent)
			r.Put("/{id}", s.handleUpdateStudent)
			r.Delete("/{id}", s.handleDeleteStudent)
			r.Put("/{id}/enroll", s.handleEnrollStudent)
		})
	})

	return r
}

// guard authenticates the request and enforces the route policy: bearer token
// present, not blacklisted, verifiable, and the caller's role in the allowed
// set. Tenant scoping happens in the services against the identity it stores.
func (s *Server) guard(p policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "No token")
				return
			}
			if s.auth.IsRevoked(r.Context(), token) {
				writeError(w, http.StatusUnauthorized, "Token revoked")
				return
			}
			claims, err := s.tokens.Parse(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			if len(p.roles) > 0 && !containsString(p.roles, claims.Role) {
				writeError(w, http.StatusForbidden, "Forbidden")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = context.WithValue(ctx, tokenKey{}, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// rateLimit is a fixed-window counter per client IP. Counter failures allow
// the request through; the limiter protects capacity, it is not a gate the
// API depends on.
func (s *Server) rateLimit(name string, max int, window time.Duration, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := cache.RateLimitKey(name, clientIP(r))
			n, err := s.limiter.Incr(r.Context(), key, window)
			if err != nil {
				s.logger.Warn("rate limiter unavailable", zap.String("limiter", name), zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if n > int64(max) {
				writeError(w, http.StatusTooManyRequests, message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type claimsKey struct{}
type tokenKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

func identityFromContext(ctx context.Context) model.Identity {
	claims := claimsFromContext(ctx)
	if claims == nil {
		return model.Identity{}
	}
	return model.Identity{UserID: claims.UserID, Role: claims.Role, SchoolID: claims.SchoolID}
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, fmt.Sprintf("Route %s not found", r.URL.Path))
}

type errorPayload struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type errorBody struct {
	Error errorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: errorPayload{Code: status, Message: message}})
}

func writeValidationError(w http.ResponseWriter, details []string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorPayload{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Details: details,
	}})
}

// writeServiceError maps manager failures to the response envelope. Anything
// that is not a *service.Error is an internal error and never leaks.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var serr *service.Error
	if errors.As(err, &serr) {
		writeJSON(w, serr.Status, errorBody{Error: errorPayload{
			Code:    serr.Status,
			Message: serr.Message,
			Details: serr.Details,
		}})
		return
	}
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
