package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/evently/evently/internal/domain"
	"github.com/evently/evently/internal/service"
	"github.com/evently/evently/pkg/auth"
	"github.com/evently/evently/pkg/config"
	"github.com/evently/evently/pkg/logger"
)

type claimsKeyType struct{}

var claimsKey claimsKeyType

type Handlers struct {
	authService  service.AuthService
	eventService service.EventService
	config       *config.Config
}

func New(authService service.AuthService, eventService service.EventService, config *config.Config) *Handlers {
	return &Handlers{
		authService:  authService,
		eventService: eventService,
		config:       config,
	}
}

// RequireAuth rejects requests without a valid bearer token. Every failure
// mode (missing header, bad signature, malformed token, expiry) is treated
// the same: 401.
func (h *Handlers) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "Missing or invalid authorization header", "UNAUTHORIZED")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, ok := auth.Verify(token, h.config.Auth.JWTSecret)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Invalid or expired token", "INVALID_TOKEN")
			return
		}

		ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message, code string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
		"code":  code,
	})
}

// writeServiceError maps service-layer sentinels onto the HTTP contract.
// Anything unmapped is an internal error and is logged rather than leaked.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_INPUT")
	case errors.Is(err, domain.ErrEmailInUse):
		writeError(w, http.StatusConflict, "Email already in use", "EMAIL_EXISTS")
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials", "INVALID_CREDENTIALS")
	case errors.Is(err, domain.ErrEmailNotVerified):
		writeError(w, http.StatusForbidden, "Email not verified", "EMAIL_NOT_VERIFIED")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found", "NOT_FOUND")
	case errors.Is(err, domain.ErrIncorrectOldPassword):
		writeError(w, http.StatusBadRequest, "Incorrect old password", "INCORRECT_PASSWORD")
	case errors.Is(err, domain.ErrAlreadyVerified):
		writeError(w, http.StatusBadRequest, "Account is already verified", "ALREADY_VERIFIED")
	case errors.Is(err, domain.ErrOTPNotFound):
		writeError(w, http.StatusNotFound, "Invalid OTP or email", "OTP_NOT_FOUND")
	case errors.Is(err, domain.ErrOTPExpired):
		writeError(w, http.StatusBadRequest, "OTP expired", "OTP_EXPIRED")
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, "Event not found", "NOT_FOUND")
	case errors.Is(err, domain.ErrNotOwner):
		writeError(w, http.StatusForbidden, "Permission denied", "FORBIDDEN")
	default:
		logger.ErrorContext(r.Context(), "Request failed", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error", "INTERNAL_ERROR")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
