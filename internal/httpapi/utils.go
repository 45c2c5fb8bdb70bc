package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
	"github.com/JCUYLLE2/FindFilms/internal/profile"
	"github.com/JCUYLLE2/FindFilms/internal/session"
	sharederrors "github.com/JCUYLLE2/FindFilms/internal/shared/errors"
	"github.com/JCUYLLE2/FindFilms/internal/shared/logging"
)

const maxBodyBytes = 64 * 1024

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, code, message string) {
	writeJSON(w, sharederrors.ToStatusCode(code), sharederrors.ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: middleware.GetReqID(r.Context()),
	})
}

// writeDomainError maps package sentinels onto the error envelope. Unexpected
// errors are logged and reported as internal errors.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, userID string) {
	code, message := classify(err)
	if code == sharederrors.CodeInternal || code == sharederrors.CodeRemoteUnavailable || code == sharederrors.CodeCatalogUnavailable {
		logRequestError(r.Context(), logger, message, err, userID)
	}
	if code == sharederrors.CodeValidationFailed {
		message = err.Error()
	}
	writeError(w, r, code, message)
}

func classify(err error) (string, string) {
	switch {
	case errors.Is(err, identity.ErrUnauthenticated):
		return sharederrors.CodeUnauthenticated, "please sign in to continue"
	case errors.Is(err, identity.ErrInvalidCredentials):
		return sharederrors.CodeUnauthenticated, "invalid email or password"
	case errors.Is(err, identity.ErrValidation), errors.Is(err, profile.ErrValidation), errors.Is(err, movie.ErrInvalidCriteria):
		return sharederrors.CodeValidationFailed, "validation failed"
	case errors.Is(err, identity.ErrEmailExists):
		return sharederrors.CodeConflict, "email already registered"
	case errors.Is(err, favorites.ErrTogglePending):
		return sharederrors.CodeConflict, "a change to this favorite is still pending"
	case errors.Is(err, favorites.ErrSuperseded):
		return sharederrors.CodeConflict, "session identity changed, please retry"
	case errors.Is(err, session.ErrNotFound):
		return sharederrors.CodeNotFound, "session not found"
	case errors.Is(err, movie.ErrNotFound):
		return sharederrors.CodeNotFound, "movie not found"
	case errors.Is(err, movie.ErrCatalogUnavailable):
		return sharederrors.CodeCatalogUnavailable, "movie catalog is unavailable, try again later"
	case errors.Is(err, favorites.ErrRemoteUnavailable), errors.Is(err, profile.ErrRemoteUnavailable), errors.Is(err, identity.ErrRemoteUnavailable):
		return sharederrors.CodeRemoteUnavailable, "service temporarily unavailable, try again later"
	}
	return sharederrors.CodeInternal, "internal error"
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, userID string) {
	if logger == nil || err == nil {
		return
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logging.WithRequestID(ctx, logger, reqID)
	}
	logger.Error(message, slog.String("userId", userID), slog.Any("error", err))
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
