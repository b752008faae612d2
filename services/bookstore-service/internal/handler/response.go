package handler

import (
	"errors"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/payload"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
	"github.com/vasapolrittideah/bookstore-api/shared/middleware"
	"github.com/vasapolrittideah/bookstore-api/shared/utilities"
	"github.com/vasapolrittideah/bookstore-api/shared/validator"
)

// Validator validates decoded request payloads.
type Validator interface {
	Struct(s any) error
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	_ = utilities.WriteJSON(w, status, body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.ErrorResponse{Message: message})
}

// decodeJSON decodes and validates the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, validate Validator) bool {
	if err := utilities.DecodeJSON(w, r, v); err != nil {
		if errors.Is(err, utilities.ErrEmptyBody) {
			writeError(w, http.StatusBadRequest, "please add all fields")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	return validatePayload(w, v, validate)
}

func validatePayload(w http.ResponseWriter, v any, validate Validator) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	var validationErr *validator.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, payload.ErrorResponse{
			Message: validationErr.Messages[0],
			Errors:  validationErr.Messages,
		})
		return false
	}

	writeError(w, http.StatusBadRequest, "invalid request")
	return false
}

// userID returns the authenticated caller. Routes using it sit behind the JWT middleware.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authorized, no token")
	}
	return id, ok
}

// writeUsecaseError maps usecase errors to HTTP responses. Unknown errors are logged
// and answered with a generic message.
func writeUsecaseError(logger *zerolog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, usecase.ErrValidation):
		writeError(w, http.StatusBadRequest, validationMessage(err))
	case errors.Is(err, usecase.ErrUserAlreadyExists):
		writeError(w, http.StatusBadRequest, "User already exists")
	case errors.Is(err, usecase.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, usecase.ErrBookNotFound):
		writeError(w, http.StatusNotFound, "Book not found")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials")
	case errors.Is(err, usecase.ErrInvalidOrExpiredOTP):
		writeError(w, http.StatusBadRequest, "Invalid or expired OTP")
	case errors.Is(err, usecase.ErrInvalidOrExpiredToken):
		writeError(w, http.StatusBadRequest, "Invalid or expired token")
	case errors.Is(err, usecase.ErrUserAlreadyVerified):
		writeError(w, http.StatusBadRequest, "Account is already verified")
	case errors.Is(err, usecase.ErrUserNotVerified):
		writeError(w, http.StatusUnauthorized, "Please verify your email first")
	case errors.Is(err, usecase.ErrNotBookOwner):
		writeError(w, http.StatusForbidden, "Not authorized to modify this book")
	case errors.Is(err, usecase.ErrEmailDelivery):
		logger.Error().Err(err).Str("request_id", chimiddleware.GetReqID(r.Context())).Msg("email delivery failed")
		writeError(w, http.StatusInternalServerError, "Email could not be sent")
	case errors.Is(err, usecase.ErrSelfPurchase):
		writeError(w, http.StatusBadRequest, "You cannot buy your own book")
	case errors.Is(err, usecase.ErrBookOutOfStock):
		writeError(w, http.StatusBadRequest, "This book is already sold")
	default:
		logger.Error().Err(err).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, "something went wrong")
	}
}

// validationMessage strips the sentinel prefix from a wrapped ErrValidation.
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), usecase.ErrValidation.Error()+": ")
}
