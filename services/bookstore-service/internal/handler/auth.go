package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/payload"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
)

type AuthHandler struct {
	authUsecase          usecase.AuthUsecase
	passwordResetUsecase usecase.PasswordResetUsecase
	profileUsecase       usecase.ProfileUsecase
	validator            Validator
	logger               *zerolog.Logger
}

func NewAuthHandler(
	authUsecase usecase.AuthUsecase,
	passwordResetUsecase usecase.PasswordResetUsecase,
	profileUsecase usecase.ProfileUsecase,
	validator Validator,
	logger *zerolog.Logger,
) *AuthHandler {
	return &AuthHandler{
		authUsecase:          authUsecase,
		passwordResetUsecase: passwordResetUsecase,
		profileUsecase:       profileUsecase,
		validator:            validator,
		logger:               logger,
	}
}

// RegisterRoutes mounts the account endpoints. requireAuth guards the profile routes.
func (h *AuthHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/register", h.Register)
	r.Post("/verify", h.Verify)
	r.Post("/login", h.Login)
	r.Post("/resend-otp", h.ResendOTP)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)

	r.With(requireAuth).Get("/profile", h.GetProfile)
	r.With(requireAuth).Put("/profile", h.UpdateProfile)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req payload.RegisterRequest
	if !decodeJSON(w, r, &req, h.validator) {
		return
	}

	user, err := h.authUsecase.Register(r.Context(), usecase.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, payload.Response{
		Success: true,
		Message: "Registered! An OTP has been sent to " + user.Email,
		Data:    payload.RegisterResponse{UserID: user.ID.Hex()},
	})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req payload.VerifyRequest
	if !decodeJSON(w, r, &req, h.validator) {
		return
	}

	result, err := h.authUsecase.Verify(r.Context(), usecase.VerifyParams{Email: req.Email, OTP: req.OTP})
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{
		Success: true,
		Message: "Email verified successfully! You can now login.",
		Data:    payload.TokenResponse{Token: result.Token},
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req payload.LoginRequest
	if !decodeJSON(w, r, &req, h.validator) {
		return
	}

	result, err := h.authUsecase.Login(r.Context(), usecase.LoginParams{Email: req.Email, Password: req.Password})
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{
		Success: true,
		Data: payload.LoginResponse{
			ID:    result.User.ID.Hex(),
			Name:  result.User.Name,
			Email: result.User.Email,
			Token: result.Token,
		},
	})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req payload.EmailRequest
	if !decodeJSON(w, r, &req, h.validator) {
		return
	}

	if err := h.authUsecase.ResendOTP(r.Context(), req.Email); err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{Success: true, Message: "New OTP sent to your email"})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.EmailRequest
	if !decodeJSON(w, r, &req, h.validator) {
		return
	}

	if err := h.passwordResetUsecase.ForgotPassword(r.Context(), req.Email); err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{Success: true, Message: "Password reset link sent to your email"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req payload.ResetPasswordRequest
	if !decodeJSON(w, r, &req, h.validator) {
		return
	}

	err := h.passwordResetUsecase.ResetPassword(r.Context(), usecase.ResetPasswordParams{
		Token:    req.Token,
		Password: req.Password,
	})
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{
		Success: true,
		Message: "Password reset successful. You can now login.",
	})
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.profileUsecase.GetProfile(r.Context(), callerID)
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{Success: true, Data: payload.NewUserResponse(user)})
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	callerID, ok := userID(w, r)
	if !ok {
		return
	}

	var req payload.UpdateProfileRequest
	if !decodeJSON(w, r, &req, h.validator) {
		return
	}

	user, err := h.profileUsecase.UpdateProfile(r.Context(), callerID, usecase.UpdateProfileParams{
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		writeUsecaseError(h.logger, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, payload.Response{
		Success: true,
		Message: "Profile updated",
		Data:    payload.NewUserResponse(user),
	})
}
