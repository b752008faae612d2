package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
	"github.com/vasapolrittideah/bookstore-api/shared/mailer"
	"github.com/vasapolrittideah/bookstore-api/shared/security"
)

// PasswordResetUsecase defines the interface for password reset use cases.
type PasswordResetUsecase interface {
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, params ResetPasswordParams) error
}

// ResetPasswordParams defines the parameters for resetting a password.
type ResetPasswordParams struct {
	Token    string
	Password string
}

type passwordResetUsecase struct {
	userRepo  repository.UserRepository
	mailer    mailer.Sender
	logger    *zerolog.Logger
	resetURL  string
	expiresIn time.Duration
	now       func() time.Time
}

// NewPasswordResetUsecase creates a PasswordResetUsecase that emails links to resetURL.
func NewPasswordResetUsecase(
	userRepo repository.UserRepository,
	mailer mailer.Sender,
	logger *zerolog.Logger,
	resetURL string,
	expiresIn time.Duration,
) PasswordResetUsecase {
	return &passwordResetUsecase{
		userRepo:  userRepo,
		mailer:    mailer,
		logger:    logger,
		resetURL:  resetURL,
		expiresIn: expiresIn,
		now:       time.Now,
	}
}

func (u *passwordResetUsecase) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return validationError("please provide an email")
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrUserNotFound
		}

		return err
	}

	token, err := security.GenerateToken()
	if err != nil {
		return err
	}

	link, err := resetLink(u.resetURL, token)
	if err != nil {
		return err
	}

	userID := user.ID.Hex()
	if _, err := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		ResetToken: &repository.ResetTokenParams{
			TokenHash: security.HashToken(token),
			ExpiresAt: u.now().Add(u.expiresIn),
		},
	}); err != nil {
		return err
	}

	if err := u.mailer.Send(ctx, passwordResetEmail(user, link, u.expiresIn)); err != nil {
		u.logger.Error().Err(err).Str("user_id", userID).Msg("failed to send password reset email")

		if _, clearErr := u.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
			ClearResetToken: true,
		}); clearErr != nil {
			u.logger.Error().Err(clearErr).Str("user_id", userID).Msg("failed to clear password reset token")
		}

		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	return nil
}

func (u *passwordResetUsecase) ResetPassword(ctx context.Context, params ResetPasswordParams) error {
	token := strings.TrimSpace(params.Token)
	if token == "" || params.Password == "" {
		return validationError("please provide token and password")
	}

	user, err := u.userRepo.GetUserByResetToken(ctx, security.HashToken(token), u.now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrInvalidOrExpiredToken
		}

		return err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return err
	}

	_, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		PasswordHash:    &passwordHash,
		ClearResetToken: true,
	})
	return err
}
