package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
	"github.com/vasapolrittideah/bookstore-api/shared/mailer"
	"github.com/vasapolrittideah/bookstore-api/shared/security"
)

// AuthUsecase defines the interface for authentication-related use cases.
type AuthUsecase interface {
	Register(ctx context.Context, params RegisterParams) (*model.User, error)
	Verify(ctx context.Context, params VerifyParams) (*AuthResult, error)
	Login(ctx context.Context, params LoginParams) (*AuthResult, error)
	ResendOTP(ctx context.Context, email string) error
}

// TokenIssuer issues bearer tokens for a user id.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// RegisterParams defines the parameters for user registration.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// VerifyParams defines the parameters for email verification.
type VerifyParams struct {
	Email string
	OTP   string
}

// LoginParams defines the parameters for user login.
type LoginParams struct {
	Email    string
	Password string
}

// AuthResult is a freshly issued token and the user it identifies.
type AuthResult struct {
	Token string
	User  *model.User
}

type authUsecase struct {
	userRepo    repository.UserRepository
	tokenIssuer TokenIssuer
	otpManager  *security.OTPManager
	mailer      mailer.Sender
	logger      *zerolog.Logger
	now         func() time.Time
}

func NewAuthUsecase(
	userRepo repository.UserRepository,
	tokenIssuer TokenIssuer,
	otpManager *security.OTPManager,
	mailer mailer.Sender,
	logger *zerolog.Logger,
) AuthUsecase {
	return &authUsecase{
		userRepo:    userRepo,
		tokenIssuer: tokenIssuer,
		otpManager:  otpManager,
		mailer:      mailer,
		logger:      logger,
		now:         time.Now,
	}
}

func (u *authUsecase) Register(ctx context.Context, params RegisterParams) (*model.User, error) {
	name := strings.TrimSpace(params.Name)
	email := strings.TrimSpace(params.Email)
	if name == "" || email == "" || params.Password == "" {
		return nil, validationError("please add all fields")
	}

	if _, err := u.userRepo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrUserAlreadyExists
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	passwordHash, err := security.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	otp, err := u.otpManager.Generate()
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		OTP:          &otp.Code,
		OTPExpiresAt: &otp.ExpiresAt,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrUserAlreadyExists
		}

		return nil, err
	}

	if err := u.mailer.Send(ctx, verificationEmail(user, otp.Code, u.otpManager.TTL())); err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send verification email")
		return nil, fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	return user, nil
}

func (u *authUsecase) Verify(ctx context.Context, params VerifyParams) (*AuthResult, error) {
	email := strings.TrimSpace(params.Email)
	code := strings.TrimSpace(params.OTP)
	if email == "" || code == "" {
		return nil, validationError("please provide email and otp")
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	if user.OTP == nil || user.OTPExpiresAt == nil ||
		!u.otpManager.Validate(*user.OTP, *user.OTPExpiresAt, code, u.now()) {
		return nil, ErrInvalidOrExpiredOTP
	}

	verified := true
	user, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		IsVerified: &verified,
		ClearOTP:   true,
	})
	if err != nil {
		return nil, err
	}

	token, err := u.tokenIssuer.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

func (u *authUsecase) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	email := strings.TrimSpace(params.Email)
	if email == "" || params.Password == "" {
		return nil, validationError("please add email and password")
	}

	user, err := u.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(params.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrUserNotVerified
	}

	token, err := u.tokenIssuer.Issue(user.ID.Hex())
	if err != nil {
		return nil, err
	}

	return &AuthResult{Token: token, User: user}, nil
}

func (u *authUsecase) ResendOTP(ctx context.Context, email string) error {
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

	if user.IsVerified {
		return ErrUserAlreadyVerified
	}

	otp, err := u.otpManager.Generate()
	if err != nil {
		return err
	}

	if _, err := u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
		OTP: &repository.OTPParams{Code: otp.Code, ExpiresAt: otp.ExpiresAt},
	}); err != nil {
		return err
	}

	if err := u.mailer.Send(ctx, resendVerificationEmail(user, otp.Code, u.otpManager.TTL())); err != nil {
		u.logger.Error().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to resend verification email")
		return fmt.Errorf("%w: %w", ErrEmailDelivery, err)
	}

	return nil
}
