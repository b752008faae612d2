package usecase

import (
	"context"
	"strings"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
	"github.com/vasapolrittideah/bookstore-api/shared/security"
)

// ProfileUsecase defines the interface for the caller's own account.
type ProfileUsecase interface {
	GetProfile(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.User, error)
}

// UpdateProfileParams defines the optional profile changes. Blank values are ignored.
type UpdateProfileParams struct {
	Name     *string
	Password *string
}

type profileUsecase struct {
	userRepo repository.UserRepository
}

func NewProfileUsecase(userRepo repository.UserRepository) ProfileUsecase {
	return &profileUsecase{userRepo: userRepo}
}

func (u *profileUsecase) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	user, err := u.userRepo.GetUser(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}

func (u *profileUsecase) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.User, error) {
	user, err := u.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	var update repository.UpdateUserParams
	changed := false

	if params.Name != nil {
		if name := strings.TrimSpace(*params.Name); name != "" {
			update.Name = &name
			changed = true
		}
	}

	if params.Password != nil && *params.Password != "" {
		passwordHash, err := security.HashPassword(*params.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &passwordHash
		changed = true
	}

	if !changed {
		return user, nil
	}

	user, err = u.userRepo.UpdateUser(ctx, userID, update)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return user, nil
}
