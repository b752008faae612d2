package usecase

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
)

var (
	ErrValidation            = errors.New("validation failed")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrBookNotFound          = errors.New("book not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrInvalidOrExpiredOTP   = errors.New("invalid or expired otp")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrUserAlreadyVerified   = errors.New("account is already verified")
	ErrUserNotVerified       = errors.New("please verify your email first")
	ErrNotBookOwner          = errors.New("not authorized to modify this book")
	ErrEmailDelivery         = errors.New("email could not be sent")
	ErrSelfPurchase          = errors.New("you cannot buy your own book")
	ErrBookOutOfStock        = errors.New("this book is already sold")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// isNotFound reports whether err means the document does not exist. Malformed
// ids can never match a document, so they count as not found.
func isNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments) || errors.Is(err, repository.ErrInvalidID)
}
