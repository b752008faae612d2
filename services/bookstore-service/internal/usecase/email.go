package usecase

import (
	"fmt"
	"net/url"
	"time"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/shared/mailer"
)

func verificationEmail(user *model.User, code string, ttl time.Duration) mailer.Email {
	return mailer.Email{
		To:      []string{user.Email},
		Subject: "BookStore Account Verification",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour verification code is: %s. It expires in %d minutes.",
			user.Name, code, int(ttl.Minutes()),
		),
	}
}

func resendVerificationEmail(user *model.User, code string, ttl time.Duration) mailer.Email {
	email := verificationEmail(user, code, ttl)
	email.Subject = "BookStore - Resend Verification Code"
	email.Body = fmt.Sprintf(
		"Hi %s,\n\nYour new verification code is: %s. It expires in %d minutes.",
		user.Name, code, int(ttl.Minutes()),
	)
	return email
}

func passwordResetEmail(user *model.User, link string, ttl time.Duration) mailer.Email {
	return mailer.Email{
		To:      []string{user.Email},
		Subject: "BookStore Password Reset",
		Body: fmt.Sprintf(
			"Hi %s,\n\nReset your password using the link below. It expires in %d minutes.\n\n%s\n\n"+
				"If you did not request a password reset, you can ignore this email.",
			user.Name, int(ttl.Minutes()), link,
		),
	}
}

func bookSoldEmail(seller *model.User, book *model.Book, buyerName string) mailer.Email {
	return mailer.Email{
		To:      []string{seller.Email},
		Subject: "BookStore - Your book was sold",
		Body: fmt.Sprintf(
			"Hi %s,\n\n%s bought \"%s\". Remaining stock: %d.",
			seller.Name, buyerName, book.Title, book.Stock,
		),
	}
}

// resetLink appends the token to base as the "token" query parameter.
func resetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse password reset url: %w", err)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	return u.String(), nil
}
