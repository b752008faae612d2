package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/shared/logger"
	"github.com/vasapolrittideah/bookstore-api/shared/security"
)

const (
	testOTPTTL   = 10 * time.Minute
	testResetTTL = 10 * time.Minute
	testResetURL = "http://localhost:5173/reset-password"
)

type testEnv struct {
	users     *fakeUserRepo
	books     *fakeBookRepo
	purchases *fakePurchaseRepo
	mailer    *mockMailer
	images    *fakeImageStore

	auth     *authUsecase
	reset    *passwordResetUsecase
	profile  ProfileUsecase
	book     *bookUsecase
	purchase *purchaseUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:     newFakeUserRepo(),
		books:     newFakeBookRepo(),
		purchases: newFakePurchaseRepo(),
		mailer:    &mockMailer{},
		images:    newFakeImageStore(),
	}

	log := logger.Nop()

	env.auth = NewAuthUsecase(
		env.users, fakeTokenIssuer{}, security.NewOTPManager(testOTPTTL), env.mailer, log,
	).(*authUsecase)
	env.reset = NewPasswordResetUsecase(
		env.users, env.mailer, log, testResetURL, testResetTTL,
	).(*passwordResetUsecase)
	env.profile = NewProfileUsecase(env.users)
	env.book = NewBookUsecase(env.books, env.users, env.images, log).(*bookUsecase)
	env.purchase = NewPurchaseUsecase(env.purchases, env.books, env.users, env.mailer, log).(*purchaseUsecase)

	return env
}

func (e *testEnv) expectEmails() {
	e.mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
}

// verifiedUser registers and verifies an account directly in the fake store.
func (e *testEnv) verifiedUser(t *testing.T, name, email string) *model.User {
	t.Helper()

	hash, err := security.HashPassword("password123")
	require.NoError(t, err)

	user, err := e.users.CreateUser(context.Background(), &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsVerified:   true,
	})
	require.NoError(t, err)

	return user
}

func (e *testEnv) listing(t *testing.T, seller bson.ObjectID, title string, stock int) *model.Book {
	t.Helper()

	book, err := e.books.CreateBook(context.Background(), &model.Book{
		Title:       title,
		Author:      "Author of " + title,
		Description: "A used copy",
		Price:       10,
		Condition:   model.ConditionGood,
		Category:    model.CategoryFiction,
		Stock:       stock,
		Image:       model.DefaultBookImage,
		SellerID:    seller,
		Status:      model.StatusForStock(stock),
	})
	require.NoError(t, err)

	return book
}

func ptr[T any](v T) *T {
	return &v
}
