package handler

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
)

type mockAuthUsecase struct{ mock.Mock }

func (m *mockAuthUsecase) Register(ctx context.Context, params usecase.RegisterParams) (*model.User, error) {
	args := m.Called(ctx, params)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockAuthUsecase) Verify(ctx context.Context, params usecase.VerifyParams) (*usecase.AuthResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*usecase.AuthResult)
	return result, args.Error(1)
}

func (m *mockAuthUsecase) Login(ctx context.Context, params usecase.LoginParams) (*usecase.AuthResult, error) {
	args := m.Called(ctx, params)
	result, _ := args.Get(0).(*usecase.AuthResult)
	return result, args.Error(1)
}

func (m *mockAuthUsecase) ResendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockPasswordResetUsecase struct{ mock.Mock }

func (m *mockPasswordResetUsecase) ForgotPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockPasswordResetUsecase) ResetPassword(ctx context.Context, params usecase.ResetPasswordParams) error {
	return m.Called(ctx, params).Error(0)
}

type mockProfileUsecase struct{ mock.Mock }

func (m *mockProfileUsecase) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *mockProfileUsecase) UpdateProfile(
	ctx context.Context,
	userID string,
	params usecase.UpdateProfileParams,
) (*model.User, error) {
	args := m.Called(ctx, userID, params)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

type mockBookUsecase struct{ mock.Mock }

func (m *mockBookUsecase) ListBooks(ctx context.Context, params usecase.ListBooksParams) ([]*usecase.BookDetail, error) {
	args := m.Called(ctx, params)
	books, _ := args.Get(0).([]*usecase.BookDetail)
	return books, args.Error(1)
}

func (m *mockBookUsecase) ListMyBooks(ctx context.Context, sellerID string) ([]*model.Book, error) {
	args := m.Called(ctx, sellerID)
	books, _ := args.Get(0).([]*model.Book)
	return books, args.Error(1)
}

func (m *mockBookUsecase) GetBook(ctx context.Context, id string) (*usecase.BookDetail, error) {
	args := m.Called(ctx, id)
	book, _ := args.Get(0).(*usecase.BookDetail)
	return book, args.Error(1)
}

func (m *mockBookUsecase) CreateBook(
	ctx context.Context,
	sellerID string,
	params usecase.CreateBookParams,
) (*model.Book, error) {
	args := m.Called(ctx, sellerID, params)
	book, _ := args.Get(0).(*model.Book)
	return book, args.Error(1)
}

func (m *mockBookUsecase) UpdateBook(
	ctx context.Context,
	id, callerID string,
	params usecase.UpdateBookParams,
) (*model.Book, error) {
	args := m.Called(ctx, id, callerID, params)
	book, _ := args.Get(0).(*model.Book)
	return book, args.Error(1)
}

func (m *mockBookUsecase) DeleteBook(ctx context.Context, id, callerID string) error {
	return m.Called(ctx, id, callerID).Error(0)
}

type mockPurchaseUsecase struct{ mock.Mock }

func (m *mockPurchaseUsecase) Buy(ctx context.Context, bookID, buyerID string) (*model.Purchase, error) {
	args := m.Called(ctx, bookID, buyerID)
	purchase, _ := args.Get(0).(*model.Purchase)
	return purchase, args.Error(1)
}

func (m *mockPurchaseUsecase) History(ctx context.Context, buyerID string) ([]*usecase.PurchaseRecord, error) {
	args := m.Called(ctx, buyerID)
	records, _ := args.Get(0).([]*usecase.PurchaseRecord)
	return records, args.Error(1)
}

// stubVerifier accepts "token-<id>" bearer tokens.
type stubVerifier struct{}

func (stubVerifier) Verify(token string) (string, error) {
	if len(token) > len("token-") && token[:len("token-")] == "token-" {
		return token[len("token-"):], nil
	}
	return "", errors.New("invalid token")
}
