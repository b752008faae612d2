package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/payload"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/usecase"
	"github.com/vasapolrittideah/bookstore-api/shared/logger"
)

type testServer struct {
	handler  http.Handler
	auth     *mockAuthUsecase
	reset    *mockPasswordResetUsecase
	profile  *mockProfileUsecase
	book     *mockBookUsecase
	purchase *mockPurchaseUsecase
	pingErr  error
	uploads  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	v, err := payload.NewValidator()
	require.NoError(t, err)

	log := logger.Nop()
	s := &testServer{
		auth:     &mockAuthUsecase{},
		reset:    &mockPasswordResetUsecase{},
		profile:  &mockProfileUsecase{},
		book:     &mockBookUsecase{},
		purchase: &mockPurchaseUsecase{},
		uploads:  t.TempDir(),
	}

	s.handler = NewRouter(RouterParams{
		Auth:     NewAuthHandler(s.auth, s.reset, s.profile, v, log),
		Book:     NewBookHandler(s.book, v, log),
		Purchase: NewPurchaseHandler(s.purchase, log),
		Health: NewHealthHandler(func(context.Context) error {
			return s.pingErr
		}, log),
		Verifier:       stubVerifier{},
		Logger:         log,
		AllowedOrigins: []string{"*"},
		UploadsDir:     s.uploads,
	})

	return s
}

type requestOption func(*http.Request)

func withToken(userID string) requestOption {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer token-"+userID) }
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestBannerAndHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bookstore API is running...", rec.Body.String())

	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.pingErr = errors.New("no primary")
	rec = s.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadsAreServed(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(s.uploads, "a.png"), []byte("png"), 0o644))

	rec := s.do(t, http.MethodGet, "/uploads/a.png", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "png", rec.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["success"])
}

func TestAuthHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		s := newTestServer(t)
		id := bson.NewObjectID()
		s.auth.On("Register", mock.Anything, usecase.RegisterParams{
			Name: "Ann", Email: "ann@example.com", Password: "secret",
		}).Return(&model.User{ID: id, Name: "Ann", Email: "ann@example.com"}, nil)

		rec := s.do(t, http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
			"name": "Ann", "email": "ann@example.com", "password": "secret",
		}))
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Registered! An OTP has been sent to ann@example.com", body["message"])
		assert.Equal(t, id.Hex(), body["data"].(map[string]any)["userId"])
	})

	t.Run("missing field never reaches the usecase", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
			"name": "Ann", "password": "secret",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeBody(t, rec)["message"], "email")
		s.auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("empty body", func(t *testing.T) {
		s := newTestServer(t)

		rec := s.do(t, http.MethodPost, "/api/auth/register", strings.NewReader(""))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("Register", mock.Anything, mock.Anything).Return(nil, usecase.ErrUserAlreadyExists)

		rec := s.do(t, http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
			"name": "Ann", "email": "ann@example.com", "password": "secret",
		}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "User already exists", decodeBody(t, rec)["message"])
	})

	t.Run("email failure", func(t *testing.T) {
		s := newTestServer(t)
		s.auth.On("Register", mock.Anything, mock.Anything).
			Return(nil, errors.Join(usecase.ErrEmailDelivery, errors.New("smtp down")))

		rec := s.do(t, http.MethodPost, "/api/auth/register", jsonBody(t, map[string]string{
			"name": "Ann", "email": "ann@example.com", "password": "secret",
		}))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Email could not be sent", decodeBody(t, rec)["message"])
	})
}

func TestAuthHandler_VerifyAndLogin(t *testing.T) {
	s := newTestServer(t)
	id := bson.NewObjectID()
	user := &model.User{ID: id, Name: "Ann", Email: "ann@example.com", IsVerified: true}

	s.auth.On("Verify", mock.Anything, usecase.VerifyParams{Email: "ann@example.com", OTP: "123456"}).
		Return(&usecase.AuthResult{Token: "jwt", User: user}, nil)
	s.auth.On("Login", mock.Anything, usecase.LoginParams{Email: "ann@example.com", Password: "secret"}).
		Return(&usecase.AuthResult{Token: "jwt", User: user}, nil)
	s.auth.On("Login", mock.Anything, usecase.LoginParams{Email: "new@example.com", Password: "secret"}).
		Return(nil, usecase.ErrUserNotVerified)

	rec := s.do(t, http.MethodPost, "/api/auth/verify", jsonBody(t, map[string]string{
		"email": "ann@example.com", "otp": "123456",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jwt", decodeBody(t, rec)["data"].(map[string]any)["token"])

	rec = s.do(t, http.MethodPost, "/api/auth/verify", jsonBody(t, map[string]string{
		"email": "ann@example.com", "otp": "12ab",
	}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email": "ann@example.com", "password": "secret",
	}))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, id.Hex(), data["_id"])
	assert.Equal(t, "Ann", data["name"])
	assert.Equal(t, "jwt", data["token"])

	rec = s.do(t, http.MethodPost, "/api/auth/login", jsonBody(t, map[string]string{
		"email": "new@example.com", "password": "secret",
	}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Please verify your email first", decodeBody(t, rec)["message"])
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	s := newTestServer(t)
	s.reset.On("ForgotPassword", mock.Anything, "ann@example.com").Return(nil)
	s.reset.On("ForgotPassword", mock.Anything, "nobody@example.com").Return(usecase.ErrUserNotFound)
	s.reset.On("ResetPassword", mock.Anything, usecase.ResetPasswordParams{Token: "abc", Password: "new"}).
		Return(usecase.ErrInvalidOrExpiredToken)

	rec := s.do(t, http.MethodPost, "/api/auth/forgot-password", jsonBody(t, map[string]string{"email": "ann@example.com"}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/forgot-password", jsonBody(t, map[string]string{"email": "nobody@example.com"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/auth/reset-password", jsonBody(t, map[string]string{"token": "abc", "password": "new"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired token", decodeBody(t, rec)["message"])
}

func TestAuthHandler_Profile(t *testing.T) {
	s := newTestServer(t)
	id := bson.NewObjectID()
	user := &model.User{ID: id, Name: "Ann", Email: "ann@example.com", PasswordHash: "$argon2id$hash"}
	s.profile.On("GetProfile", mock.Anything, id.Hex()).Return(user, nil)

	rec := s.do(t, http.MethodGet, "/api/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not authorized, no token", decodeBody(t, rec)["message"])

	req := func(r *http.Request) { r.Header.Set("Authorization", "Bearer forged") }
	rec = s.do(t, http.MethodGet, "/api/auth/profile", nil, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "not authorized, token failed", decodeBody(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/auth/profile", nil, withToken(id.Hex()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "argon2id")
	assert.Equal(t, "Ann", decodeBody(t, rec)["data"].(map[string]any)["name"])

	name := "Annie"
	updated := *user
	updated.Name = name
	s.profile.On("UpdateProfile", mock.Anything, id.Hex(), usecase.UpdateProfileParams{Name: &name}).
		Return(&updated, nil)

	rec = s.do(t, http.MethodPut, "/api/auth/profile", jsonBody(t, map[string]string{"name": name}), withToken(id.Hex()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Annie", decodeBody(t, rec)["data"].(map[string]any)["name"])
}

func TestBookHandler_ListAndGet(t *testing.T) {
	s := newTestServer(t)
	seller := &usecase.SellerSummary{ID: bson.NewObjectID(), Name: "Sam", Email: "sam@example.com"}
	book := &model.Book{ID: bson.NewObjectID(), Title: "Dune", SellerID: seller.ID, Status: model.StatusAvailable}
	caller := bson.NewObjectID().Hex()

	s.book.On("ListBooks", mock.Anything, usecase.ListBooksParams{Keyword: "dune", Category: "Fiction"}).
		Return([]*usecase.BookDetail{{Book: book, Seller: seller}}, nil)
	s.book.On("ListMyBooks", mock.Anything, caller).Return([]*model.Book{}, nil)
	s.book.On("GetBook", mock.Anything, book.ID.Hex()).Return(&usecase.BookDetail{Book: book, Seller: seller}, nil)
	s.book.On("GetBook", mock.Anything, "missing").Return(nil, usecase.ErrBookNotFound)

	rec := s.do(t, http.MethodGet, "/api/books?keyword=dune&category=Fiction", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Sam", first["seller"].(map[string]any)["name"])

	rec = s.do(t, http.MethodGet, "/api/books/my-books", nil, withToken(caller))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["count"])

	rec = s.do(t, http.MethodGet, "/api/books/my-books", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/books/"+book.ID.Hex(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Dune", decodeBody(t, rec)["data"].(map[string]any)["title"])

	rec = s.do(t, http.MethodGet, "/api/books/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Book not found", decodeBody(t, rec)["message"])
}

func multipartBody(t *testing.T, fields map[string]string, filename string, file []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = fw.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestBookHandler_CreateMultipart(t *testing.T) {
	s := newTestServer(t)
	caller := bson.NewObjectID()

	var got usecase.CreateBookParams
	var image []byte
	s.book.On("CreateBook", mock.Anything, caller.Hex(), mock.Anything).
		Run(func(args mock.Arguments) {
			got = args.Get(2).(usecase.CreateBookParams)
			if got.Image != nil {
				image, _ = io.ReadAll(got.Image.Reader)
			}
		}).
		Return(&model.Book{ID: bson.NewObjectID(), Title: "Dune", SellerID: caller, Image: "uploads/x.png"}, nil)

	body, contentType := multipartBody(t, map[string]string{
		"title": "Dune", "author": "Frank Herbert", "description": "Used",
		"price": "12.50", "condition": "Good", "stock": "2",
	}, "cover.png", pngBytes)

	rec := s.do(t, http.MethodPost, "/api/books", body, withToken(caller.Hex()), func(r *http.Request) {
		r.Header.Set("Content-Type", contentType)
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "Dune", got.Title)
	require.NotNil(t, got.Price)
	assert.Equal(t, 12.5, *got.Price)
	require.NotNil(t, got.Stock)
	assert.Equal(t, 2, *got.Stock)
	assert.Equal(t, model.ConditionGood, got.Condition)
	require.NotNil(t, got.Image)
	assert.Equal(t, "cover.png", got.Image.Filename)
	assert.Equal(t, "image/png", got.Image.ContentType)
	assert.Equal(t, pngBytes, image)

	assert.Equal(t, caller.Hex(), decodeBody(t, rec)["data"].(map[string]any)["seller"])
}

func TestBookHandler_CreateRejections(t *testing.T) {
	s := newTestServer(t)
	caller := bson.NewObjectID().Hex()

	send := func(fields map[string]string, filename string, file []byte) *httptest.ResponseRecorder {
		body, contentType := multipartBody(t, fields, filename, file)
		return s.do(t, http.MethodPost, "/api/books", body, withToken(caller), func(r *http.Request) {
			r.Header.Set("Content-Type", contentType)
		})
	}
	valid := map[string]string{
		"title": "Dune", "author": "Frank Herbert", "description": "Used", "price": "12", "condition": "Good",
	}

	rec := send(valid, "notes.txt", []byte("just some text"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "please upload an image file", decodeBody(t, rec)["message"])

	bad := map[string]string{}
	for k, v := range valid {
		bad[k] = v
	}
	bad["price"] = "cheap"
	rec = send(bad, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price must be a number", decodeBody(t, rec)["message"])

	bad["price"] = "3"
	bad["condition"] = "Mint"
	rec = send(bad, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "condition must be one of")

	s.book.AssertNotCalled(t, "CreateBook", mock.Anything, mock.Anything, mock.Anything)

	rec = s.do(t, http.MethodPost, "/api/books", jsonBody(t, valid))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookHandler_UpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	bookID := bson.NewObjectID().Hex()
	owner := bson.NewObjectID().Hex()
	other := bson.NewObjectID().Hex()
	price := 9.0

	s.book.On("UpdateBook", mock.Anything, bookID, other, mock.Anything).Return(nil, usecase.ErrNotBookOwner)
	s.book.On("UpdateBook", mock.Anything, bookID, owner, usecase.UpdateBookParams{Price: &price}).
		Return(&model.Book{Price: 9}, nil)
	s.book.On("DeleteBook", mock.Anything, bookID, owner).Return(nil)

	rec := s.do(t, http.MethodPut, "/api/books/"+bookID, jsonBody(t, map[string]any{"price": 9}), withToken(other))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/books/"+bookID, jsonBody(t, map[string]any{"price": 9}), withToken(owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(9), decodeBody(t, rec)["data"].(map[string]any)["price"])

	rec = s.do(t, http.MethodPut, "/api/books/"+bookID, jsonBody(t, map[string]any{"status": "lost"}), withToken(owner))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/books/"+bookID, nil, withToken(owner))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{}}`, rec.Body.String())
}

func TestPurchaseHandler(t *testing.T) {
	s := newTestServer(t)
	buyer := bson.NewObjectID()
	bookID := bson.NewObjectID()
	purchase := &model.Purchase{
		ID:          bson.NewObjectID(),
		BookID:      bookID,
		BuyerID:     buyer,
		PurchasedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}

	s.purchase.On("Buy", mock.Anything, bookID.Hex(), buyer.Hex()).Return(purchase, nil).Once()
	s.purchase.On("Buy", mock.Anything, bookID.Hex(), buyer.Hex()).Return(nil, usecase.ErrBookOutOfStock)
	s.purchase.On("History", mock.Anything, buyer.Hex()).
		Return([]*usecase.PurchaseRecord{{Purchase: purchase}}, nil)

	rec := s.do(t, http.MethodPost, "/api/purchases/"+bookID.Hex(), nil, withToken(buyer.Hex()))
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Purchase successful", body["message"])
	assert.Equal(t, bookID.Hex(), body["data"].(map[string]any)["book"])

	rec = s.do(t, http.MethodPost, "/api/purchases/"+bookID.Hex(), nil, withToken(buyer.Hex()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "This book is already sold", decodeBody(t, rec)["message"])

	rec = s.do(t, http.MethodGet, "/api/purchases", nil, withToken(buyer.Hex()))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(1), body["count"])
	assert.Nil(t, body["data"].([]any)[0].(map[string]any)["book"])

	rec = s.do(t, http.MethodGet, "/api/purchases", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteUsecaseError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{usecase.ErrValidation, http.StatusBadRequest},
		{usecase.ErrUserAlreadyExists, http.StatusBadRequest},
		{usecase.ErrUserNotFound, http.StatusNotFound},
		{usecase.ErrBookNotFound, http.StatusNotFound},
		{usecase.ErrInvalidCredentials, http.StatusBadRequest},
		{usecase.ErrInvalidOrExpiredOTP, http.StatusBadRequest},
		{usecase.ErrInvalidOrExpiredToken, http.StatusBadRequest},
		{usecase.ErrUserAlreadyVerified, http.StatusBadRequest},
		{usecase.ErrUserNotVerified, http.StatusUnauthorized},
		{usecase.ErrNotBookOwner, http.StatusForbidden},
		{usecase.ErrEmailDelivery, http.StatusInternalServerError},
		{usecase.ErrSelfPurchase, http.StatusBadRequest},
		{usecase.ErrBookOutOfStock, http.StatusBadRequest},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)

			writeUsecaseError(logger.Nop(), rec, req, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, decodeBody(t, rec)["success"])
		})
	}
}

func TestValidationMessage(t *testing.T) {
	err := errors.Join(usecase.ErrValidation)
	assert.Equal(t, "validation failed", validationMessage(err))

	wrapped := errors.New("validation failed: please add a title")
	assert.Equal(t, "please add a title", validationMessage(wrapped))
}
