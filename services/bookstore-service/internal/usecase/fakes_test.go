package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
	"github.com/vasapolrittideah/bookstore-api/shared/mailer"
)

func parseFakeID(id string) (bson.ObjectID, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.NilObjectID, fmt.Errorf("%w: %q", repository.ErrInvalidID, id)
	}
	return objectID, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[bson.ObjectID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[bson.ObjectID]*model.User)}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == user.Email {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
		}
	}

	stored := *user
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	r.users[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	objectID, err := parseFakeID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[objectID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	out := *user
	return &out, nil
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) GetUserByResetToken(_ context.Context, tokenHash string, now time.Time) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ResetPasswordToken != nil && *user.ResetPasswordToken == tokenHash &&
			user.ResetPasswordExpiresAt != nil && user.ResetPasswordExpiresAt.After(now) {
			out := *user
			return &out, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	objectID, err := parseFakeID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[objectID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	if params.Name != nil {
		user.Name = *params.Name
	}
	if params.PasswordHash != nil {
		user.PasswordHash = *params.PasswordHash
	}
	if params.IsVerified != nil {
		user.IsVerified = *params.IsVerified
	}
	if params.OTP != nil {
		code, expiresAt := params.OTP.Code, params.OTP.ExpiresAt
		user.OTP, user.OTPExpiresAt = &code, &expiresAt
	}
	if params.ClearOTP {
		user.OTP, user.OTPExpiresAt = nil, nil
	}
	if params.ResetToken != nil {
		hash, expiresAt := params.ResetToken.TokenHash, params.ResetToken.ExpiresAt
		user.ResetPasswordToken, user.ResetPasswordExpiresAt = &hash, &expiresAt
	}
	if params.ClearResetToken {
		user.ResetPasswordToken, user.ResetPasswordExpiresAt = nil, nil
	}
	user.UpdatedAt = time.Now()

	out := *user
	return &out, nil
}

func (r *fakeUserRepo) ListUsers(_ context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var users []*model.User
	for _, id := range params.IDs {
		if user, ok := r.users[id]; ok {
			out := *user
			users = append(users, &out)
		}
	}

	return users, nil
}

func (r *fakeUserRepo) get(id bson.ObjectID) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := *r.users[id]
	return &out
}

type fakeBookRepo struct {
	mu    sync.Mutex
	books map[bson.ObjectID]*model.Book
	seq   int

	// getBarrier, when set, holds every GetBook caller until all of them arrived.
	getBarrier *sync.WaitGroup
	// afterGet, when set, runs once after the next GetBook returns its copy.
	afterGet func()
	// decrementErr, when set, is returned by DecrementStock.
	decrementErr error
}

func newFakeBookRepo() *fakeBookRepo {
	return &fakeBookRepo{books: make(map[bson.ObjectID]*model.Book)}
}

func (r *fakeBookRepo) CreateBook(_ context.Context, book *model.Book) (*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	stored := *book
	stored.ID = bson.NewObjectID()
	stored.CreatedAt = time.Date(2024, 1, 1, 0, 0, r.seq, 0, time.UTC)
	stored.UpdatedAt = stored.CreatedAt
	r.books[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *fakeBookRepo) GetBook(_ context.Context, id string) (*model.Book, error) {
	if r.getBarrier != nil {
		r.getBarrier.Done()
		r.getBarrier.Wait()
	}

	objectID, err := parseFakeID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	book, ok := r.books[objectID]
	var out model.Book
	if ok {
		out = *book
	}
	hook := r.afterGet
	r.afterGet = nil
	r.mu.Unlock()

	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	if hook != nil {
		hook()
	}

	return &out, nil
}

func (r *fakeBookRepo) ListBooks(_ context.Context, params repository.FilterBooksParams) ([]*model.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ids map[bson.ObjectID]bool
	if params.IDs != nil {
		ids = make(map[bson.ObjectID]bool, len(params.IDs))
		for _, id := range params.IDs {
			ids[id] = true
		}
	}

	var books []*model.Book
	for _, book := range r.books {
		if ids != nil && !ids[book.ID] {
			continue
		}
		if params.Keyword != nil {
			keyword := strings.ToLower(*params.Keyword)
			if !strings.Contains(strings.ToLower(book.Title), keyword) &&
				!strings.Contains(strings.ToLower(book.Author), keyword) {
				continue
			}
		}
		if params.Category != nil && book.Category != *params.Category {
			continue
		}
		if params.SellerID != nil && book.SellerID != *params.SellerID {
			continue
		}
		if params.AvailableOnly && (book.Status != model.StatusAvailable || book.Stock < 1) {
			continue
		}

		out := *book
		books = append(books, &out)
	}

	sort.Slice(books, func(i, j int) bool {
		return books[i].CreatedAt.After(books[j].CreatedAt)
	})

	return books, nil
}

func (r *fakeBookRepo) ListBooksByIDs(ctx context.Context, ids []bson.ObjectID) ([]*model.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	return r.ListBooks(ctx, repository.FilterBooksParams{IDs: ids})
}

func (r *fakeBookRepo) UpdateBook(
	_ context.Context,
	id string,
	params repository.UpdateBookParams,
) (*model.Book, error) {
	objectID, err := parseFakeID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[objectID]
	if !ok || (params.MinStock != nil && book.Stock < *params.MinStock) {
		return nil, mongo.ErrNoDocuments
	}

	if params.Title != nil {
		book.Title = *params.Title
	}
	if params.Author != nil {
		book.Author = *params.Author
	}
	if params.Description != nil {
		book.Description = *params.Description
	}
	if params.Price != nil {
		book.Price = *params.Price
	}
	if params.Condition != nil {
		book.Condition = *params.Condition
	}
	if params.Category != nil {
		book.Category = *params.Category
	}
	if params.Stock != nil {
		book.Stock = *params.Stock
	}
	if params.Status != nil {
		book.Status = *params.Status
	}
	if params.Image != nil {
		book.Image = *params.Image
	}

	out := *book
	return &out, nil
}

func (r *fakeBookRepo) DeleteBook(_ context.Context, id string) error {
	objectID, err := parseFakeID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[objectID]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.books, objectID)

	return nil
}

func (r *fakeBookRepo) DecrementStock(_ context.Context, id string) (*model.Book, error) {
	if r.decrementErr != nil {
		return nil, r.decrementErr
	}

	objectID, err := parseFakeID(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[objectID]
	if !ok || book.Status != model.StatusAvailable || book.Stock < 1 {
		return nil, mongo.ErrNoDocuments
	}

	book.Stock--
	book.Status = model.StatusForStock(book.Stock)

	out := *book
	return &out, nil
}

func (r *fakeBookRepo) get(id bson.ObjectID) (*model.Book, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok {
		return nil, false
	}

	out := *book
	return &out, true
}

type fakePurchaseRepo struct {
	mu        sync.Mutex
	purchases map[bson.ObjectID]*model.Purchase
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{purchases: make(map[bson.ObjectID]*model.Purchase)}
}

func (r *fakePurchaseRepo) CreatePurchase(_ context.Context, purchase *model.Purchase) (*model.Purchase, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *purchase
	stored.ID = bson.NewObjectID()
	r.purchases[stored.ID] = &stored

	out := stored
	return &out, nil
}

func (r *fakePurchaseRepo) DeletePurchase(_ context.Context, id string) error {
	objectID, err := parseFakeID(id)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.purchases, objectID)
	return nil
}

func (r *fakePurchaseRepo) ListPurchasesByBuyer(_ context.Context, buyerID string) ([]*model.Purchase, error) {
	objectID, err := parseFakeID(buyerID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var purchases []*model.Purchase
	for _, purchase := range r.purchases {
		if purchase.BuyerID == objectID {
			out := *purchase
			purchases = append(purchases, &out)
		}
	}

	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].PurchasedAt.After(purchases[j].PurchasedAt)
	})

	return purchases, nil
}

func (r *fakePurchaseRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.purchases)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, email mailer.Email) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type fakeTokenIssuer struct{}

func (fakeTokenIssuer) Issue(userID string) (string, error) {
	return "token-" + userID, nil
}

type fakeImageStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{saved: make(map[string][]byte)}
}

func (s *fakeImageStore) Save(_ context.Context, name, _ string, r io.Reader, _ int64) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ref := "uploads/" + name
	s.saved[ref] = data
	return ref, nil
}

func (s *fakeImageStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.saved[ref]; !ok {
		return errors.New("image not found")
	}
	delete(s.saved, ref)
	s.deleted = append(s.deleted, ref)
	return nil
}

func imageUpload(name string) *ImageUpload {
	data := []byte("\x89PNG\r\n\x1a\n")
	return &ImageUpload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(data)),
		Reader:      bytes.NewReader(data),
	}
}
