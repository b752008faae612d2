package usecase

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
)

var errNeedsStock = validationError("an available book needs a stock of at least 1")

// BookUsecase defines the interface for listing management.
type BookUsecase interface {
	ListBooks(ctx context.Context, params ListBooksParams) ([]*BookDetail, error)
	ListMyBooks(ctx context.Context, sellerID string) ([]*model.Book, error)
	GetBook(ctx context.Context, id string) (*BookDetail, error)
	CreateBook(ctx context.Context, sellerID string, params CreateBookParams) (*model.Book, error)
	UpdateBook(ctx context.Context, id, callerID string, params UpdateBookParams) (*model.Book, error)
	DeleteBook(ctx context.Context, id, callerID string) error
}

// ImageStore persists uploaded book images and returns a reference clients can fetch.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ImageUpload is an image file received with a listing.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// SellerSummary is the public part of a seller's account.
type SellerSummary struct {
	ID    bson.ObjectID
	Name  string
	Email string
}

// BookDetail is a listing with its seller. Seller is nil when the account no longer exists.
type BookDetail struct {
	*model.Book
	Seller *SellerSummary
}

// ListBooksParams defines the catalog filters. An empty or "All" category matches every category.
type ListBooksParams struct {
	Keyword  string
	Category string
}

// CreateBookParams defines the parameters for a new listing.
type CreateBookParams struct {
	Title       string
	Author      string
	Description string
	Price       *float64
	Condition   model.BookCondition
	Category    model.BookCategory
	Stock       *int
	Image       *ImageUpload
}

// UpdateBookParams defines the optional listing changes. Only non-nil fields change.
type UpdateBookParams struct {
	Title       *string
	Author      *string
	Description *string
	Price       *float64
	Condition   *model.BookCondition
	Category    *model.BookCategory
	Stock       *int
	Status      *model.BookStatus
	Image       *ImageUpload
}

type bookUsecase struct {
	bookRepo   repository.BookRepository
	userRepo   repository.UserRepository
	imageStore ImageStore
	logger     *zerolog.Logger
}

func NewBookUsecase(
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	imageStore ImageStore,
	logger *zerolog.Logger,
) BookUsecase {
	return &bookUsecase{
		bookRepo:   bookRepo,
		userRepo:   userRepo,
		imageStore: imageStore,
		logger:     logger,
	}
}

func (u *bookUsecase) ListBooks(ctx context.Context, params ListBooksParams) ([]*BookDetail, error) {
	filter := repository.FilterBooksParams{AvailableOnly: true}

	if keyword := strings.TrimSpace(params.Keyword); keyword != "" {
		filter.Keyword = &keyword
	}

	if category := strings.TrimSpace(params.Category); category != "" && category != model.CategoryAll {
		c := model.BookCategory(category)
		filter.Category = &c
	}

	books, err := u.bookRepo.ListBooks(ctx, filter)
	if err != nil {
		return nil, err
	}

	return u.withSellers(ctx, books)
}

func (u *bookUsecase) ListMyBooks(ctx context.Context, sellerID string) ([]*model.Book, error) {
	sellerObjectID, err := bson.ObjectIDFromHex(sellerID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	return u.bookRepo.ListBooks(ctx, repository.FilterBooksParams{SellerID: &sellerObjectID})
}

func (u *bookUsecase) GetBook(ctx context.Context, id string) (*BookDetail, error) {
	book, err := u.getBook(ctx, id)
	if err != nil {
		return nil, err
	}

	details, err := u.withSellers(ctx, []*model.Book{book})
	if err != nil {
		return nil, err
	}

	return details[0], nil
}

func (u *bookUsecase) CreateBook(
	ctx context.Context,
	sellerID string,
	params CreateBookParams,
) (*model.Book, error) {
	sellerObjectID, err := bson.ObjectIDFromHex(sellerID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	book, err := newBook(sellerObjectID, params)
	if err != nil {
		return nil, err
	}

	if params.Image != nil {
		ref, err := u.saveImage(ctx, params.Image)
		if err != nil {
			return nil, err
		}
		book.Image = ref
	}

	created, err := u.bookRepo.CreateBook(ctx, book)
	if err != nil {
		u.removeImage(ctx, book.Image)
		return nil, err
	}

	return created, nil
}

// newBook validates params and applies the listing defaults.
func newBook(sellerID bson.ObjectID, params CreateBookParams) (*model.Book, error) {
	title := strings.TrimSpace(params.Title)
	author := strings.TrimSpace(params.Author)
	description := strings.TrimSpace(params.Description)

	switch {
	case title == "":
		return nil, validationError("please add a title")
	case author == "":
		return nil, validationError("please add an author")
	case description == "":
		return nil, validationError("please add a description")
	case params.Price == nil:
		return nil, validationError("please add a price")
	case *params.Price < 0:
		return nil, validationError("price must be zero or greater")
	case !params.Condition.Valid():
		return nil, validationError("please specify the condition")
	}

	category := params.Category
	if category == "" {
		category = model.CategoryOther
	}
	if !category.Valid() {
		return nil, validationError("invalid category %q", category)
	}

	stock := 1
	if params.Stock != nil {
		stock = *params.Stock
	}
	if stock < 0 {
		return nil, validationError("stock must be zero or greater")
	}

	return &model.Book{
		Title:       title,
		Author:      author,
		Description: description,
		Price:       *params.Price,
		Condition:   params.Condition,
		Category:    category,
		Stock:       stock,
		Image:       model.DefaultBookImage,
		SellerID:    sellerID,
		Status:      model.StatusForStock(stock),
	}, nil
}

func (u *bookUsecase) UpdateBook(
	ctx context.Context,
	id, callerID string,
	params UpdateBookParams,
) (*model.Book, error) {
	book, err := u.getOwnedBook(ctx, id, callerID)
	if err != nil {
		return nil, err
	}

	update, err := bookUpdate(book, params)
	if err != nil {
		return nil, err
	}

	if params.Image != nil {
		ref, err := u.saveImage(ctx, params.Image)
		if err != nil {
			return nil, err
		}
		update.Image = &ref
	}

	updated, err := u.bookRepo.UpdateBook(ctx, id, update)
	if err != nil {
		if update.Image != nil {
			u.removeImage(ctx, *update.Image)
		}
		if isNotFound(err) {
			if update.MinStock != nil {
				if _, getErr := u.getBook(ctx, id); getErr == nil {
					return nil, errNeedsStock
				}
			}
			return nil, ErrBookNotFound
		}

		return nil, err
	}

	if update.Image != nil {
		u.removeImage(ctx, book.Image)
	}

	return updated, nil
}

// bookUpdate validates params against the current listing. Stock and status are
// resolved together so that a book is sold exactly when its stock is zero.
func bookUpdate(book *model.Book, params UpdateBookParams) (repository.UpdateBookParams, error) {
	update := repository.UpdateBookParams{
		Condition: params.Condition,
		Category:  params.Category,
		Price:     params.Price,
	}

	for _, field := range []struct {
		name  string
		value *string
		dst   **string
	}{
		{"title", params.Title, &update.Title},
		{"author", params.Author, &update.Author},
		{"description", params.Description, &update.Description},
	} {
		if field.value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*field.value)
		if trimmed == "" {
			return update, validationError("%s cannot be empty", field.name)
		}
		*field.dst = &trimmed
	}

	if params.Price != nil && *params.Price < 0 {
		return update, validationError("price must be zero or greater")
	}
	if params.Condition != nil && !params.Condition.Valid() {
		return update, validationError("invalid condition %q", *params.Condition)
	}
	if params.Category != nil && !params.Category.Valid() {
		return update, validationError("invalid category %q", *params.Category)
	}

	if params.Stock == nil && params.Status == nil {
		return update, nil
	}

	if params.Stock != nil && *params.Stock < 0 {
		return update, validationError("stock must be zero or greater")
	}
	if params.Status != nil && *params.Status != model.StatusSold && *params.Status != model.StatusAvailable {
		return update, validationError("invalid status %q", *params.Status)
	}

	if params.Status != nil && *params.Status == model.StatusSold {
		stock, status := 0, model.StatusSold
		update.Stock, update.Status = &stock, &status
		return update, nil
	}

	if params.Stock != nil {
		stock := *params.Stock
		if params.Status != nil && stock < 1 {
			return update, errNeedsStock
		}
		status := model.StatusForStock(stock)
		update.Stock, update.Status = &stock, &status
		return update, nil
	}

	// Only status=available was supplied. Stock is left untouched and the write
	// applies only while stock remains, so a concurrent sale is never undone.
	if book.Stock < 1 {
		return update, errNeedsStock
	}
	status, minStock := model.StatusAvailable, 1
	update.Status, update.MinStock = &status, &minStock

	return update, nil
}

func (u *bookUsecase) DeleteBook(ctx context.Context, id, callerID string) error {
	book, err := u.getOwnedBook(ctx, id, callerID)
	if err != nil {
		return err
	}

	if err := u.bookRepo.DeleteBook(ctx, id); err != nil {
		if isNotFound(err) {
			return ErrBookNotFound
		}

		return err
	}

	u.removeImage(ctx, book.Image)

	return nil
}

func (u *bookUsecase) getBook(ctx context.Context, id string) (*model.Book, error) {
	book, err := u.bookRepo.GetBook(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}

		return nil, err
	}

	return book, nil
}

func (u *bookUsecase) getOwnedBook(ctx context.Context, id, callerID string) (*model.Book, error) {
	book, err := u.getBook(ctx, id)
	if err != nil {
		return nil, err
	}

	if book.SellerID.Hex() != callerID {
		return nil, ErrNotBookOwner
	}

	return book, nil
}

func (u *bookUsecase) withSellers(ctx context.Context, books []*model.Book) ([]*BookDetail, error) {
	sellerIDs := make([]bson.ObjectID, 0, len(books))
	for _, book := range books {
		sellerIDs = append(sellerIDs, book.SellerID)
	}

	sellers, err := sellerSummaries(ctx, u.userRepo, sellerIDs)
	if err != nil {
		return nil, err
	}

	details := make([]*BookDetail, 0, len(books))
	for _, book := range books {
		details = append(details, &BookDetail{Book: book, Seller: sellers[book.SellerID]})
	}

	return details, nil
}

// sellerSummaries loads the accounts behind ids, keyed by id. Missing accounts are absent.
func sellerSummaries(
	ctx context.Context,
	userRepo repository.UserRepository,
	ids []bson.ObjectID,
) (map[bson.ObjectID]*SellerSummary, error) {
	summaries := make(map[bson.ObjectID]*SellerSummary)
	if len(ids) == 0 {
		return summaries, nil
	}

	unique := make([]bson.ObjectID, 0, len(ids))
	seen := make(map[bson.ObjectID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	users, err := userRepo.ListUsers(ctx, repository.FilterUsersParams{IDs: unique})
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		summaries[user.ID] = &SellerSummary{ID: user.ID, Name: user.Name, Email: user.Email}
	}

	return summaries, nil
}

func (u *bookUsecase) saveImage(ctx context.Context, image *ImageUpload) (string, error) {
	name := imageObjectName(image.Filename, time.Now())
	return u.imageStore.Save(ctx, name, image.ContentType, image.Reader, image.Size)
}

// removeImage deletes a stored image. Failures are logged and otherwise ignored.
func (u *bookUsecase) removeImage(ctx context.Context, ref string) {
	if ref == "" || ref == model.DefaultBookImage {
		return
	}

	if err := u.imageStore.Delete(ctx, ref); err != nil {
		u.logger.Warn().Err(err).Str("image", ref).Msg("failed to delete book image")
	}
}

// imageObjectName builds a unique name for an upload, keeping its extension.
func imageObjectName(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return "image-" + now.UTC().Format("20060102") + "-" + uuid.NewString() + ext
}
