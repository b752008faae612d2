package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/repository"
	"github.com/vasapolrittideah/bookstore-api/shared/mailer"
)

// PurchaseUsecase defines the interface for buying books.
type PurchaseUsecase interface {
	Buy(ctx context.Context, bookID, buyerID string) (*model.Purchase, error)
	History(ctx context.Context, buyerID string) ([]*PurchaseRecord, error)
}

// PurchasedBook is the summary of a bought book shown in the purchase history.
type PurchasedBook struct {
	ID        bson.ObjectID
	Title     string
	Author    string
	Price     float64
	Image     string
	Condition model.BookCondition
	Seller    *SellerSummary
}

// PurchaseRecord is a purchase with its book. Book is nil when the listing was deleted.
type PurchaseRecord struct {
	*model.Purchase
	Book *PurchasedBook
}

type purchaseUsecase struct {
	purchaseRepo repository.PurchaseRepository
	bookRepo     repository.BookRepository
	userRepo     repository.UserRepository
	mailer       mailer.Sender
	logger       *zerolog.Logger
	now          func() time.Time
}

func NewPurchaseUsecase(
	purchaseRepo repository.PurchaseRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	mailer mailer.Sender,
	logger *zerolog.Logger,
) PurchaseUsecase {
	return &purchaseUsecase{
		purchaseRepo: purchaseRepo,
		bookRepo:     bookRepo,
		userRepo:     userRepo,
		mailer:       mailer,
		logger:       logger,
		now:          time.Now,
	}
}

func (u *purchaseUsecase) Buy(ctx context.Context, bookID, buyerID string) (*model.Purchase, error) {
	book, err := u.bookRepo.GetBook(ctx, bookID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrBookNotFound
		}

		return nil, err
	}

	if !book.InStock() {
		return nil, ErrBookOutOfStock
	}

	buyerObjectID, err := bson.ObjectIDFromHex(buyerID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if book.SellerID == buyerObjectID {
		return nil, ErrSelfPurchase
	}

	purchase, err := u.purchaseRepo.CreatePurchase(ctx, &model.Purchase{
		BookID:      book.ID,
		BuyerID:     buyerObjectID,
		PurchasedAt: u.now(),
	})
	if err != nil {
		return nil, err
	}

	// The decrement only matches while stock remains, so of two racing buyers
	// exactly one gets the book and the other's purchase is withdrawn.
	sold, err := u.bookRepo.DecrementStock(ctx, bookID)
	if err != nil {
		if isNotFound(err) {
			if deleteErr := u.purchaseRepo.DeletePurchase(ctx, purchase.ID.Hex()); deleteErr != nil {
				u.logger.Error().Err(deleteErr).Str("purchase_id", purchase.ID.Hex()).Msg("failed to withdraw purchase")
			}
			return nil, ErrBookOutOfStock
		}

		// Any other failure keeps the purchase record for auditing.
		u.logger.Error().Err(err).
			Str("purchase_id", purchase.ID.Hex()).
			Str("book_id", book.ID.Hex()).
			Msg("failed to decrement stock after purchase")
		return nil, err
	}

	u.notifySeller(ctx, sold, buyerObjectID)

	return purchase, nil
}

// notifySeller emails the seller about a sale. It never fails the purchase.
func (u *purchaseUsecase) notifySeller(ctx context.Context, book *model.Book, buyerID bson.ObjectID) {
	logger := u.logger.With().Str("book_id", book.ID.Hex()).Str("seller_id", book.SellerID.Hex()).Logger()

	seller, err := u.userRepo.GetUser(ctx, book.SellerID.Hex())
	if err != nil {
		logger.Warn().Err(err).Msg("failed to load seller for sale notification")
		return
	}

	buyerName := "Someone"
	if buyer, err := u.userRepo.GetUser(ctx, buyerID.Hex()); err == nil {
		buyerName = buyer.Name
	}

	if err := u.mailer.Send(ctx, bookSoldEmail(seller, book, buyerName)); err != nil {
		logger.Warn().Err(err).Msg("failed to send sale notification")
		return
	}

	logger.Info().Msg("seller notified of sale")
}

func (u *purchaseUsecase) History(ctx context.Context, buyerID string) ([]*PurchaseRecord, error) {
	purchases, err := u.purchaseRepo.ListPurchasesByBuyer(ctx, buyerID)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidID) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	bookIDs := make([]bson.ObjectID, 0, len(purchases))
	for _, purchase := range purchases {
		bookIDs = append(bookIDs, purchase.BookID)
	}

	books, err := u.bookRepo.ListBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, err
	}

	booksByID := make(map[bson.ObjectID]*model.Book, len(books))
	sellerIDs := make([]bson.ObjectID, 0, len(books))
	for _, book := range books {
		booksByID[book.ID] = book
		sellerIDs = append(sellerIDs, book.SellerID)
	}

	sellers, err := sellerSummaries(ctx, u.userRepo, sellerIDs)
	if err != nil {
		return nil, err
	}

	records := make([]*PurchaseRecord, 0, len(purchases))
	for _, purchase := range purchases {
		record := &PurchaseRecord{Purchase: purchase}
		if book, ok := booksByID[purchase.BookID]; ok {
			record.Book = &PurchasedBook{
				ID:        book.ID,
				Title:     book.Title,
				Author:    book.Author,
				Price:     book.Price,
				Image:     book.Image,
				Condition: book.Condition,
				Seller:    sellers[book.SellerID],
			}
		}
		records = append(records, record)
	}

	return records, nil
}
