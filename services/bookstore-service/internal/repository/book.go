package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
)

// BookRepository defines the interface for book-related database operations.
type BookRepository interface {
	CreateBook(ctx context.Context, book *model.Book) (*model.Book, error)
	GetBook(ctx context.Context, id string) (*model.Book, error)
	ListBooks(ctx context.Context, params FilterBooksParams) ([]*model.Book, error)
	ListBooksByIDs(ctx context.Context, ids []bson.ObjectID) ([]*model.Book, error)
	UpdateBook(ctx context.Context, id string, params UpdateBookParams) (*model.Book, error)
	DeleteBook(ctx context.Context, id string) error
	DecrementStock(ctx context.Context, id string) (*model.Book, error)
}

// FilterBooksParams defines the parameters for filtering books. Results are newest first.
type FilterBooksParams struct {
	IDs           []bson.ObjectID
	Keyword       *string
	Category      *model.BookCategory
	SellerID      *bson.ObjectID
	AvailableOnly bool
}

// UpdateBookParams defines the optional parameters for updating a book.
// Only the fields that are not nil will be updated.
type UpdateBookParams struct {
	Title       *string
	Author      *string
	Description *string
	Price       *float64
	Condition   *model.BookCondition
	Category    *model.BookCategory
	Stock       *int
	Status      *model.BookStatus
	Image       *string

	// MinStock, when set, applies the update only while stock is at least this value.
	MinStock *int
}

const bookCollection = "books"

type bookMongoRepository struct {
	db *mongo.Database
}

func NewBookMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) BookRepository {
	collection := db.Collection(bookCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seller", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create book indexes")
	}

	return &bookMongoRepository{db: db}
}

func (r *bookMongoRepository) CreateBook(ctx context.Context, book *model.Book) (*model.Book, error) {
	now := time.Now()
	book.CreatedAt = now
	book.UpdatedAt = now

	result, err := r.db.Collection(bookCollection).InsertOne(ctx, book)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		book.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return book, nil
}

func (r *bookMongoRepository) GetBook(ctx context.Context, id string) (*model.Book, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	result := r.db.Collection(bookCollection).FindOne(ctx, bson.M{"_id": objectID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var book model.Book
	if err := result.Decode(&book); err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *bookMongoRepository) ListBooks(ctx context.Context, params FilterBooksParams) ([]*model.Book, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})

	cursor, err := r.db.Collection(bookCollection).Find(ctx, bookFilter(params), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var books []*model.Book
	for cursor.Next(ctx) {
		var book model.Book
		if err := cursor.Decode(&book); err != nil {
			return nil, err
		}
		books = append(books, &book)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return books, nil
}

func (r *bookMongoRepository) ListBooksByIDs(ctx context.Context, ids []bson.ObjectID) ([]*model.Book, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	return r.ListBooks(ctx, FilterBooksParams{IDs: ids})
}

// bookFilter builds the query document for params. The keyword is matched as a
// literal, case-insensitive substring of title or author.
func bookFilter(params FilterBooksParams) bson.M {
	filter := bson.M{}

	if params.IDs != nil {
		filter["_id"] = bson.M{"$in": params.IDs}
	}
	if params.Keyword != nil && *params.Keyword != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(*params.Keyword), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"author": pattern},
		}
	}
	if params.Category != nil {
		filter["category"] = *params.Category
	}
	if params.SellerID != nil {
		filter["seller"] = *params.SellerID
	}
	if params.AvailableOnly {
		filter["status"] = model.StatusAvailable
		filter["stock"] = bson.M{"$gte": 1}
	}

	return filter
}

func (r *bookMongoRepository) UpdateBook(
	ctx context.Context,
	id string,
	params UpdateBookParams,
) (*model.Book, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	setMap := bson.M{}

	if params.Title != nil {
		setMap["title"] = *params.Title
	}
	if params.Author != nil {
		setMap["author"] = *params.Author
	}
	if params.Description != nil {
		setMap["description"] = *params.Description
	}
	if params.Price != nil {
		setMap["price"] = *params.Price
	}
	if params.Condition != nil {
		setMap["condition"] = *params.Condition
	}
	if params.Category != nil {
		setMap["category"] = *params.Category
	}
	if params.Stock != nil {
		setMap["stock"] = *params.Stock
	}
	if params.Status != nil {
		setMap["status"] = *params.Status
	}
	if params.Image != nil {
		setMap["image"] = *params.Image
	}

	setMap["updated_at"] = time.Now()

	filter := bson.M{"_id": objectID}
	if params.MinStock != nil {
		filter["stock"] = bson.M{"$gte": *params.MinStock}
	}

	result := r.db.Collection(bookCollection).FindOneAndUpdate(
		ctx,
		filter,
		bson.M{"$set": setMap},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var book model.Book
	if err := result.Decode(&book); err != nil {
		return nil, err
	}

	return &book, nil
}

func (r *bookMongoRepository) DeleteBook(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.db.Collection(bookCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}

	if result.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}

	return nil
}

// DecrementStock takes one unit of stock in a single conditional update and marks
// the book sold when the last unit goes. It returns mongo.ErrNoDocuments when the
// book is missing or already out of stock.
func (r *bookMongoRepository) DecrementStock(ctx context.Context, id string) (*model.Book, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	filter := bson.M{
		"_id":    objectID,
		"status": model.StatusAvailable,
		"stock":  bson.M{"$gte": 1},
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "stock", Value: bson.D{{Key: "$subtract", Value: bson.A{"$stock", 1}}}},
			{Key: "updated_at", Value: time.Now()},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "status", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$lte", Value: bson.A{"$stock", 0}}},
				string(model.StatusSold),
				string(model.StatusAvailable),
			}}}},
		}}},
	}

	result := r.db.Collection(bookCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var book model.Book
	if err := result.Decode(&book); err != nil {
		return nil, err
	}

	return &book, nil
}
