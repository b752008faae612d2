package repository

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
)

// PurchaseRepository defines the interface for purchase-related database operations.
type PurchaseRepository interface {
	CreatePurchase(ctx context.Context, purchase *model.Purchase) (*model.Purchase, error)
	DeletePurchase(ctx context.Context, id string) error
	ListPurchasesByBuyer(ctx context.Context, buyerID string) ([]*model.Purchase, error)
}

const purchaseCollection = "purchases"

type purchaseMongoRepository struct {
	db *mongo.Database
}

func NewPurchaseMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) PurchaseRepository {
	collection := db.Collection(purchaseCollection)

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyer", Value: 1}, {Key: "purchase_date", Value: -1}}},
		{Keys: bson.D{{Key: "book", Value: 1}}},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create purchase indexes")
	}

	return &purchaseMongoRepository{db: db}
}

func (r *purchaseMongoRepository) CreatePurchase(
	ctx context.Context,
	purchase *model.Purchase,
) (*model.Purchase, error) {
	result, err := r.db.Collection(purchaseCollection).InsertOne(ctx, purchase)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		purchase.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return purchase, nil
}

func (r *purchaseMongoRepository) DeletePurchase(ctx context.Context, id string) error {
	objectID, err := parseObjectID(id)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(purchaseCollection).DeleteOne(ctx, bson.M{"_id": objectID})
	return err
}

func (r *purchaseMongoRepository) ListPurchasesByBuyer(
	ctx context.Context,
	buyerID string,
) ([]*model.Purchase, error) {
	objectID, err := parseObjectID(buyerID)
	if err != nil {
		return nil, err
	}

	cursor, err := r.db.Collection(purchaseCollection).Find(
		ctx,
		bson.M{"buyer": objectID},
		options.Find().SetSort(bson.D{{Key: "purchase_date", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var purchases []*model.Purchase
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, err
	}

	return purchases, nil
}
