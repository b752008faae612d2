package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/vasapolrittideah/bookstore-api/services/bookstore-service/internal/model"
)

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByResetToken(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)
}

// OTPParams is a one-time code together with its expiry. They are always written as a pair.
type OTPParams struct {
	Code      string
	ExpiresAt time.Time
}

// ResetTokenParams is a hashed reset token together with its expiry.
type ResetTokenParams struct {
	TokenHash string
	ExpiresAt time.Time
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated. The Clear flags unset a pair.
type UpdateUserParams struct {
	Name            *string
	PasswordHash    *string
	IsVerified      *bool
	OTP             *OTPParams
	ClearOTP        bool
	ResetToken      *ResetTokenParams
	ClearResetToken bool
}

// FilterUsersParams defines the parameters for filtering and paginating users.
type FilterUsersParams struct {
	IDs      []bson.ObjectID
	Email    *string
	Verified *bool
	Limit    uint64
	Offset   uint64
	SortBy   *string
	SortDesc bool
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "reset_password_token", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userMongoRepository) GetUserByResetToken(
	ctx context.Context,
	tokenHash string,
	now time.Time,
) (*model.User, error) {
	return r.findOne(ctx, bson.M{
		"reset_password_token":      tokenHash,
		"reset_password_expires_at": bson.M{"$gt": now},
	})
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	setMap, unsetMap, err := buildUserUpdate(params)
	if err != nil {
		return nil, err
	}

	setMap["updated_at"] = time.Now()

	update := bson.M{"$set": setMap}
	if len(unsetMap) > 0 {
		update["$unset"] = unsetMap
	}

	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

// buildUserUpdate converts params into $set and $unset documents.
func buildUserUpdate(params UpdateUserParams) (bson.M, bson.M, error) {
	if params.OTP != nil && params.ClearOTP {
		return nil, nil, errors.New("cannot set and clear otp in the same update")
	}
	if params.ResetToken != nil && params.ClearResetToken {
		return nil, nil, errors.New("cannot set and clear reset token in the same update")
	}

	setMap := bson.M{}
	unsetMap := bson.M{}

	if params.Name != nil {
		setMap["name"] = *params.Name
	}
	if params.PasswordHash != nil {
		setMap["password_hash"] = *params.PasswordHash
	}
	if params.IsVerified != nil {
		setMap["is_verified"] = *params.IsVerified
	}
	if params.OTP != nil {
		setMap["otp"] = params.OTP.Code
		setMap["otp_expires_at"] = params.OTP.ExpiresAt
	}
	if params.ClearOTP {
		unsetMap["otp"] = ""
		unsetMap["otp_expires_at"] = ""
	}
	if params.ResetToken != nil {
		setMap["reset_password_token"] = params.ResetToken.TokenHash
		setMap["reset_password_expires_at"] = params.ResetToken.ExpiresAt
	}
	if params.ClearResetToken {
		unsetMap["reset_password_token"] = ""
		unsetMap["reset_password_expires_at"] = ""
	}

	if len(setMap) == 0 && len(unsetMap) == 0 {
		return nil, nil, errors.New("no user fields to update")
	}

	return setMap, unsetMap, nil
}

func (r *userMongoRepository) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	findOptions := options.Find()

	if params.Limit > 0 {
		findOptions.SetLimit(int64(params.Limit))
	}

	if params.Offset > 0 {
		findOptions.SetSkip(int64(params.Offset))
	}

	sortBy := "created_at"
	if params.SortBy != nil {
		sortBy = *params.SortBy
	}

	sortOrder := -1
	if !params.SortDesc {
		sortOrder = 1
	}
	findOptions.SetSort(bson.D{{Key: sortBy, Value: sortOrder}})

	// Build filter query
	filter := bson.M{}
	if params.IDs != nil {
		filter["_id"] = bson.M{"$in": params.IDs}
	}
	if params.Email != nil {
		filter["email"] = *params.Email
	}
	if params.Verified != nil {
		filter["is_verified"] = *params.Verified
	}

	cursor, err := r.db.Collection(userCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
