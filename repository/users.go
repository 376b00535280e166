package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"webasset/model"
	"webasset/utils"
)

const usersCollection = "users"

// UserRepo stores user records synced from the identity provider.
type UserRepo struct {
	MongoCollection *mongo.Collection
}

func GetUserRepo(client *mongo.Client, dbName string) *UserRepo {
	return &UserRepo{
		MongoCollection: client.Database(dbName).Collection(usersCollection),
	}
}

func (r *UserRepo) FindByID(userID string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", usersCollection)
	defer timer.ObserveDuration()

	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var user model.User
	err := r.MongoCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&user)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "user_fetch_failed")
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	return &user, nil
}

// SyncFromClaims upserts the user asserted by an identity provider token and
// returns the stored record.
func (r *UserRepo) SyncFromClaims(authentikID, username, email, fullName string) (*model.User, error) {
	timer := utils.TrackDBOperation("upsert", usersCollection)
	defer timer.ObserveDuration()

	if authentikID == "" || email == "" {
		return nil, fmt.Errorf("authentikID and email cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"username":   username,
			"email":      email,
			"full_name":  fullName,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"user_id":    uuid.New().String(),
			"is_active":  true,
			"created_at": now,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var user model.User
	err := r.MongoCollection.FindOneAndUpdate(ctx, bson.M{"authentik_id": authentikID}, update, opts).Decode(&user)
	if err != nil {
		utils.TrackError("database", "user_sync_failed")
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}

	return &user, nil
}
