package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func SetupIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessionIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().
				SetName("session_id_unique").
				SetUnique(true),
		},
		// Quota check and active-session listing
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "status", Value: 1},
			},
			Options: options.Index().
				SetName("user_status"),
		},
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "started_at", Value: -1},
			},
			Options: options.Index().
				SetName("user_sessions_date"),
		},
	}

	siteIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "site_id", Value: 1}},
			Options: options.Index().
				SetName("site_id_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "code", Value: 1}},
			Options: options.Index().
				SetName("site_code_unique").
				SetUnique(true),
		},
	}

	auditIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().
				SetName("audit_date"),
		},
		{
			Keys: bson.D{
				{Key: "resource_type", Value: 1},
				{Key: "resource_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().
				SetName("audit_resource"),
		},
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().
				SetName("user_id_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "authentik_id", Value: 1}},
			Options: options.Index().
				SetName("authentik_id_unique").
				SetUnique(true),
		},
	}

	credentialIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "credential_id", Value: 1}},
			Options: options.Index().
				SetName("credential_id_unique").
				SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "banking_site_id", Value: 1},
				{Key: "is_active", Value: 1},
			},
			Options: options.Index().
				SetName("site_credentials"),
		},
	}

	for collection, indexes := range map[string][]mongo.IndexModel{
		sessionsCollection:    sessionIndexes,
		sitesCollection:       siteIndexes,
		auditCollection:       auditIndexes,
		usersCollection:       userIndexes,
		credentialsCollection: credentialIndexes,
	} {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", collection, err)
		}
	}

	log.Println("Successfully created all indexes")
	return nil
}
