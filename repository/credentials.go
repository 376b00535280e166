package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"webasset/model"
	"webasset/utils"
)

const credentialsCollection = "banking_credentials"

// CredentialRepo holds credential metadata only; the secret values live in
// the external secret store and are resolved by reference.
type CredentialRepo struct {
	MongoCollection *mongo.Collection
}

func GetCredentialRepo(client *mongo.Client, dbName string) *CredentialRepo {
	return &CredentialRepo{
		MongoCollection: client.Database(dbName).Collection(credentialsCollection),
	}
}

func (r *CredentialRepo) FindByID(credentialID string) (*model.BankingCredential, error) {
	timer := utils.TrackDBOperation("find", credentialsCollection)
	defer timer.ObserveDuration()

	if credentialID == "" {
		return nil, fmt.Errorf("credentialID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var cred model.BankingCredential
	err := r.MongoCollection.FindOne(ctx, bson.M{"credential_id": credentialID}).Decode(&cred)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "credential_fetch_failed")
		return nil, fmt.Errorf("failed to fetch credential metadata: %w", err)
	}

	return &cred, nil
}

func (r *CredentialRepo) ListBySite(siteID string) ([]*model.BankingCredential, error) {
	timer := utils.TrackDBOperation("find", credentialsCollection)
	defer timer.ObserveDuration()

	if siteID == "" {
		return nil, fmt.Errorf("siteID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := r.MongoCollection.Find(ctx, bson.M{
		"banking_site_id": siteID,
		"is_active":       true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch credentials: %w", err)
	}
	defer cursor.Close(ctx)

	var creds []*model.BankingCredential
	if err = cursor.All(ctx, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}

	return creds, nil
}

// TouchLastUsed stamps the credential after a launch consumed it. Best
// effort; metadata is advisory.
func (r *CredentialRepo) TouchLastUsed(credentialID string) error {
	timer := utils.TrackDBOperation("update", credentialsCollection)
	defer timer.ObserveDuration()

	if credentialID == "" {
		return fmt.Errorf("credentialID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := r.MongoCollection.UpdateOne(
		ctx,
		bson.M{"credential_id": credentialID},
		bson.M{"$set": bson.M{"last_used": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update credential last_used: %w", err)
	}

	return nil
}
