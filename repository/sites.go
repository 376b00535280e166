package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"webasset/model"
	"webasset/utils"
)

const sitesCollection = "banking_sites"

// SiteRepo reads BankingSite definitions. Writes belong to the admin
// collaborator; orchestration only ever reads.
type SiteRepo struct {
	MongoCollection *mongo.Collection
}

func GetSiteRepo(client *mongo.Client, dbName string) *SiteRepo {
	return &SiteRepo{
		MongoCollection: client.Database(dbName).Collection(sitesCollection),
	}
}

func (r *SiteRepo) FindByID(siteID string) (*model.BankingSite, error) {
	timer := utils.TrackDBOperation("find", sitesCollection)
	defer timer.ObserveDuration()

	if siteID == "" {
		return nil, fmt.Errorf("siteID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var site model.BankingSite
	err := r.MongoCollection.FindOne(ctx, bson.M{"site_id": siteID}).Decode(&site)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "site_fetch_failed")
		return nil, fmt.Errorf("failed to fetch banking site: %w", err)
	}

	return &site, nil
}

func (r *SiteRepo) FindByCode(code string) (*model.BankingSite, error) {
	timer := utils.TrackDBOperation("find", sitesCollection)
	defer timer.ObserveDuration()

	if code == "" {
		return nil, fmt.Errorf("code cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var site model.BankingSite
	err := r.MongoCollection.FindOne(ctx, bson.M{"code": code}).Decode(&site)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "site_fetch_failed")
		return nil, fmt.Errorf("failed to fetch banking site: %w", err)
	}

	return &site, nil
}

func (r *SiteRepo) ListActive() ([]*model.BankingSite, error) {
	timer := utils.TrackDBOperation("find", sitesCollection)
	defer timer.ObserveDuration()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"name": 1})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{"is_active": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch banking sites: %w", err)
	}
	defer cursor.Close(ctx)

	var sites []*model.BankingSite
	if err = cursor.All(ctx, &sites); err != nil {
		return nil, fmt.Errorf("failed to decode banking sites: %w", err)
	}

	return sites, nil
}
