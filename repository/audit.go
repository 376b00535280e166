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

const auditCollection = "audit_logs"

// AuditRepo appends immutable audit entries. There is no update or delete
// path; entries are retained indefinitely.
type AuditRepo struct {
	MongoCollection *mongo.Collection
}

func GetAuditRepo(client *mongo.Client, dbName string) *AuditRepo {
	return &AuditRepo{
		MongoCollection: client.Database(dbName).Collection(auditCollection),
	}
}

// Append writes one entry, filling in the id and timestamp when unset.
func (r *AuditRepo) Append(entry *model.AuditLog) error {
	timer := utils.TrackDBOperation("insert", auditCollection)
	defer timer.ObserveDuration()

	if entry == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}
	if entry.Action == "" || entry.Outcome == "" {
		utils.TrackError("database", "invalid_audit_entry")
		return fmt.Errorf("audit entry requires action and outcome")
	}

	if entry.EntryID == "" {
		entry.EntryID = uuid.New().String()
	}
	if entry.Actor == "" {
		entry.Actor = model.AuditActorSystem
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.MongoCollection.InsertOne(ctx, entry); err != nil {
		utils.TrackError("database", "audit_append_failed")
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// ListForResource returns the entries recorded against one resource, newest
// first. Read access belongs to the reporting collaborator.
func (r *AuditRepo) ListForResource(resourceType, resourceID string, limit int64) ([]*model.AuditLog, error) {
	timer := utils.TrackDBOperation("find", auditCollection)
	defer timer.ObserveDuration()

	if resourceType == "" || resourceID == "" {
		return nil, fmt.Errorf("resourceType and resourceID cannot be empty")
	}
	if limit <= 0 {
		limit = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cursor, err := r.MongoCollection.Find(ctx, bson.M{
		"resource_type": resourceType,
		"resource_id":   resourceID,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit entries: %w", err)
	}
	defer cursor.Close(ctx)

	var entries []*model.AuditLog
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode audit entries: %w", err)
	}

	return entries, nil
}
