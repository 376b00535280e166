package repository

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"webasset/model"
	"webasset/services"
	"webasset/utils"
)

const sessionsCollection = "banking_sessions"

// SessionRepo persists BankingSession records. Status transitions are
// written as single atomic updates filtered on the expected current status,
// so readers never observe a partially-written transition and terminal
// states cannot be re-entered.
type SessionRepo struct {
	MongoCollection *mongo.Collection
	Cache           *services.SessionCountCache
}

func GetSessionRepo(client *mongo.Client, dbName string, cache *services.SessionCountCache) *SessionRepo {
	return &SessionRepo{
		MongoCollection: client.Database(dbName).Collection(sessionsCollection),
		Cache:           cache,
	}
}

func (r *SessionRepo) CreateSession(session *model.BankingSession) error {
	timer := utils.TrackDBOperation("insert", sessionsCollection)
	defer timer.ObserveDuration()

	if session == nil {
		utils.TrackError("database", "nil_session")
		return fmt.Errorf("session cannot be nil")
	}
	if session.SessionID == "" || session.UserID == "" || session.BankingSiteID == "" {
		utils.TrackError("database", "invalid_session_data")
		return fmt.Errorf("invalid session data: missing required fields")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := r.MongoCollection.InsertOne(ctx, session); err != nil {
		utils.TrackError("database", "session_creation_failed")
		return fmt.Errorf("failed to create banking session: %w", err)
	}

	r.invalidateCount(session.UserID)
	return nil
}

func (r *SessionRepo) GetSession(sessionID string) (*model.BankingSession, error) {
	timer := utils.TrackDBOperation("find", sessionsCollection)
	defer timer.ObserveDuration()

	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var session model.BankingSession
	err := r.MongoCollection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "session_fetch_failed")
		return nil, fmt.Errorf("failed to fetch banking session: %w", err)
	}

	return &session, nil
}

// GetOwnedActiveSession returns the session only when it exists, belongs to
// the user and is still active. Terminal sessions are invisible here, which
// makes double termination report not-found.
func (r *SessionRepo) GetOwnedActiveSession(sessionID, userID string) (*model.BankingSession, error) {
	timer := utils.TrackDBOperation("find", sessionsCollection)
	defer timer.ObserveDuration()

	if sessionID == "" || userID == "" {
		return nil, fmt.Errorf("sessionID and userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var session model.BankingSession
	err := r.MongoCollection.FindOne(ctx, bson.M{
		"session_id": sessionID,
		"user_id":    userID,
		"status":     model.SessionStatusActive,
	}).Decode(&session)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		utils.TrackError("database", "session_fetch_failed")
		return nil, fmt.Errorf("failed to fetch banking session: %w", err)
	}

	return &session, nil
}

func (r *SessionRepo) GetUserActiveSessions(userID string) ([]*model.BankingSession, error) {
	timer := utils.TrackDBOperation("find", sessionsCollection)
	defer timer.ObserveDuration()

	if userID == "" {
		return nil, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"started_at": -1})
	cursor, err := r.MongoCollection.Find(ctx, bson.M{
		"user_id": userID,
		"status":  model.SessionStatusActive,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []*model.BankingSession
	if err = cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepo) CountActiveSessions(userID string) (int, error) {
	if userID == "" {
		return 0, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if r.Cache != nil {
		if count, ok := r.Cache.GetActiveCount(ctx, userID); ok {
			return count, nil
		}
	}

	timer := utils.TrackDBOperation("count", sessionsCollection)
	defer timer.ObserveDuration()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status":  model.SessionStatusActive,
	})
	if err != nil {
		utils.TrackError("database", "session_count_failed")
		return 0, fmt.Errorf("failed to count active sessions: %w", err)
	}

	if r.Cache != nil {
		if err := r.Cache.SetActiveCount(ctx, userID, int(count)); err != nil {
			log.Printf("Warning: failed to cache session count: %v", err)
		}
	}

	return int(count), nil
}

// CountOpenSessions counts sessions that are pending or active. The quota
// check uses this instead of the active count so a launch that has reserved
// a workspace but not finished logging in still occupies a slot.
func (r *SessionRepo) CountOpenSessions(userID string) (int, error) {
	timer := utils.TrackDBOperation("count", sessionsCollection)
	defer timer.ObserveDuration()

	if userID == "" {
		return 0, fmt.Errorf("userID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := r.MongoCollection.CountDocuments(ctx, bson.M{
		"user_id": userID,
		"status": bson.M{"$in": bson.A{
			model.SessionStatusPending,
			model.SessionStatusActive,
		}},
	})
	if err != nil {
		utils.TrackError("database", "session_count_failed")
		return 0, fmt.Errorf("failed to count open sessions: %w", err)
	}

	return int(count), nil
}

// TransitionStatus moves a session from one status to another in a single
// atomic update, applying any extra fields in the same write. It fails when
// the session is not currently in the expected status.
func (r *SessionRepo) TransitionStatus(sessionID, userID, from, to string, extra bson.M) error {
	timer := utils.TrackDBOperation("update", sessionsCollection)
	defer timer.ObserveDuration()

	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	set := bson.M{"status": to}
	for k, v := range extra {
		set[k] = v
	}

	result, err := r.MongoCollection.UpdateOne(
		ctx,
		bson.M{"session_id": sessionID, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		utils.TrackError("database", "session_transition_failed")
		return fmt.Errorf("failed to transition session %s: %w", sessionID, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("session %s is not in status %q", sessionID, from)
	}

	r.invalidateCount(userID)
	return nil
}

func (r *SessionRepo) invalidateCount(userID string) {
	if r.Cache == nil || userID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Cache.Invalidate(ctx, userID); err != nil {
		log.Printf("Warning: failed to invalidate session count cache: %v", err)
	}
}
