package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/inventory-api/backend/internal/models"
)

// MongoEventLog persists audit events in MongoDB.
type MongoEventLog struct {
	col *mongo.Collection
}

func NewMongoEventLog(db *mongo.Database) *MongoEventLog {
	return &MongoEventLog{col: db.Collection("audit_events")}
}

// EnsureIndexes creates the index used by Recent.
func (s *MongoEventLog) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo index: %w", err)
	}
	return nil
}

func (s *MongoEventLog) Record(ctx context.Context, ev models.AuditEvent) error {
	if _, err := s.col.InsertOne(ctx, ev); err != nil {
		return fmt.Errorf("mongo insert: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *MongoEventLog) Recent(ctx context.Context, limit int) ([]models.AuditEvent, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo find: %w", err)
	}
	defer cur.Close(ctx)

	events := []models.AuditEvent{}
	if err := cur.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("mongo decode: %w", err)
	}
	return events, nil
}
