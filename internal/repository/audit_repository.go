package repository

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/club-seat-reservation/internal/observability"
)

// AuditLog is one administrative action stored in the audit_logs
// collection.
type AuditLog struct {
	ID        string    `bson:"_id" json:"id"`
	Action    string    `bson:"action" json:"action"`
	Actor     string    `bson:"actor" json:"actor"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Data      bson.M    `bson:"data" json:"data"`
}

// AuditRepo appends admin actions (ticket status changes, assignments,
// inventory setup) to MongoDB.
type AuditRepo struct {
	coll   *mongo.Collection
	logger observability.Logger
	now    func() time.Time
}

func NewAuditRepo(db *mongo.Database, logger observability.Logger) *AuditRepo {
	return &AuditRepo{
		coll:   db.Collection("audit_logs"),
		logger: logger,
		now:    time.Now,
	}
}

// ConnectMongo opens a client for uri and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo ping")
	}
	return client, nil
}

// LogEvent inserts one audit record.
func (a *AuditRepo) LogEvent(ctx context.Context, action, actor string, data map[string]interface{}) error {
	entry := AuditLog{
		ID:        uuid.NewString(),
		Action:    action,
		Actor:     actor,
		Timestamp: a.now().UTC(),
		Data:      bson.M(data),
	}
	if _, err := a.coll.InsertOne(ctx, entry); err != nil {
		a.logger.WithError(err).WithField("action", action).Error("failed to insert audit log")
		return errors.Wrap(err, "insert audit log")
	}
	return nil
}

// Recent returns the latest audit records, newest first.
func (a *AuditRepo) Recent(ctx context.Context, limit int64) ([]AuditLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cur, err := a.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "find audit logs")
	}
	defer cur.Close(ctx)
	out := []AuditLog{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(err, "decode audit logs")
	}
	return out, nil
}
