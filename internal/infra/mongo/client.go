// Package mongo stores the assessment collections in MongoDB.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"assessment-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection       = "users"
	QuestionsCollection   = "questions"
	SubmissionsCollection = "quiz_submissions"
	AdminsCollection      = "admins"
)

// Connect dials uri and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, domain.Unavailable("mongo connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, domain.Unavailable("mongo ping", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique and query indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		},
		AdminsCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("email_unique")},
		},
		SubmissionsCollection: {
			{Keys: bson.D{{Key: "certificateId", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true).SetName("certificate_id_unique")},
			{Keys: bson.D{{Key: "completedAt", Value: -1}}, Options: options.Index().SetName("completed_at")},
		},
		QuestionsCollection: {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("active_created")},
		},
	}
	for name, models := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return domain.Unavailable("mongo create indexes "+name, err)
		}
	}
	return nil
}

func mapError(op string, err error, notFound error, duplicate error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	if mongo.IsDuplicateKeyError(err) {
		if duplicate != nil {
			return duplicate
		}
		return fmt.Errorf("%s: %w", op, domain.ErrConflict)
	}
	return domain.Unavailable(op, err)
}

// objectID parses a hex identifier. Malformed IDs cannot match any document.
func objectID(id string, notFound error) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return oid, nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			out = append(out, oid)
		}
	}
	return out
}

func decodeAll[D any, T any](ctx context.Context, cur *mongo.Cursor, convert func(D) T) ([]T, error) {
	defer cur.Close(ctx)
	out := make([]T, 0)
	for cur.Next(ctx) {
		var doc D
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, convert(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, domain.Unavailable("mongo cursor", err)
	}
	return out, nil
}
