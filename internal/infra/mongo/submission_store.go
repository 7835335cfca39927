package mongo

import (
	"context"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type SubmissionStore struct {
	Col *mongo.Collection
}

func NewSubmissionStore(db *mongo.Database) *SubmissionStore {
	return &SubmissionStore{Col: db.Collection(SubmissionsCollection)}
}

var newestFirst = bson.D{{Key: "completedAt", Value: -1}, {Key: "_id", Value: -1}}

func (r *SubmissionStore) Insert(ctx context.Context, s domain.Submission) (string, error) {
	res, err := r.Col.InsertOne(ctx, toSubmissionDoc(s))
	if err != nil {
		return "", mapError("mongo insert submission", err, domain.ErrSubmissionNotFound, domain.ErrCertificateIDTaken)
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (r *SubmissionStore) FindByID(ctx context.Context, id string) (domain.Submission, error) {
	oid, err := objectID(id, domain.ErrSubmissionNotFound)
	if err != nil {
		return domain.Submission{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid}, domain.ErrSubmissionNotFound)
}

func (r *SubmissionStore) FindByCertificateID(ctx context.Context, certificateID string) (domain.Submission, error) {
	return r.findOne(ctx, bson.M{"certificateId": certificateID}, domain.ErrCertificateNotFound)
}

func (r *SubmissionStore) findOne(ctx context.Context, filter bson.M, notFound error) (domain.Submission, error) {
	var doc submissionDoc
	if err := r.Col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.Submission{}, mapError("mongo find submission", err, notFound, nil)
	}
	return doc.toDomain(), nil
}

func (r *SubmissionStore) ListRecent(ctx context.Context, limit int) ([]domain.Submission, error) {
	return r.find(ctx, bson.M{}, options.Find().SetSort(newestFirst).SetLimit(int64(limit)))
}

func (r *SubmissionStore) ListInRange(ctx context.Context, start, end time.Time) ([]domain.Submission, error) {
	filter := bson.M{"completedAt": bson.M{"$gte": start, "$lte": end}}
	return r.find(ctx, filter, options.Find().SetSort(newestFirst))
}

func (r *SubmissionStore) Count(ctx context.Context) (int, error) {
	n, err := r.Col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, domain.Unavailable("mongo count submissions", err)
	}
	return int(n), nil
}

func (r *SubmissionStore) CountEligible(ctx context.Context) (int, error) {
	n, err := r.Col.CountDocuments(ctx, bson.M{"percentage": bson.M{"$gte": app.CertificateThreshold}})
	if err != nil {
		return 0, domain.Unavailable("mongo count eligible submissions", err)
	}
	return int(n), nil
}

func (r *SubmissionStore) ListMissingCertificate(ctx context.Context) ([]domain.Submission, error) {
	filter := bson.M{
		"percentage": bson.M{"$gte": app.CertificateThreshold},
		"$or": bson.A{
			bson.M{"certificateId": bson.M{"$exists": false}},
			bson.M{"certificateId": ""},
		},
	}
	sort := bson.D{{Key: "completedAt", Value: 1}, {Key: "_id", Value: 1}}
	return r.find(ctx, filter, options.Find().SetSort(sort))
}

func (r *SubmissionStore) SetCertificateID(ctx context.Context, id, certificateID string) error {
	oid, err := objectID(id, domain.ErrSubmissionNotFound)
	if err != nil {
		return err
	}
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"certificateId":        certificateID,
		"certificateGenerated": true,
	}})
	if err != nil {
		return mapError("mongo set certificate id", err, domain.ErrSubmissionNotFound, domain.ErrCertificateIDTaken)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSubmissionNotFound
	}
	return nil
}

func (r *SubmissionStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Submission, error) {
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, domain.Unavailable("mongo find submissions", err)
	}
	return decodeAll(ctx, cur, submissionDoc.toDomain)
}
