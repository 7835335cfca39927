package mongo

import (
	"context"
	"time"

	"assessment-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type QuestionStore struct {
	Col *mongo.Collection
}

func NewQuestionStore(db *mongo.Database) *QuestionStore {
	return &QuestionStore{Col: db.Collection(QuestionsCollection)}
}

func (r *QuestionStore) ListActive(ctx context.Context) ([]domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, bson.M{"isActive": true}, opts)
}

func (r *QuestionStore) ListByIDs(ctx context.Context, ids []string) ([]domain.Question, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Question{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

func (r *QuestionStore) ListAll(ctx context.Context) ([]domain.Question, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *QuestionStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Question, error) {
	cur, err := r.Col.Find(ctx, filter, opts)
	if err != nil {
		return nil, domain.Unavailable("mongo find questions", err)
	}
	return decodeAll(ctx, cur, questionDoc.toDomain)
}

func (r *QuestionStore) Get(ctx context.Context, id string) (domain.Question, error) {
	oid, err := objectID(id, domain.ErrQuestionNotFound)
	if err != nil {
		return domain.Question{}, err
	}
	var doc questionDoc
	if err := r.Col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return domain.Question{}, mapError("mongo get question", err, domain.ErrQuestionNotFound, nil)
	}
	return doc.toDomain(), nil
}

func (r *QuestionStore) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	doc := toQuestionDoc(q)
	res, err := r.Col.InsertOne(ctx, doc)
	if err != nil {
		return domain.Question{}, mapError("mongo insert question", err, domain.ErrQuestionNotFound, nil)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		q.ID = oid.Hex()
	}
	return q, nil
}

func (r *QuestionStore) Update(ctx context.Context, q domain.Question) (domain.Question, error) {
	oid, err := objectID(q.ID, domain.ErrQuestionNotFound)
	if err != nil {
		return domain.Question{}, err
	}
	doc := toQuestionDoc(q)
	res, err := r.Col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"question":      doc.Question,
		"options":       doc.Options,
		"correctAnswer": doc.CorrectAnswer,
		"category":      doc.Category,
		"difficulty":    doc.Difficulty,
		"isActive":      doc.IsActive,
		"updatedAt":     doc.UpdatedAt,
	}})
	if err != nil {
		return domain.Question{}, mapError("mongo update question", err, domain.ErrQuestionNotFound, nil)
	}
	if res.MatchedCount == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, nil
}

func (r *QuestionStore) SetActive(ctx context.Context, id string, active bool, at time.Time) (domain.Question, error) {
	oid, err := objectID(id, domain.ErrQuestionNotFound)
	if err != nil {
		return domain.Question{}, err
	}
	var doc questionDoc
	err = r.Col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": bson.M{"isActive": active, "updatedAt": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return domain.Question{}, mapError("mongo set question active", err, domain.ErrQuestionNotFound, nil)
	}
	return doc.toDomain(), nil
}

func (r *QuestionStore) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id, domain.ErrQuestionNotFound)
	if err != nil {
		return err
	}
	res, err := r.Col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return domain.Unavailable("mongo delete question", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

func (r *QuestionStore) CountActive(ctx context.Context) (int, error) {
	n, err := r.Col.CountDocuments(ctx, bson.M{"isActive": true})
	if err != nil {
		return 0, domain.Unavailable("mongo count questions", err)
	}
	return int(n), nil
}
