package mongo

import (
	"context"

	"assessment-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserStore struct {
	Col *mongo.Collection
}

func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{Col: db.Collection(UsersCollection)}
}

func (r *UserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *UserStore) FindByID(ctx context.Context, id string) (domain.User, error) {
	oid, err := objectID(id, domain.ErrUserNotFound)
	if err != nil {
		return domain.User{}, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserStore) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var doc userDoc
	if err := r.Col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return domain.User{}, mapError("mongo find user", err, domain.ErrUserNotFound, nil)
	}
	return doc.toDomain(), nil
}

func (r *UserStore) ListByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.User{}, nil
	}
	cur, err := r.Col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, domain.Unavailable("mongo find users", err)
	}
	return decodeAll(ctx, cur, userDoc.toDomain)
}

func (r *UserStore) Insert(ctx context.Context, u domain.User) (string, error) {
	u.Email = domain.NormalizeEmail(u.Email)
	res, err := r.Col.InsertOne(ctx, toUserDoc(u))
	if err != nil {
		return "", mapError("mongo insert user", err, domain.ErrUserNotFound, domain.ErrEmailTaken)
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}

func (r *UserStore) Count(ctx context.Context) (int, error) {
	n, err := r.Col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, domain.Unavailable("mongo count users", err)
	}
	return int(n), nil
}

type AdminStore struct {
	Col *mongo.Collection
}

func NewAdminStore(db *mongo.Database) *AdminStore {
	return &AdminStore{Col: db.Collection(AdminsCollection)}
}

func (r *AdminStore) FindByEmail(ctx context.Context, email string) (domain.Admin, error) {
	var doc adminDoc
	if err := r.Col.FindOne(ctx, bson.M{"email": domain.NormalizeEmail(email)}).Decode(&doc); err != nil {
		return domain.Admin{}, mapError("mongo find admin", err, domain.ErrAdminNotFound, nil)
	}
	return doc.toDomain(), nil
}

func (r *AdminStore) Insert(ctx context.Context, a domain.Admin) (string, error) {
	doc := adminDoc{
		Email:        domain.NormalizeEmail(a.Email),
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		CreatedAt:    a.CreatedAt,
	}
	res, err := r.Col.InsertOne(ctx, doc)
	if err != nil {
		return "", mapError("mongo insert admin", err, domain.ErrAdminNotFound, domain.ErrEmailTaken)
	}
	oid, _ := res.InsertedID.(primitive.ObjectID)
	return oid.Hex(), nil
}
