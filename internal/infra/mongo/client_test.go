package mongo

import (
	"errors"
	"testing"

	"assessment-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestMapError(t *testing.T) {
	if err := mapError("op", nil, domain.ErrUserNotFound, nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
	if err := mapError("op", mongo.ErrNoDocuments, domain.ErrUserNotFound, nil); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	if err := mapError("op", dup, domain.ErrUserNotFound, domain.ErrEmailTaken); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if err := mapError("op", dup, domain.ErrUserNotFound, nil); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected generic conflict, got %v", err)
	}
	if err := mapError("op", errors.New("socket closed"), domain.ErrUserNotFound, nil); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestObjectIDs(t *testing.T) {
	valid := primitive.NewObjectID()
	got := objectIDs([]string{valid.Hex(), "not-an-id", ""})
	if len(got) != 1 || got[0] != valid {
		t.Fatalf("expected malformed ids dropped, got %v", got)
	}
	if _, err := objectID("nope", domain.ErrQuestionNotFound); !errors.Is(err, domain.ErrQuestionNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
}

func TestSubmissionDocOmitsEmptyCertificateID(t *testing.T) {
	raw, err := bson.Marshal(toSubmissionDoc(domain.Submission{UserID: "u1", Percentage: 40}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := bson.Raw(raw).LookupErr("certificateId"); err == nil {
		t.Fatalf("expected certificateId to be omitted for sparse index")
	}
}
