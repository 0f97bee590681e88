package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"dsakyc/internal/kyc/models"
	id "dsakyc/pkg/domain"
)

const applicationsCollection = "kyc_applications"

// MongoStore keeps one document per application. The application body lives
// under "document" so the version guard stays a top-level field.
type MongoStore struct {
	coll *mongo.Collection
}

type mongoRecord struct {
	ID         string    `bson:"_id"`
	EntityType string    `bson:"entity_type"`
	Version    int64     `bson:"version"`
	Document   bson.M    `bson:"document"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type mongoRawRecord struct {
	Version  int64    `bson:"version"`
	Document bson.Raw `bson:"document"`
}

// NewMongoStore binds to the applications collection and ensures its indexes.
func NewMongoStore(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{coll: db.Collection(applicationsCollection)}
	if err := s.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "entity_type", Value: 1}}},
		{Keys: bson.D{{Key: "updated_at", Value: -1}}},
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("create application indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Create(ctx context.Context, app *models.Application) error {
	app.Version = 1
	rec, err := toMongoRecord(app)
	if err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

func (s *MongoStore) Find(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	opts := options.FindOne().SetProjection(bson.M{"version": 1, "document": 1})
	var raw mongoRawRecord
	if err := s.coll.FindOne(ctx, bson.M{"_id": appID.String()}, opts).Decode(&raw); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	app, err := fromMongoDocument(raw.Document)
	if err != nil {
		return nil, err
	}
	app.Version = raw.Version
	return app, nil
}

func (s *MongoStore) Save(ctx context.Context, app *models.Application) error {
	expected := app.Version
	app.Version = expected + 1
	app.UpdatedAt = time.Now()

	rec, err := toMongoRecord(app)
	if err != nil {
		app.Version = expected
		return err
	}
	filter := bson.M{"_id": rec.ID, "version": expected}
	result, err := s.coll.ReplaceOne(ctx, filter, rec)
	if err != nil {
		app.Version = expected
		return fmt.Errorf("replace application: %w", err)
	}
	if result.MatchedCount == 0 {
		app.Version = expected
		count, err := s.coll.CountDocuments(ctx, bson.M{"_id": rec.ID})
		if err != nil {
			return fmt.Errorf("replace application: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// toMongoRecord converts the application through its JSON form so Mongo and
// Postgres hold the same document shape.
func toMongoRecord(app *models.Application) (*mongoRecord, error) {
	doc, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("marshal application: %w", err)
	}
	var body bson.M
	if err := bson.UnmarshalExtJSON(doc, false, &body); err != nil {
		return nil, fmt.Errorf("convert application to bson: %w", err)
	}
	return &mongoRecord{
		ID:         app.ID.String(),
		EntityType: string(app.EntityType),
		Version:    app.Version,
		Document:   body,
		UpdatedAt:  app.UpdatedAt,
	}, nil
}

func fromMongoDocument(raw bson.Raw) (*models.Application, error) {
	doc, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, fmt.Errorf("convert application from bson: %w", err)
	}
	var app models.Application
	if err := json.Unmarshal(doc, &app); err != nil {
		return nil, fmt.Errorf("decode application: %w", err)
	}
	return &app, nil
}
