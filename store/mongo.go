package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/enetx/fsmodel"
)

// MongoStore is a Store backed by a MongoDB collection, one document per
// model keyed by model name.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore creates a MongoStore. dbName defaults to "fsmodel" and
// collName to "models".
func NewMongoStore(client *mongo.Client, dbName, collName string) *MongoStore {
	if dbName == "" {
		dbName = "fsmodel"
	}
	if collName == "" {
		collName = "models"
	}

	return &MongoStore{
		coll: client.Database(dbName).Collection(collName),
		now:  time.Now,
	}
}

type mongoModelDoc struct {
	Name      string    `bson:"_id"`
	Revision  int       `bson:"revision"`
	UpdatedAt time.Time `bson:"updated_at"`
	Document  []byte    `bson:"document,omitempty"`
}

func (d mongoModelDoc) record() Record {
	return Record{
		Name:      d.Name,
		Revision:  d.Revision,
		UpdatedAt: d.UpdatedAt.UTC(),
		Document:  d.Document,
	}
}

func (s *MongoStore) Save(ctx context.Context, m *fsmodel.Model) (Record, error) {
	name, doc, err := encode(m)
	if err != nil {
		return Record{}, err
	}

	// BSON dates keep milliseconds.
	now := s.now().UTC().Truncate(time.Millisecond)

	update := bson.M{
		"$inc": bson.M{"revision": 1},
		"$set": bson.M{
			"updated_at": now,
			"document":   doc,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"document": 0})

	var stored mongoModelDoc
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": name}, update, opts).Decode(&stored); err != nil {
		return Record{}, err
	}

	rec := stored.record()
	rec.Document = doc

	return rec, nil
}

func (s *MongoStore) Load(ctx context.Context, name string, m *fsmodel.Model) error {
	return load(ctx, s, name, m)
}

func (s *MongoStore) Get(ctx context.Context, name string) (Record, error) {
	var doc mongoModelDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Record{}, ErrModelNotFound
		}
		return Record{}, err
	}

	return doc.record(), nil
}

func (s *MongoStore) List(ctx context.Context) ([]Record, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"document": 0})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var records []Record

	for cur.Next(ctx) {
		var doc mongoModelDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		records = append(records, doc.record())
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrModelNotFound
	}
	return nil
}
