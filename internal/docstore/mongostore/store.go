// Package mongostore is the MongoDB document driver and the default document
// store. Each collection maps to a MongoDB collection of the same name, so a
// database written by earlier versions of the application is read as is.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pkordes/trip-manager/internal/domain"
	"github.com/pkordes/trip-manager/internal/repo"
	"github.com/pkordes/trip-manager/internal/schema"
)

// versionKey is the document version field older writers added; it is not
// part of any record schema.
const versionKey = "__v"

// Store implements repo.Store on a MongoDB database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New returns a Store on an already connected database. The caller owns the client.
func New(db *mongo.Database) *Store {
	return &Store{db: db}
}

// Open connects to uri, pings the primary, and returns a Store that owns the
// client. ctx bounds both steps.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongostore.Open: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongostore.Open: ping: %w", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

// Close disconnects the client when the Store owns it.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// List returns matching records ordered by q.Sort, then by _id.
func (s *Store) List(ctx context.Context, collection string, q repo.Query) ([]domain.Record, error) {
	sort := bson.D{}
	for _, f := range q.Sort {
		dir := 1
		if f.Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: f.Field, Value: dir})
	}
	sort = append(sort, bson.E{Key: domain.FieldID, Value: 1})

	cur, err := s.db.Collection(collection).Find(ctx, toFilter(q.Filter), options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("mongostore.Store.List: %w", err)
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore.Store.List: %w", err)
	}

	out := make([]domain.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toRecord(doc))
	}
	return out, nil
}

// GetByID returns the record or domain.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, collection, id string) (domain.Record, error) {
	var doc bson.M
	err := s.db.Collection(collection).FindOne(ctx, toFilter(repo.Filter{domain.FieldID: id})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongostore.Store.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore.Store.GetByID: %w", err)
	}
	return toRecord(doc), nil
}

// Create inserts rec under a new ObjectID.
func (s *Store) Create(ctx context.Context, collection string, rec domain.Record) (domain.Record, error) {
	oid := primitive.NewObjectID()
	doc := bson.M{}
	for k, v := range rec {
		doc[k] = v
	}
	doc[domain.FieldID] = oid

	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("mongostore.Store.Create: %w", err)
	}
	return toRecord(doc), nil
}

// Update applies patch with $set and returns the document after the update.
func (s *Store) Update(ctx context.Context, collection, id string, patch domain.Record) (domain.Record, error) {
	set := bson.M{}
	for k, v := range patch {
		if k != domain.FieldID {
			set[k] = v
		}
	}
	if len(set) == 0 {
		// $set rejects an empty document; an empty patch is a read.
		rec, err := s.GetByID(ctx, collection, id)
		if err != nil {
			return nil, fmt.Errorf("mongostore.Store.Update: %w", err)
		}
		return rec, nil
	}

	var doc bson.M
	err := s.db.Collection(collection).FindOneAndUpdate(ctx,
		toFilter(repo.Filter{domain.FieldID: id}),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("mongostore.Store.Update: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("mongostore.Store.Update: %w", err)
	}
	return toRecord(doc), nil
}

// Delete removes one record; a missing id is not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.db.Collection(collection).DeleteOne(ctx, toFilter(repo.Filter{domain.FieldID: id})); err != nil {
		return fmt.Errorf("mongostore.Store.Delete: %w", err)
	}
	return nil
}

// DeleteWhere removes every matching record.
func (s *Store) DeleteWhere(ctx context.Context, collection string, filter repo.Filter) (int64, error) {
	res, err := s.db.Collection(collection).DeleteMany(ctx, toFilter(filter))
	if err != nil {
		return 0, fmt.Errorf("mongostore.Store.DeleteWhere: %w", err)
	}
	return res.DeletedCount, nil
}

// toFilter turns loose equality into $in over every stored form the value may
// take. Hex strings also match the ObjectID they encode.
func toFilter(f repo.Filter) bson.M {
	out := bson.M{}
	for k, v := range f {
		if v == nil {
			out[k] = nil // matches null and missing fields
			continue
		}
		in := domain.Variants(v)
		if s, ok := v.(string); ok {
			if oid, err := primitive.ObjectIDFromHex(s); err == nil {
				in = append(in, oid)
			}
		}
		out[k] = bson.M{"$in": in}
	}
	return out
}

// toRecord converts a decoded document to JSON-native values.
func toRecord(doc bson.M) domain.Record {
	rec := make(domain.Record, len(doc))
	for k, v := range doc {
		if k == versionKey {
			continue
		}
		rec[k] = native(v)
	}
	return rec
}

func native(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC().Format(schema.TimeLayout)
	case time.Time:
		return x.UTC().Format(schema.TimeLayout)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case primitive.Decimal128:
		f, err := strconv.ParseFloat(x.String(), 64)
		if err != nil {
			return x.String()
		}
		return f
	case bson.M:
		return map[string]any(toRecord(x))
	case bson.D:
		m := make(map[string]any, len(x))
		for _, e := range x {
			m[e.Key] = native(e.Value)
		}
		return m
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = native(e)
		}
		return out
	}
	return v
}
