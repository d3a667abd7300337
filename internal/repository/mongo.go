package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tourify/guide-api/internal/domain"
)

const mongoDocumentsCollection = "documents"

// MongoStore implements DocumentStore on one MongoDB collection keyed by path.
type MongoStore struct {
	client *mongo.Client
	docs   *mongo.Collection
}

// Ensure MongoStore implements DocumentStore.
var _ DocumentStore = (*MongoStore)(nil)

type mongoDocument struct {
	ID         string `bson:"_id"`
	Collection string `bson:"collection"`
	DocID      string `bson:"docId"`
	Data       bson.M `bson:"data"`
}

// NewMongoStore connects to MongoDB and ensures the collection index.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	docs := client.Database(database).Collection(mongoDocumentsCollection)
	_, err = docs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "collection", Value: 1}, {Key: "docId", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &MongoStore{client: client, docs: docs}, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// Get returns one document.
func (s *MongoStore) Get(ctx context.Context, path DocPath) (*Document, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}
	var doc mongoDocument
	err := s.docs.FindOne(ctx, bson.M{"_id": path.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	fields, err := fromBSON(doc.Data)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return &Document{Path: path, Fields: fields}, nil
}

// Create inserts a document that must not exist yet.
func (s *MongoStore) Create(ctx context.Context, path DocPath, fields map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	doc := mongoDocument{
		ID:         path.String(),
		Collection: path.Collection(),
		DocID:      path.ID(),
		Data:       bson.M(fields),
	}
	_, err := s.docs.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return nil
}

// Put creates or replaces a document.
func (s *MongoStore) Put(ctx context.Context, path DocPath, fields map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	doc := mongoDocument{
		ID:         path.String(),
		Collection: path.Collection(),
		DocID:      path.ID(),
		Data:       bson.M(fields),
	}
	_, err := s.docs.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("put %s: %w", path, err)
	}
	return nil
}

// Update sets top-level fields on an existing document.
func (s *MongoStore) Update(ctx context.Context, path DocPath, fields map[string]any) error {
	if err := path.Validate(); err != nil {
		return err
	}
	set := bson.M{}
	for k, v := range fields {
		set["data."+k] = v
	}
	result, err := s.docs.UpdateOne(ctx, bson.M{"_id": path.String()}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

var mongoOps = map[Op]string{
	OpEq:  "$eq",
	OpGt:  "$gt",
	OpGte: "$gte",
	OpLt:  "$lt",
	OpLte: "$lte",
}

// Query filters a collection on data fields.
func (s *MongoStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	and := bson.A{bson.M{"collection": collection}}
	for _, f := range filters {
		if err := f.validate(); err != nil {
			return nil, err
		}
		and = append(and, bson.M{"data." + f.Field: bson.M{mongoOps[f.Op]: f.Value}})
	}

	cursor, err := s.docs.Find(ctx, bson.M{"$and": and}, options.Find().SetSort(bson.D{{Key: "docId", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	parent := DocPath(strings.Split(collection, "/"))
	var docs []Document
	for cursor.Next(ctx) {
		var doc mongoDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		fields, err := fromBSON(doc.Data)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		path := append(append(DocPath{}, parent...), doc.DocID)
		docs = append(docs, Document{Path: path, Fields: fields})
	}
	return docs, cursor.Err()
}

// fromBSON normalizes stored data to the JSON value types SQLiteStore returns.
func fromBSON(data bson.M) (map[string]any, error) {
	raw, err := bson.MarshalExtJSON(data, false, false)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
