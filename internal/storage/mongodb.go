// mongodb.go - MongoDB-backed expense store

package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements Store on a MongoDB collection. It exists for
// deployments where several trackers share one database; the JSON file
// backend remains the default.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and returns a store over the given
// database/collection
func NewMongoStore(uri, dbName, collName string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	log.Println("✅ Connected to MongoDB successfully!")
	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(collName),
	}, nil
}

// Close disconnects the underlying client
func (s *MongoStore) Close() {
	if s.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.client.Disconnect(ctx)
		log.Println("MongoDB connection closed")
	}
}

// Load returns all records sorted by date descending
func (s *MongoStore) Load() ([]ExpenseRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer cursor.Close(ctx)

	records := []ExpenseRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	for i := range records {
		records[i].applyDefaults()
	}
	return records, nil
}

// Add persists a new record, minting ID and timestamp
func (s *MongoStore) Add(rec ExpenseRecord) (ExpenseRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rec.ID = uuid.New().String()
	rec.Timestamp = time.Now()
	rec.applyDefaults()

	if _, err := s.collection.InsertOne(ctx, rec); err != nil {
		return ExpenseRecord{}, fmt.Errorf("failed to insert expense: %w", err)
	}
	return rec, nil
}

// Update replaces the record with the given ID
func (s *MongoStore) Update(id string, rec ExpenseRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var existing ExpenseRecord
	if err := s.collection.FindOne(ctx, bson.M{"id": id}).Decode(&existing); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return fmt.Errorf("failed to query expense: %w", err)
	}

	rec.ID = id
	rec.Timestamp = existing.Timestamp
	rec.applyDefaults()

	if _, err := s.collection.ReplaceOne(ctx, bson.M{"id": id}, rec); err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// Delete removes the record with the given ID
func (s *MongoStore) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := s.collection.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes all records
func (s *MongoStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear expenses: %w", err)
	}
	return nil
}
