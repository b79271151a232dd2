package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kevinnadar22/announce/internal/domain"
)

var _ domain.Archive = (*MongoRepository)(nil)

// MongoRepository keeps the last successfully fetched copy of each
// announcement per language. Documents are keyed by domain.ArchiveKey.
type MongoRepository struct {
	db         *mongo.Database
	collection *mongo.Collection
	now        func() time.Time
}

func NewMongoRepository(client *mongo.Client, dbName, collectionName string) (*MongoRepository, error) {
	db := client.Database(dbName)
	repo := &MongoRepository{
		db:         db,
		collection: db.Collection(collectionName),
		now:        time.Now,
	}

	if err := repo.createIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return repo, nil
}

func (r *MongoRepository) createIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "announcement_id", Value: 1},
				{Key: "language", Value: 1},
			},
			Options: options.Index().SetName("announcement_language_idx"),
		},
		{
			Keys: bson.D{
				{Key: "date_published", Value: -1},
			},
			Options: options.Index().SetName("date_published_idx"),
		},
	}

	opts := options.CreateIndexes().SetMaxTime(10 * time.Second)
	_, err := r.collection.Indexes().CreateMany(ctx, models, opts)
	return err
}

// BulkUpsert writes every announcement under its (id, language) key.
func (r *MongoRepository) BulkUpsert(ctx context.Context, announcements []domain.Announcement) error {
	if len(announcements) == 0 {
		return nil
	}

	now := r.now().UTC()
	var models []mongo.WriteModel
	for _, a := range announcements {
		if a.ContentHash == "" {
			a.ContentHash = a.ComputeHash()
		}
		a.ArchivedAt = now
		filter := bson.M{"_id": domain.ArchiveKey(a.ID, a.Language)}
		update := bson.M{"$set": a}
		model := mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(update).SetUpsert(true)
		models = append(models, model)
	}

	opts := options.BulkWrite().SetOrdered(false)
	_, err := r.collection.BulkWrite(ctx, models, opts)
	if err != nil {
		return fmt.Errorf("failed to bulk upsert announcements: %w", err)
	}
	return nil
}

// Get returns the archived copy in language, falling back to the copy
// stored without a language.
func (r *MongoRepository) Get(ctx context.Context, id int, language string) (*domain.Announcement, error) {
	keys := []string{domain.ArchiveKey(id, language)}
	if language != "" {
		keys = append(keys, domain.ArchiveKey(id, ""))
	}

	for _, key := range keys {
		var a domain.Announcement
		err := r.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&a)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read archived announcement %s: %w", key, err)
		}
		return &a, nil
	}
	return nil, domain.ErrNotFound
}

// GetContentHashes maps archive keys to their stored content hash. Missing
// keys are absent from the result.
func (r *MongoRepository) GetContentHashes(ctx context.Context, keys []string) (map[string]string, error) {
	filter := bson.M{"_id": bson.M{"$in": keys}}
	opts := options.Find()
	// Only fetch _id and content_hash
	opts.SetProjection(bson.M{"_id": 1, "content_hash": 1})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			slog.Warn("Failed to close cursor", "error", err)
		}
	}()

	results := make(map[string]string)
	for cursor.Next(ctx) {
		var doc struct {
			ID          string `bson:"_id"`
			ContentHash string `bson:"content_hash"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue // Skip malformed
		}
		results[doc.ID] = doc.ContentHash
	}
	return results, cursor.Err()
}

// Ping is used by the readiness probe.
func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}
