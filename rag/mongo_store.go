package rag

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.uber.org/zap"

	"github.com/oratio-labs/oratio-svc/llm/embedding"
)

// DefaultVectorIndex is the well-known Atlas search index name; the index
// must be provisioned out-of-band.
const DefaultVectorIndex = "vector_index"

// StoreOptions tunes a MongoVectorStore.
type StoreOptions struct {
	// Index is the Atlas vector search index name. Defaults to
	// DefaultVectorIndex.
	Index string

	// DefaultTitle and DefaultSource fill document metadata when the
	// stored chunk carries none.
	DefaultTitle  string
	DefaultSource string
}

// MongoVectorStore retrieves passages from a MongoDB Atlas collection via
// $vectorSearch, embedding the query text first.
type MongoVectorStore struct {
	coll     *mongo.Collection
	embedder embedding.Provider
	opts     StoreOptions
	logger   *zap.Logger
}

// NewMongoVectorStore creates a vector store over the given collection.
func NewMongoVectorStore(coll *mongo.Collection, embedder embedding.Provider, opts StoreOptions, logger *zap.Logger) *MongoVectorStore {
	if opts.Index == "" {
		opts.Index = DefaultVectorIndex
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MongoVectorStore{
		coll:     coll,
		embedder: embedder,
		opts:     opts,
		logger:   logger.With(zap.String("component", "mongo_vector_store")),
	}
}

// storedChunk is the projected shape of one indexed passage.
type storedChunk struct {
	ID      bson.ObjectID `bson:"_id"`
	Content string        `bson:"chunk_content"`
	Title   string        `bson:"title,omitempty"`
	Source  string        `bson:"source,omitempty"`
	Score   float64       `bson:"score"`
}

// Search embeds the query and returns up to k nearest passages, ordered
// by descending similarity score (exact nearest-neighbor semantics).
//
// k = 0 short-circuits to an empty result without contacting the
// embedding provider or the database.
func (s *MongoVectorStore) Search(ctx context.Context, query string, k int) ([]Document, error) {
	if k <= 0 {
		return nil, nil
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: s.opts.Index},
			{Key: "path", Value: "embedding"},
			{Key: "queryVector", Value: vector},
			{Key: "exact", Value: true},
			{Key: "limit", Value: k},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 1},
			{Key: "chunk_content", Value: 1},
			{Key: "title", Value: 1},
			{Key: "source", Value: 1},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("vector search aggregate: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []storedChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		return nil, fmt.Errorf("decode vector search results: %w", err)
	}

	docs := make([]Document, 0, len(chunks))
	for _, chunk := range chunks {
		doc := Document{
			Title:  chunk.Title,
			Text:   chunk.Content,
			Source: chunk.Source,
			Score:  chunk.Score,
		}
		if doc.Title == "" {
			doc.Title = s.opts.DefaultTitle
		}
		if doc.Source == "" {
			doc.Source = s.opts.DefaultSource
		}
		docs = append(docs, doc)
	}

	s.logger.Debug("vector search finished",
		zap.String("collection", s.coll.Name()),
		zap.Int("k", k),
		zap.Int("documents", len(docs)))
	return docs, nil
}
