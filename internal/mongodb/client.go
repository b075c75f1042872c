// Package mongodb manages the process-scoped MongoDB connection handle.
// This package is internal and should not be imported by external projects.
package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"
)

// Config holds the MongoDB connection settings.
type Config struct {
	// URI is the connection string.
	URI string `yaml:"uri" json:"-"`

	// ConnectTimeout bounds the initial connect and ping.
	ConnectTimeout time.Duration `yaml:"connect_timeout" json:"connect_timeout"`
}

// Client is the process-wide connection handle. It is created once at
// startup, injected into every component that needs it, and closed by
// the shutdown hook. The underlying driver client is safe for concurrent
// use, so no locking is needed around reads.
type Client struct {
	client *mongo.Client
	logger *zap.Logger
	mu     sync.Mutex
	closed bool
}

// Connect establishes the connection and verifies it with a ping.
func Connect(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("connected to mongodb")
	return &Client{
		client: client,
		logger: logger.With(zap.String("component", "mongodb")),
	}, nil
}

// Collection returns a handle on the named collection.
func (c *Client) Collection(database, collection string) *mongo.Collection {
	return c.client.Database(database).Collection(collection)
}

// Ping verifies the connection is still healthy.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client. Safe to call more than once.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true

	if err := c.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongodb: %w", err)
	}
	c.logger.Info("mongodb connection closed")
	return nil
}
