package database

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConnector connects to MongoDB.
type MongoConnector struct {
	cfg Config

	mu     sync.RWMutex
	client *mongo.Client
}

// NewMongoConnector creates a MongoDB connector.
func NewMongoConnector(cfg Config) *MongoConnector {
	return &MongoConnector{cfg: cfg}
}

func (c *MongoConnector) Driver() string {
	return DriverMongo
}

// Client returns the shared client, or nil before the first successful Connect.
func (c *MongoConnector) Client() *mongo.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Database returns the configured database, or nil when not connected.
func (c *MongoConnector) Database() *mongo.Database {
	client := c.Client()
	if client == nil {
		return nil
	}
	return client.Database(c.cfg.Name)
}

func (c *MongoConnector) Connect(ctx context.Context) error {
	if c.Client() != nil {
		return nil
	}

	ctx, cancel := withConnectTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(c.cfg.URL)
	if c.cfg.ConnectTimeout > 0 {
		opts.SetServerSelectionTimeout(c.cfg.ConnectTimeout)
	}
	if c.cfg.MaxConns > 0 {
		opts.SetMaxPoolSize(uint64(c.cfg.MaxConns))
	}
	if c.cfg.MinConns > 0 {
		opts.SetMinPoolSize(uint64(c.cfg.MinConns))
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return Classify(DriverMongo, fmt.Errorf("failed to connect mongodb: %w", err))
	}

	// mongo.Connect is lazy; the ping is what reaches the server.
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return Classify(DriverMongo, fmt.Errorf("failed to ping mongodb: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		_ = client.Disconnect(context.Background())
		return nil
	}
	c.client = client
	return nil
}

func (c *MongoConnector) Ping(ctx context.Context) error {
	client := c.Client()
	if client == nil {
		return ErrNotConnected
	}
	return Classify(DriverMongo, client.Ping(ctx, readpref.Primary()))
}

func (c *MongoConnector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	return err
}
