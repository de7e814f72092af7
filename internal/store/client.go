// Package store persists signals, insights and feedback in SurrealDB, with
// an HNSW index over insight embeddings for similarity lookups.
package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

// Reconnect backoff for the WebSocket connection. The daily run tolerates a
// slow store start; half a minute between attempts is plenty.
const (
	reconnectInitialDelay = 1 * time.Second
	reconnectMaxDelay     = 30 * time.Second
	reconnectMultiplier   = 2.0
	reconnectMaxRetries   = 10

	checkInterval = 5 * time.Second
)

func init() {
	// WebSocket upgrades need HTTP/1.1 semantics; pin ALPN so TLS endpoints
	// don't negotiate HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Config holds the SurrealDB connection settings.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"
}

// Client is the store's handle on SurrealDB, connected over an
// auto-reconnecting WebSocket.
type Client struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	cfg    Config
	logger logger.Logger
}

// NewClient dials SurrealDB, authenticates, and selects the configured
// namespace and database.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	sdkLogger := logger.New(log.Handler())

	conn := dial(cfg.URL, sdkLogger)

	sdkLogger.Info("connecting to store", "url", cfg.URL,
		"namespace", cfg.Namespace, "database", cfg.Database)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}

	c := &Client{conn: conn, db: db, cfg: cfg, logger: sdkLogger}
	if err := c.signIn(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}
	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use: %w", err)
	}

	sdkLogger.Info("store connection established")
	return c, nil
}

// dial builds the rews connection: gorillaws transport, surrealcbor codec
// (SurrealDB's custom CBOR tags), exponential-backoff reconnects.
func dial(url string, sdkLogger logger.Logger) *rews.Connection[*gorillaws.Connection] {
	codec := surrealcbor.New()

	// gorillaws appends /rpc itself.
	baseURL := strings.TrimSuffix(url, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			return gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			}), nil
		},
		checkInterval,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = reconnectInitialDelay
	retryer.MaxDelay = reconnectMaxDelay
	retryer.Multiplier = reconnectMultiplier
	retryer.MaxRetries = reconnectMaxRetries
	conn.Retryer = retryer

	return conn
}

func (c *Client) signIn(ctx context.Context) error {
	auth := surrealdb.Auth{
		Username: c.cfg.Username,
		Password: c.cfg.Password,
	}
	if c.cfg.AuthLevel == "database" {
		auth.Namespace = c.cfg.Namespace
		auth.Database = c.cfg.Database
	}
	if _, err := c.db.SignIn(ctx, auth); err != nil {
		return fmt.Errorf("signin: %w", err)
	}
	return nil
}

// Close closes the store connection.
func (c *Client) Close(ctx context.Context) error {
	c.logger.Info("closing store connection")
	return c.conn.Close(ctx)
}

// InitSchema creates tables and indexes. embedDim must match the embedding
// producer's vector width; the HNSW index is fixed to it at creation time.
func (c *Client) InitSchema(ctx context.Context, embedDim int) error {
	c.logger.Info("initializing schema", "embed_dimension", embedDim)
	if _, err := surrealdb.Query[any](ctx, c.db, schemaSQL(embedDim), nil); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// WipeData deletes all rows while preserving schema. Testing only.
func (c *Client) WipeData(ctx context.Context) error {
	c.logger.Warn("wiping all store data")

	// feedback references insight, delete it first.
	for _, table := range []string{"feedback", "insight", "signal"} {
		if _, err := surrealdb.Query[any](ctx, c.db, "DELETE "+table, nil); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}
	return nil
}
