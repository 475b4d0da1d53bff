package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/petrijr/stepform"
)

const (
	storeMemory   = "memory"
	storeSQLite   = "sqlite"
	storePostgres = "postgres"
	storeRedis    = "redis"
	storeMongo    = "mongo"

	defaultSQLiteFile = "stepform.db"
	connectTimeout    = 10 * time.Second
)

var errHistoryUnsupported = errors.New("this store does not keep history; use sqlite or memory")

// backend is an opened snapshot store plus optional history.
type backend struct {
	snapshots stepform.SnapshotStore
	events    stepform.EventStore
	close     func() error
}

func openBackend(ctx context.Context, opts *storeOptions) (*backend, error) {
	switch opts.kind {
	case storeMemory:
		return &backend{
			snapshots: stepform.NewInMemoryStore(),
			events:    stepform.NewInMemoryEventStore(),
			close:     func() error { return nil },
		}, nil

	case storeSQLite:
		dsn := opts.dsn
		if dsn == "" {
			dsn = defaultSQLiteFile
		}
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
		}
		// Debounced saves run on a timer goroutine; one connection keeps
		// them from racing the event writes for the file lock.
		db.SetMaxOpenConns(1)
		snaps, err := stepform.NewSQLiteStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		events, err := stepform.NewSQLiteEventStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &backend{snapshots: snaps, events: events, close: db.Close}, nil

	case storePostgres:
		if opts.dsn == "" {
			return nil, errors.New("--dsn is required for the postgres store")
		}
		db, err := sql.Open("pgx", opts.dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		snaps, err := stepform.NewPostgresStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &backend{snapshots: snaps, close: db.Close}, nil

	case storeRedis:
		url := opts.dsn
		if url == "" {
			url = "redis://localhost:6379/0"
		}
		ropts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(ropts)
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		return &backend{
			snapshots: stepform.NewRedisStore(client, opts.prefix, 0),
			close:     client.Close,
		}, nil

	case storeMongo:
		uri := opts.dsn
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		client, err := mongo.Connect(connCtx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		if err := client.Ping(connCtx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("ping mongo: %w", err)
		}
		return &backend{
			snapshots: stepform.NewMongoStore(client, opts.prefix, ""),
			close:     func() error { return client.Disconnect(context.Background()) },
		}, nil

	default:
		return nil, fmt.Errorf("unknown store %q", opts.kind)
	}
}
