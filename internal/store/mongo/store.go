// Package mongo is the MongoDB implementation of store.Store.
//
// RecordRating needs multi-document transactions, so the server must be a
// replica set (a single-node one is enough) or a sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/spiceapp/spice-server/internal/store"
)

// Collection names.
const (
	CollectionLectures = "lectures"
	CollectionRatings  = "ratings"
)

const connectTimeout = 10 * time.Second

// ErrNoTransactions is returned by Open for a standalone server.
var ErrNoTransactions = errors.New("mongo: transactions unavailable; run a replica set or sharded cluster")

// helloDoc is the subset of the hello reply that tells deployments apart.
type helloDoc struct {
	SetName string `bson:"setName"`
	Msg     string `bson:"msg"`
}

func (h helloDoc) supportsTransactions() bool {
	return h.SetName != "" || h.Msg == "isdbgrid"
}

// Store provides MongoDB-backed catalog persistence.
type Store struct {
	client   *mongo.Client
	lectures *mongo.Collection
	ratings  *mongo.Collection
	logger   *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects to uri, selects database and ensures indexes exist.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	var hello helloDoc
	if err := db.RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("hello: %w", err)
	}
	if !hello.supportsTransactions() {
		_ = client.Disconnect(context.Background())
		return nil, ErrNoTransactions
	}

	s := &Store{
		client:   client,
		lectures: db.Collection(CollectionLectures),
		ratings:  db.Collection(CollectionRatings),
		logger:   logger,
	}
	if err := s.createIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongo store opened", "database", database)
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) createIndexes(ctx context.Context) error {
	models := map[*mongo.Collection][]mongo.IndexModel{
		s.lectures: {
			{Keys: catalogSort, Options: options.Index().SetName("catalog_order")},
		},
		s.ratings: {
			{Keys: bson.D{{Key: "lecture_id", Value: 1}, {Key: "created_ns", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("lecture_created")},
			{Keys: recentSort, Options: options.Index().SetName("recent")},
		},
	}
	for coll, m := range models {
		if _, err := coll.Indexes().CreateMany(ctx, m); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}
	return nil
}
