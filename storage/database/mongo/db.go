package mongodb

import (
	"context"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/seatech/enthusiasm/core"
)

const (
	studentsCollection = "students"
	adminsCollection   = "admins"
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ core.Database = (*DB)(nil)

// Open connects to MongoDB, checks the connection and makes sure the indexes exist.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetConnectTimeout(conf.Database.Timeout).
		SetServerSelectionTimeout(conf.Database.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	db := &DB{client: client, db: client.Database(conf.Database.Name)}

	if err := db.Ping(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

func (db *DB) Engine() string { return core.EngineMongo }

func (db *DB) Ping(ctx context.Context) error {
	if err := db.client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, "pinging mongodb")
	}
	return nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *DB) students() *mongo.Collection { return db.db.Collection(studentsCollection) }
func (db *DB) admins() *mongo.Collection   { return db.db.Collection(adminsCollection) }

// EnsureIndexes creates the unique indexes the repositories rely on.
func (db *DB) EnsureIndexes(ctx context.Context) error {
	_, err := db.students().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "reset_token_hash", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return errors.Wrap(err, "creating students indexes")
	}
	_, err = db.admins().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "creating admins indexes")
	}
	return nil
}

// objectID parses a hex id; ok is false for malformed ids, which can match no document.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}
