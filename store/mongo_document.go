package store

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/Flyns157/API-recommendation/apperr"
)

// backoffSchedule is the exponential backoff applied to transport faults:
// one retry after 100ms, then another after 400ms, before surfacing
// StoreFault (three attempts in all).
var backoffSchedule = []time.Duration{100 * time.Millisecond, 400 * time.Millisecond}

// MongoDocumentStore implements DocumentStore over a Mongo database,
// grounded on the session/retry conventions of db/repository/neo4j.go
// applied to the mongo-driver client.
type MongoDocumentStore struct {
	db  *mongo.Database
	log *logrus.Entry
}

// NewMongoDocumentStore connects to uri/db and verifies connectivity.
func NewMongoDocumentStore(ctx context.Context, uri, dbName string, log *logrus.Entry) (*MongoDocumentStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreFault, "mongo connect", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, apperr.Wrap(apperr.KindStoreFault, "mongo ping", err)
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &MongoDocumentStore{db: client.Database(dbName), log: log.WithField("component", "mongo_document_store")}, nil
}

// withRetry retries op against the backoff schedule, but only for faults
// that stand a chance of clearing on their own (transport errors). A
// mongo.ErrNoDocuments result means the record doesn't exist, not that the
// store is unavailable, so it's classified and returned immediately without
// spending any of the backoff schedule.
func withRetry(op func() error) error {
	err := op()
	if err == nil || errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}
	for _, wait := range backoffSchedule {
		time.Sleep(wait)
		err = op()
		if err == nil || errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}
	}
	return err
}

func (m *MongoDocumentStore) Get(ctx context.Context, collection, id string, out any) error {
	var result *mongo.SingleResult
	err := withRetry(func() error {
		result = m.db.Collection(collection).FindOne(ctx, bson.M{"_id": id})
		return result.Err()
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NotFound(collection, id)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindStoreFault, "get "+collection+"/"+id, err)
	}
	if err := result.Decode(out); err != nil {
		return apperr.Wrap(apperr.KindStoreFault, "decode "+collection+"/"+id, err)
	}
	return nil
}

func (m *MongoDocumentStore) Find(ctx context.Context, collection string, filter map[string]any) (RecordIterator, error) {
	bsonFilter := bson.M{}
	for k, v := range filter {
		bsonFilter[k] = v
	}
	var cur *mongo.Cursor
	err := withRetry(func() error {
		var ferr error
		cur, ferr = m.db.Collection(collection).Find(ctx, bsonFilter)
		return ferr
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreFault, "find "+collection, err)
	}
	return &mongoIterator{cur: cur}, nil
}

func (m *MongoDocumentStore) UpdateEmbedding(ctx context.Context, collection, id string, vector []float64, at time.Time) error {
	update := bson.M{"$set": bson.M{
		"embedding": bson.M{"date": at, "vector": vector},
	}}
	err := withRetry(func() error {
		res, uerr := m.db.Collection(collection).UpdateOne(ctx, bson.M{"_id": id}, update)
		if uerr != nil {
			return uerr
		}
		if res.MatchedCount == 0 {
			return mongo.ErrNoDocuments
		}
		return nil
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return NotFound(collection, id)
	}
	if err != nil {
		return apperr.Wrap(apperr.KindStoreFault, "update_embedding "+collection+"/"+id, err)
	}
	return nil
}

type mongoIterator struct {
	cur *mongo.Cursor
	err error
}

func (m *mongoIterator) Next(ctx context.Context) bool { return m.cur.Next(ctx) }
func (m *mongoIterator) Decode(out any) error          { return m.cur.Decode(out) }
func (m *mongoIterator) Err() error {
	if m.err != nil {
		return m.err
	}
	return m.cur.Err()
}
func (m *mongoIterator) Close(ctx context.Context) error { return m.cur.Close(ctx) }
