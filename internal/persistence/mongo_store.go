package persistence

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/stepform/pkg/api"
)

// MongoSnapshotStore is a SnapshotStore backed by MongoDB. Each snapshot is
// one document whose _id is the storage key.
type MongoSnapshotStore struct {
	coll *mongo.Collection
}

// NewMongoSnapshotStore creates a Mongo-backed snapshot store.
// dbName defaults to "stepform" if empty, collName defaults to "snapshots".
func NewMongoSnapshotStore(client *mongo.Client, dbName, collName string) *MongoSnapshotStore {
	if dbName == "" {
		dbName = "stepform"
	}
	if collName == "" {
		collName = "snapshots"
	}

	return &MongoSnapshotStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoSnapshotDoc struct {
	Key           string `bson:"_id"`
	CursorIndex   int    `bson:"cursor_index"`
	FurthestIndex int    `bson:"furthest_index"`
	FormState     []byte `bson:"form_state,omitempty"`
	SavedAt       int64  `bson:"saved_at"`
}

func (s *MongoSnapshotStore) Save(ctx context.Context, key string, snap api.Snapshot) error {
	state, err := EncodeFormState(snap.FormState)
	if err != nil {
		return err
	}

	doc := mongoSnapshotDoc{
		Key:           key,
		CursorIndex:   snap.CursorIndex,
		FurthestIndex: snap.FurthestIndex,
		FormState:     state,
		SavedAt:       timeNanos(snap.SavedAt),
	}

	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoSnapshotStore) Load(ctx context.Context, key string) (api.Snapshot, error) {
	var doc mongoSnapshotDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return api.Snapshot{}, ErrSnapshotNotFound
		}
		return api.Snapshot{}, err
	}

	state, err := DecodeFormState(doc.FormState)
	if err != nil {
		return api.Snapshot{}, err
	}

	return api.Snapshot{
		StorageKey:    doc.Key,
		FormState:     state,
		CursorIndex:   doc.CursorIndex,
		FurthestIndex: doc.FurthestIndex,
		SavedAt:       unixNanos(doc.SavedAt),
	}, nil
}

func (s *MongoSnapshotStore) Clear(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}
