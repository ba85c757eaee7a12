package session

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/choirstage/pkg/errors"
)

// Default MongoDB collection names.
const (
	DefaultSessionCollection  = "sessions"
	DefaultSnapshotCollection = "snapshots"
)

// MongoConfig configures a MongoStore.
type MongoConfig struct {
	URI                string        `toml:"uri" env:"URI"`
	Database           string        `toml:"database" env:"DATABASE"`
	SessionCollection  string        `toml:"session_collection" env:"SESSION_COLLECTION"`
	SnapshotCollection string        `toml:"snapshot_collection" env:"SNAPSHOT_COLLECTION"`
	Timeout            time.Duration `toml:"timeout" env:"TIMEOUT"`
}

// MongoStore stores sessions and snapshots in two MongoDB collections.
// Session documents are keyed by code; snapshot documents carry their
// session code and creation time, indexed for newest-first listing.
type MongoStore struct {
	client    *mongo.Client
	sessions  *mongo.Collection
	snapshots *mongo.Collection
	owned     bool
}

// NewMongoStore connects to MongoDB and ensures the snapshot index. The
// returned store owns the client and disconnects it on Close.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI).SetTimeout(timeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect to mongodb")
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping mongodb")
	}

	store := NewMongoStoreFromClient(client, cfg)
	store.owned = true
	if err := store.EnsureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return store, nil
}

// NewMongoStoreFromClient wraps an existing client. The caller keeps
// ownership of the client.
func NewMongoStoreFromClient(client *mongo.Client, cfg MongoConfig) *MongoStore {
	dbName := cfg.Database
	if dbName == "" {
		dbName = "choirstage"
	}
	sessions := cfg.SessionCollection
	if sessions == "" {
		sessions = DefaultSessionCollection
	}
	snapshots := cfg.SnapshotCollection
	if snapshots == "" {
		snapshots = DefaultSnapshotCollection
	}
	db := client.Database(dbName)
	return &MongoStore{
		client:    client,
		sessions:  db.Collection(sessions),
		snapshots: db.Collection(snapshots),
	}
}

// EnsureIndexes creates the (session_code, created_at) snapshot index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.snapshots.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_code", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "create snapshot index")
	}
	return nil
}

func (s *MongoStore) GetSession(ctx context.Context, code string) (*Session, error) {
	var sess Session
	err := s.sessions.FindOne(ctx, bson.M{"_id": code}).Decode(&sess)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, sessionNotFound(code)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get session %s", code)
	}
	return &sess, nil
}

func (s *MongoStore) PutSession(ctx context.Context, sess *Session) error {
	_, err := s.sessions.ReplaceOne(ctx, bson.M{"_id": sess.Code}, sess, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save session %s", sess.Code)
	}
	return nil
}

func (s *MongoStore) DeleteSession(ctx context.Context, code string) error {
	res, err := s.sessions.DeleteOne(ctx, bson.M{"_id": code})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete session %s", code)
	}
	if res.DeletedCount == 0 {
		return sessionNotFound(code)
	}
	if _, err := s.snapshots.DeleteMany(ctx, bson.M{"session_code": code}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshots of %s", code)
	}
	return nil
}

func (s *MongoStore) ListSnapshots(ctx context.Context, code string) ([]Snapshot, error) {
	n, err := s.sessions.CountDocuments(ctx, bson.M{"_id": code})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get session %s", code)
	}
	if n == 0 {
		return nil, sessionNotFound(code)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	cur, err := s.snapshots.Find(ctx, bson.M{"session_code": code}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list snapshots of %s", code)
	}
	out := []Snapshot{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode snapshots of %s", code)
	}
	return out, nil
}

func (s *MongoStore) GetSnapshot(ctx context.Context, code, id string) (*Snapshot, error) {
	var snap Snapshot
	err := s.snapshots.FindOne(ctx, bson.M{"_id": id, "session_code": code}).Decode(&snap)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, snapshotNotFound(code, id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get snapshot %s", id)
	}
	return &snap, nil
}

func (s *MongoStore) PutSnapshot(ctx context.Context, snap *Snapshot) error {
	_, err := s.snapshots.ReplaceOne(ctx, bson.M{"_id": snap.ID}, snap, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save snapshot %s", snap.ID)
	}
	return nil
}

func (s *MongoStore) DeleteSnapshot(ctx context.Context, code, id string) error {
	res, err := s.snapshots.DeleteOne(ctx, bson.M{"_id": id, "session_code": code})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete snapshot %s", id)
	}
	if res.DeletedCount == 0 {
		return snapshotNotFound(code, id)
	}
	return nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
