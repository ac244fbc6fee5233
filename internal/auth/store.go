package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrMissingKey = errors.New("missing api key")

// APIKeyStore validates API keys and reports backend health.
type APIKeyStore interface {
	Validate(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
}

// APIKeyCreator issues or updates API keys.
type APIKeyCreator interface {
	Create(ctx context.Context, key string, active bool, owner string) error
}

type verdict struct {
	active    bool
	expiresAt time.Time
}

// MongoAPIKeyStore keeps keys in the api_keys collection. Keys are stored
// as SHA-256 digests; lookups, including misses, are cached for ttl.
type MongoAPIKeyStore struct {
	coll *mongo.Collection
	ttl  time.Duration

	mu       sync.RWMutex
	verdicts map[string]verdict
}

type apiKeyDoc struct {
	Digest    string    `bson:"digest"`
	Active    bool      `bson:"active"`
	Owner     string    `bson:"owner,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
}

func NewMongoAPIKeyStore(ctx context.Context, client *mongo.Client, dbName string, ttl time.Duration) (*MongoAPIKeyStore, error) {
	coll := client.Database(dbName).Collection("api_keys")
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "digest", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &MongoAPIKeyStore{
		coll:     coll,
		ttl:      ttl,
		verdicts: make(map[string]verdict),
	}, nil
}

func (s *MongoAPIKeyStore) Validate(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrMissingKey
	}
	digest := Digest(key)
	if active, ok := s.cached(digest); ok {
		return active, nil
	}

	var doc apiKeyDoc
	err := s.coll.FindOne(ctx, bson.D{{Key: "digest", Value: digest}}).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		s.remember(digest, false)
		return false, nil
	case err != nil:
		return false, err
	}
	s.remember(digest, doc.Active)
	return doc.Active, nil
}

func (s *MongoAPIKeyStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

// Create upserts key with the given state and owner.
func (s *MongoAPIKeyStore) Create(ctx context.Context, key string, active bool, owner string) error {
	if key == "" {
		return ErrMissingKey
	}
	digest := Digest(key)
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "digest", Value: digest}},
		bson.D{
			{Key: "$set", Value: bson.D{{Key: "active", Value: active}, {Key: "owner", Value: owner}}},
			{Key: "$setOnInsert", Value: bson.D{{Key: "created_at", Value: time.Now().UTC()}}},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return err
	}
	s.remember(digest, active)
	return nil
}

func (s *MongoAPIKeyStore) cached(digest string) (bool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verdicts[digest]
	if !ok || !time.Now().Before(v.expiresAt) {
		return false, false
	}
	return v.active, true
}

func (s *MongoAPIKeyStore) remember(digest string, active bool) {
	s.mu.Lock()
	s.verdicts[digest] = verdict{active: active, expiresAt: time.Now().Add(s.ttl)}
	s.mu.Unlock()
}

// NewKey returns a random 32-byte hex API key.
func NewKey() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

// Digest is the hex SHA-256 of key, the form keys are stored in.
func Digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// HashPrefix returns the first 8 hex chars of Digest(key) for logging.
func HashPrefix(key string) string {
	return Digest(key)[:8]
}
