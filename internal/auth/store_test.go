package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func connectTestMongo(t *testing.T) *mongo.Client {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to mongo: %v", err)
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		t.Skipf("skipping: mongo ping failed: %v", err)
	}
	t.Cleanup(func() { _ = cli.Disconnect(context.Background()) })
	return cli
}

func TestHashPrefix(t *testing.T) {
	p := HashPrefix("test-key")
	assert.Len(t, p, 8)
	assert.Equal(t, p, HashPrefix("test-key"))
	assert.NotEqual(t, p, HashPrefix("other-key"))
	assert.Equal(t, Digest("test-key")[:8], p)
}

func TestNewKey(t *testing.T) {
	a, err := NewKey()
	require.NoError(t, err)
	b, err := NewKey()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

func TestMongoAPIKeyStore_CreateAndValidate(t *testing.T) {
	cli := connectTestMongo(t)
	ctx := context.Background()
	store, err := NewMongoAPIKeyStore(ctx, cli, "prereqkit_test", 200*time.Millisecond)
	require.NoError(t, err)
	_ = store.coll.Drop(ctx)
	store, err = NewMongoAPIKeyStore(ctx, cli, "prereqkit_test", 200*time.Millisecond)
	require.NoError(t, err)

	key := "test-active-123"
	require.NoError(t, store.Create(ctx, key, true, "userA"))
	ok, err := store.Validate(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	var doc apiKeyDoc
	require.NoError(t, store.coll.FindOne(ctx, map[string]string{"digest": Digest(key)}).Decode(&doc))
	assert.Equal(t, "userA", doc.Owner)
	assert.False(t, doc.CreatedAt.IsZero())
}

func TestMongoAPIKeyStore_NegativeCache(t *testing.T) {
	cli := connectTestMongo(t)
	ctx := context.Background()
	store, err := NewMongoAPIKeyStore(ctx, cli, "prereqkit_test", 300*time.Millisecond)
	require.NoError(t, err)
	_, _ = store.coll.DeleteMany(ctx, map[string]any{})

	missing := "no-such-key"
	ok, err := store.Validate(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Validate(ctx, missing)
	require.NoError(t, err)
	assert.False(t, ok, "served from negative cache")

	require.NoError(t, store.Create(ctx, missing, true, "owner"))
	ok, _ = store.Validate(ctx, missing)
	assert.True(t, ok, "Create refreshes the cached verdict")
}

func TestMongoAPIKeyStore_MissingKey(t *testing.T) {
	store := &MongoAPIKeyStore{verdicts: map[string]verdict{}}
	_, err := store.Validate(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingKey)
	assert.ErrorIs(t, store.Create(context.Background(), "", true, ""), ErrMissingKey)
}
