package receipts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionName = "receipts"
	defaultLimit   = 20
	maxLimit       = 200
)

var ErrInvalidReceipt = errors.New("receipt requires signer, kind and signature")

// Receipt records one transaction sent to the prerequisite program.
type Receipt struct {
	Signer    string    `bson:"signer" json:"signer"`
	Mint      string    `bson:"mint,omitempty" json:"mint,omitempty"`
	Program   string    `bson:"program" json:"program"`
	Kind      string    `bson:"kind" json:"kind"`
	Signature string    `bson:"signature" json:"signature"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Recorder persists receipts.
type Recorder interface {
	Record(ctx context.Context, r Receipt) error
}

// Lister reads receipts back, newest first.
type Lister interface {
	List(ctx context.Context, signer string, limit int) ([]Receipt, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore sets up the receipts collection with a unique index on the
// signature and a lookup index on (signer, created_at).
func NewMongoStore(ctx context.Context, client *mongo.Client, dbName string) (*MongoStore, error) {
	coll := client.Database(dbName).Collection(collectionName)
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "signature", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "signer", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return nil, err
	}
	return &MongoStore{coll: coll}, nil
}

// Record upserts r keyed by its signature, so recording the same
// transaction twice leaves a single document.
func (s *MongoStore) Record(ctx context.Context, r Receipt) error {
	if r.Signer == "" || r.Kind == "" || r.Signature == "" {
		return ErrInvalidReceipt
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.D{{Key: "signature", Value: r.Signature}},
		bson.D{{Key: "$set", Value: r}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *MongoStore) List(ctx context.Context, signer string, limit int) ([]Receipt, error) {
	cur, err := s.coll.Find(ctx,
		bson.D{{Key: "signer", Value: signer}},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(int64(ClampLimit(limit))),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []Receipt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ClampLimit maps a requested page size onto [1, 200], with 0 or less
// meaning the default of 20.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return defaultLimit
	case n > maxLimit:
		return maxLimit
	default:
		return n
	}
}
