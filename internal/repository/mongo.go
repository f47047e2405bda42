package repository

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Siddarth2230/shortcode/internal/models"
	"github.com/Siddarth2230/shortcode/pkg/idgen"
	"github.com/Siddarth2230/shortcode/pkg/metrics"
)

const DefaultMongoCollection = "codes"

// MongoOptions configures the client pool.
type MongoOptions struct {
	URI            string
	ConnectTimeout time.Duration
	MinPoolSize    uint64
	MaxPoolSize    uint64
}

// codeDocument is the stored shape. Documents written before seq was
// persisted have no seq field; their sequence is recovered from the code.
type codeDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Code      string             `bson:"code"`
	Data      string             `bson:"data"`
	Seq       *int64             `bson:"seq,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt *time.Time         `bson:"updated_at,omitempty"`
}

// MongoRepository stores records as documents in one collection.
type MongoRepository struct {
	coll *mongo.Collection
}

// OpenMongo connects and pings the deployment.
func OpenMongo(ctx context.Context, opts MongoOptions) (*mongo.Client, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnectTimeout).
		SetMinPoolSize(opts.MinPoolSize).
		SetMaxPoolSize(opts.MaxPoolSize)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo: connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "mongo: ping")
	}
	return client, nil
}

func NewMongoRepository(db *mongo.Database, collection string) *MongoRepository {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoRepository{coll: db.Collection(collection)}
}

// EnsureIndexes creates the unique index on code and the seq index used to
// find the high-water mark.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("code_unique"),
		},
		{
			Keys:    bson.D{{Key: "seq", Value: -1}},
			Options: options.Index().SetName("seq_desc"),
		},
	})
	if err != nil {
		return errors.Wrap(err, "mongo: create indexes")
	}
	return nil
}

func (r *MongoRepository) Insert(ctx context.Context, rec *models.Record) error {
	defer metrics.ObserveStore("mongo", "insert", time.Now())

	if rec.Sequence > math.MaxInt64 {
		return errors.Errorf("mongo: sequence %d does not fit an int64", rec.Sequence)
	}
	seq := int64(rec.Sequence)
	doc := codeDocument{
		Code:      rec.Code,
		Data:      rec.Payload,
		Seq:       &seq,
		CreatedAt: rec.CreatedAt.UTC(),
		UpdatedAt: rec.UpdatedAt,
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(ErrDuplicateCode, "mongo: code %s", rec.Code)
		}
		return errors.Wrapf(err, "mongo: insert code %s", rec.Code)
	}
	return nil
}

func (r *MongoRepository) FindByCode(ctx context.Context, code string) (*models.Record, error) {
	defer metrics.ObserveStore("mongo", "find_by_code", time.Now())

	var doc codeDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "code", Value: code}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.Wrapf(ErrNotFound, "code %s", code)
		}
		return nil, errors.Wrapf(err, "mongo: find code %s", code)
	}
	return doc.record(), nil
}

func (r *MongoRepository) Count(ctx context.Context) (int64, error) {
	defer metrics.ObserveStore("mongo", "count", time.Now())

	n, err := r.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, errors.Wrap(err, "mongo: count")
	}
	return n, nil
}

// MaxSequence only sees documents that carry a seq field.
func (r *MongoRepository) MaxSequence(ctx context.Context) (uint64, bool, error) {
	defer metrics.ObserveStore("mongo", "max_sequence", time.Now())

	opts := options.FindOne().
		SetSort(bson.D{{Key: "seq", Value: -1}}).
		SetProjection(bson.D{{Key: "seq", Value: 1}})

	var doc codeDocument
	err := r.coll.FindOne(ctx, bson.D{{Key: "seq", Value: bson.D{{Key: "$exists", Value: true}}}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "mongo: max sequence")
	}
	if doc.Seq == nil {
		return 0, false, nil
	}
	return uint64(*doc.Seq), true, nil
}

func (d *codeDocument) record() *models.Record {
	rec := &models.Record{
		Code:      d.Code,
		Payload:   d.Data,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt,
	}
	if d.Seq != nil {
		rec.Sequence = uint64(*d.Seq)
	} else if seq, err := idgen.Decode(d.Code); err == nil {
		rec.Sequence = seq
	}
	return rec
}

var (
	_ Store            = (*MongoRepository)(nil)
	_ SequenceReporter = (*MongoRepository)(nil)
)
