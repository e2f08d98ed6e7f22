package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/interimgrowthcollective/portal-system/internal/core/domain"
)

const loginCodesCollection = "login_codes"

type MongoLoginCodeRepository struct {
	coll *mongo.Collection
}

func NewLoginCodeRepository(db *mongo.Database) *MongoLoginCodeRepository {
	return &MongoLoginCodeRepository{coll: db.Collection(loginCodesCollection)}
}

type mongoLoginCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Code      string             `bson:"otp_code"`
	Consumed  bool               `bson:"consumed"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (r *MongoLoginCodeRepository) Create(ctx context.Context, code *domain.LoginCode) (*domain.LoginCode, error) {
	doc := mongoLoginCode{
		UserID:    code.UserID,
		Code:      code.Code,
		Consumed:  false,
		ExpiresAt: code.ExpiresAt,
		CreatedAt: code.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert login code: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert login code: unexpected id type %T", res.InsertedID)
	}

	created := *code
	created.ID = oid.Hex()
	created.Consumed = false
	return &created, nil
}

// Consume flips the most recent matching, unexpired, unconsumed code to
// consumed in a single FindOneAndUpdate. The consumed/expiry conditions live
// in the filter, so two concurrent calls with the same code contend on one
// document update and exactly one of them gets the row back.
func (r *MongoLoginCodeRepository) Consume(ctx context.Context, userID, code string, now time.Time) (*domain.LoginCode, error) {
	filter := bson.M{
		"user_id":    userID,
		"otp_code":   code,
		"consumed":   false,
		"expires_at": bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{"consumed": true}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetReturnDocument(options.After)

	var mc mongoLoginCode
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&mc)
	if err == nil {
		return toDomainLoginCode(&mc), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("consume login code: %w", err)
	}

	// Miss. Classify for logs and metrics only — the conditional update above
	// stays the single authority on success, so this second read cannot
	// introduce a double-consume.
	return nil, r.classifyMiss(ctx, userID, code, now)
}

// classifyMiss distinguishes why no row matched: never issued, already used,
// or past its window. Best effort; any read problem degrades to not-found.
func (r *MongoLoginCodeRepository) classifyMiss(ctx context.Context, userID, code string, now time.Time) error {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var mc mongoLoginCode
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "otp_code": code}, opts).Decode(&mc)
	if err != nil {
		return domain.ErrCodeNotFound
	}
	if mc.Consumed {
		return domain.ErrCodeConsumed
	}
	if !mc.ExpiresAt.After(now) {
		return domain.ErrCodeExpired
	}
	// Raced with a concurrent consume-and-reissue; treat as not found.
	return domain.ErrCodeNotFound
}

// EnsureIndexes creates the lookup index used by Consume. Rows are kept as an
// audit trail, so there is deliberately no TTL index here.
func (r *MongoLoginCodeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "otp_code", Value: 1},
			{Key: "consumed", Value: 1},
			{Key: "expires_at", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("ensure login code indexes: %w", err)
	}
	return nil
}

func toDomainLoginCode(mc *mongoLoginCode) *domain.LoginCode {
	return &domain.LoginCode{
		ID:        mc.ID.Hex(),
		UserID:    mc.UserID,
		Code:      mc.Code,
		Consumed:  mc.Consumed,
		ExpiresAt: mc.ExpiresAt,
		CreatedAt: mc.CreatedAt,
	}
}
