package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/Hariom-Ingle/Ai-Interview-Web/pkg/model"
)

const (
	userCollection      = "users"
	interviewCollection = "interviews"

	// attempts made by UpdateInterview before giving up with ErrConcurrentUpdate
	maxUpdateAttempts = 3
)

// MongoRepository is the MongoDB store. Ids are UUID strings, as in the
// PostgreSQL store, so both backends hand out the same shape of id.
type MongoRepository struct {
	db *mongo.Database
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

// EnsureIndexes creates the unique email index and the per-user listing
// index. It is safe to run repeatedly.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.db.Collection(userCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	_, err = r.db.Collection(interviewCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create interview indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, nil)
}

func (r *MongoRepository) CreateUser(ctx context.Context, u *model.User) error {
	if u.UserID == "" {
		u.UserID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	if _, err := r.db.Collection(userCollection).InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *MongoRepository) findUser(ctx context.Context, filter bson.M) (*model.User, error) {
	var u model.User
	if err := r.db.Collection(userCollection).FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}

func (r *MongoRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.findUser(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findUser(ctx, bson.M{"email": email})
}

func (r *MongoRepository) ListUsers(ctx context.Context) ([]model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.db.Collection(userCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	out := []model.User{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return out, nil
}

func (r *MongoRepository) UpdateUser(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.Collection(userCollection).ReplaceOne(ctx, bson.M{"_id": u.UserID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// otpFields maps a purpose to its document fields: counter, hash, expiry.
var otpFields = map[model.OTPPurpose][3]string{
	model.OTPVerify: {"verify_otp_attempts", "verify_otp_hash", "verify_otp_expire_at"},
	model.OTPReset:  {"reset_otp_attempts", "reset_otp_hash", "reset_otp_expire_at"},
}

func (r *MongoRepository) RecordOTPFailure(ctx context.Context, userID string, purpose model.OTPPurpose, limit int) (int, error) {
	fields, ok := otpFields[purpose]
	if !ok {
		return 0, fmt.Errorf("unknown otp purpose %q", purpose)
	}
	coll := r.db.Collection(userCollection)

	var u model.User
	err := coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$inc": bson.M{fields[0]: 1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("record otp failure: %w", err)
	}

	attempts := u.VerifyOTPAttempts
	if purpose == model.OTPReset {
		attempts = u.ResetOTPAttempts
	}
	if attempts >= limit {
		_, err := coll.UpdateOne(ctx,
			bson.M{"_id": userID, fields[0]: bson.M{"$gte": limit}},
			bson.M{
				"$set":   bson.M{fields[1]: ""},
				"$unset": bson.M{fields[2]: ""},
			},
		)
		if err != nil {
			return 0, fmt.Errorf("discard otp: %w", err)
		}
	}
	return attempts, nil
}

func (r *MongoRepository) CreateInterview(ctx context.Context, iv *model.Interview) error {
	if iv.InterviewID == "" {
		iv.InterviewID = uuid.NewString()
	}
	now := time.Now().UTC()
	iv.CreatedAt, iv.UpdatedAt = now, now
	iv.Responses = responsesOrEmpty(iv.Responses)

	if _, err := r.db.Collection(interviewCollection).InsertOne(ctx, iv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateInterview
		}
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

func (r *MongoRepository) GetInterviewByID(ctx context.Context, id string) (*model.Interview, error) {
	return mongoInterviewDocs{coll: r.db.Collection(interviewCollection)}.load(ctx, id)
}

func (r *MongoRepository) ListInterviewByUser(ctx context.Context, userID string, limit, offset int) ([]model.Interview, int, error) {
	coll := r.db.Collection(interviewCollection)
	filter := bson.M{"user_id": userID}

	total, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count interview: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find interview: %w", err)
	}
	out := make([]model.Interview, 0, limit)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode interview: %w", err)
	}
	return out, int(total), nil
}

// UpdateInterview writes only if the stored version still matches the one
// read, re-reading and re-applying fn when another writer got there first.
func (r *MongoRepository) UpdateInterview(ctx context.Context, id string, fn func(*model.Interview) error) (*model.Interview, error) {
	return updateVersioned(ctx, mongoInterviewDocs{coll: r.db.Collection(interviewCollection)}, id, fn)
}

// versionedDocs is the part of an interview collection that a
// compare-and-swap update needs.
type versionedDocs interface {
	load(ctx context.Context, id string) (*model.Interview, error)
	// saveIfVersion writes iv and reports false when the stored version is
	// no longer read.
	saveIfVersion(ctx context.Context, iv *model.Interview, read int64) (bool, error)
}

func updateVersioned(ctx context.Context, docs versionedDocs, id string, fn func(*model.Interview) error) (*model.Interview, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		iv, err := docs.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(iv); err != nil {
			return nil, err
		}

		read := iv.Version
		iv.Version++
		iv.UpdatedAt = time.Now().UTC()
		iv.Responses = responsesOrEmpty(iv.Responses)

		saved, err := docs.saveIfVersion(ctx, iv, read)
		if err != nil {
			return nil, err
		}
		if saved {
			return iv, nil
		}
	}
	return nil, ErrConcurrentUpdate
}

type mongoInterviewDocs struct {
	coll *mongo.Collection
}

func (d mongoInterviewDocs) load(ctx context.Context, id string) (*model.Interview, error) {
	var iv model.Interview
	if err := d.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&iv); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find interview: %w", err)
	}
	return &iv, nil
}

func (d mongoInterviewDocs) saveIfVersion(ctx context.Context, iv *model.Interview, read int64) (bool, error) {
	res, err := d.coll.UpdateOne(ctx,
		bson.M{"_id": iv.InterviewID, "version": read},
		bson.M{"$set": bson.M{
			"responses":  iv.Responses,
			"score":      iv.Score,
			"feedback":   iv.Feedback,
			"version":    iv.Version,
			"updated_at": iv.UpdatedAt,
		}},
	)
	if err != nil {
		return false, fmt.Errorf("update interview: %w", err)
	}
	return res.MatchedCount == 1, nil
}
