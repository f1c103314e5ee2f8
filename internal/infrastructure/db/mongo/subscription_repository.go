package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

const subscriptionsCollection = "subscriptions"

type SubscriptionRepository struct {
	coll *mongo.Collection
}

func NewSubscriptionRepository(db *mongo.Database) *SubscriptionRepository {
	return &SubscriptionRepository{coll: db.Collection(subscriptionsCollection)}
}

type subscriptionDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Subscriber primitive.ObjectID `bson:"subscriber"`
	Channel    primitive.ObjectID `bson:"channel"`
	CreatedAt  int64              `bson:"created_at"`
}

func (r *SubscriptionRepository) Create(ctx context.Context, subscriberID, channelID string) error {
	sub, ch, err := subscriptionIDs(subscriberID, channelID)
	if err != nil {
		return err
	}

	doc := subscriptionDoc{
		Subscriber: sub,
		Channel:    ch,
		CreatedAt:  time.Now().UTC().Unix(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Delete(ctx context.Context, subscriberID, channelID string) error {
	sub, ch, err := subscriptionIDs(subscriberID, channelID)
	if err != nil {
		return err
	}

	if _, err := r.coll.DeleteOne(ctx, bson.M{"subscriber": sub, "channel": ch}); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) Exists(ctx context.Context, subscriberID, channelID string) (bool, error) {
	sub, ch, err := subscriptionIDs(subscriberID, channelID)
	if err != nil {
		return false, err
	}

	n, err := r.coll.CountDocuments(ctx, bson.M{"subscriber": sub, "channel": ch})
	if err != nil {
		return false, fmt.Errorf("subscription exists: %w", err)
	}
	return n > 0, nil
}

func (r *SubscriptionRepository) CountSubscribers(ctx context.Context, channelID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(channelID)
	if err != nil {
		return 0, domain.ErrChannelNotFound
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"channel": oid})
	if err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}

func (r *SubscriptionRepository) CountChannels(ctx context.Context, subscriberID string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(subscriberID)
	if err != nil {
		return 0, domain.ErrUserNotFound
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"subscriber": oid})
	if err != nil {
		return 0, fmt.Errorf("count channels: %w", err)
	}
	return n, nil
}

// ChannelsFor resolves the user documents of every channel the subscriber
// follows via a $lookup into the users collection.
func (r *SubscriptionRepository) ChannelsFor(ctx context.Context, subscriberID string) ([]*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(subscriberID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"subscriber": oid}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersCollection,
			"localField":   "channel",
			"foreignField": "_id",
			"as":           "channel_user",
		}}},
		{{Key: "$unwind", Value: "$channel_user"}},
		{{Key: "$replaceRoot", Value: bson.M{"newRoot": "$channel_user"}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer cursor.Close(ctx)

	var users []*domain.User
	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode channel: %w", err)
		}
		users = append(users, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	return users, nil
}

// EnsureIndexes creates the compound uniqueness index so one subscriber can
// follow a channel at most once.
func (r *SubscriptionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "subscriber", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "channel", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

func subscriptionIDs(subscriberID, channelID string) (primitive.ObjectID, primitive.ObjectID, error) {
	sub, err := primitive.ObjectIDFromHex(subscriberID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, domain.ErrUserNotFound
	}
	ch, err := primitive.ObjectIDFromHex(channelID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, domain.ErrChannelNotFound
	}
	return sub, ch, nil
}
