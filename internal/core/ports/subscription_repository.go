package ports

import (
	"context"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

// SubscriptionRepository persists subscriber→channel links.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscriberID, channelID string) error
	Delete(ctx context.Context, subscriberID, channelID string) error
	Exists(ctx context.Context, subscriberID, channelID string) (bool, error)
	CountSubscribers(ctx context.Context, channelID string) (int64, error)
	CountChannels(ctx context.Context, subscriberID string) (int64, error)
	ChannelsFor(ctx context.Context, subscriberID string) ([]*domain.User, error)
}
