package ports

import (
	"context"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

// ToggleResult reports the state after a subscribe/unsubscribe toggle.
type ToggleResult struct {
	Subscribed bool `json:"subscribed"`
}

// SubscriptionService manages subscriber→channel links.
type SubscriptionService interface {
	Toggle(ctx context.Context, subscriberID, channelID string) (*ToggleResult, error)
	SubscribedChannels(ctx context.Context, subscriberID string) ([]*domain.SanitizedUser, error)
	ChannelProfile(ctx context.Context, viewerID, username string) (*domain.ChannelProfile, error)
}
