package service

import (
	"context"

	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

// SubscriptionService manages subscriber→channel links between users.
type SubscriptionService struct {
	subs  ports.SubscriptionRepository
	users ports.UserRepository
}

func NewSubscriptionService(subs ports.SubscriptionRepository, users ports.UserRepository) *SubscriptionService {
	return &SubscriptionService{subs: subs, users: users}
}

// Toggle subscribes the caller to the channel, or unsubscribes if already
// subscribed.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (*ports.ToggleResult, error) {
	if subscriberID == channelID {
		return nil, domain.ErrSelfSubscribe
	}

	if _, err := s.users.FindByID(ctx, channelID); err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrChannelNotFound
		}
		return nil, err
	}

	exists, err := s.subs.Exists(ctx, subscriberID, channelID)
	if err != nil {
		return nil, err
	}

	if exists {
		if err := s.subs.Delete(ctx, subscriberID, channelID); err != nil {
			return nil, err
		}
		return &ports.ToggleResult{Subscribed: false}, nil
	}

	if err := s.subs.Create(ctx, subscriberID, channelID); err != nil {
		return nil, err
	}
	return &ports.ToggleResult{Subscribed: true}, nil
}

func (s *SubscriptionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]*domain.SanitizedUser, error) {
	channels, err := s.subs.ChannelsFor(ctx, subscriberID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.SanitizedUser, 0, len(channels))
	for _, ch := range channels {
		out = append(out, ch.Sanitized())
	}
	return out, nil
}

// ChannelProfile returns a channel's public profile with subscription counts
// and whether the viewer is currently subscribed.
func (s *SubscriptionService) ChannelProfile(ctx context.Context, viewerID, username string) (*domain.ChannelProfile, error) {
	channel, err := s.users.FindByIdentity(ctx, domain.NormalizeIdentity(username))
	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, domain.ErrChannelNotFound
		}
		return nil, err
	}

	subscribers, err := s.subs.CountSubscribers(ctx, channel.ID)
	if err != nil {
		return nil, err
	}
	subscribedTo, err := s.subs.CountChannels(ctx, channel.ID)
	if err != nil {
		return nil, err
	}

	isSubscribed := false
	if viewerID != "" && viewerID != channel.ID {
		isSubscribed, err = s.subs.Exists(ctx, viewerID, channel.ID)
		if err != nil {
			return nil, err
		}
	}

	return &domain.ChannelProfile{
		SanitizedUser:   *channel.Sanitized(),
		SubscriberCount: subscribers,
		SubscribedTo:    subscribedTo,
		IsSubscribed:    isSubscribed,
	}, nil
}
