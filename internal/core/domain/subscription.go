package domain

import "time"

// Subscription links a subscriber to a channel (both are users).
type Subscription struct {
	ID         string    `json:"id"`
	Subscriber string    `json:"subscriber"`
	Channel    string    `json:"channel"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChannelProfile is a channel's public view with subscription counts relative
// to the viewing user.
type ChannelProfile struct {
	SanitizedUser
	SubscriberCount int64 `json:"subscriber_count"`
	SubscribedTo    int64 `json:"subscribed_to_count"`
	IsSubscribed    bool  `json:"is_subscribed"`
}
