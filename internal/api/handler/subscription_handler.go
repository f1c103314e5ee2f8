package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vidstream/accounts-api/internal/core/ports"
)

// SubscriptionHandler handles HTTP requests for channel subscriptions.
type SubscriptionHandler struct {
	service ports.SubscriptionService
}

func NewSubscriptionHandler(service ports.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

// Toggle subscribes the caller to a channel, or unsubscribes when already
// subscribed.
//
// @Summary      Toggle a channel subscription
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        channelId  path      string  true  "Channel user id"
// @Success      200        {object}  envelope
// @Failure      400        {object}  map[string]any
// @Failure      404        {object}  map[string]any
// @Router       /api/v1/subscriptions/{channelId} [post]
func (h *SubscriptionHandler) Toggle(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Toggle(c.Request().Context(), userID, c.Param("channelId"))
	if err != nil {
		return err
	}

	msg := "unsubscribed"
	if result.Subscribed {
		msg = "subscribed"
	}
	return respond(c, http.StatusOK, result, msg)
}

// Channels lists the channels the caller subscribes to.
//
// @Summary      List subscribed channels
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Router       /api/v1/subscriptions/channels [get]
func (h *SubscriptionHandler) Channels(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	channels, err := h.service.SubscribedChannels(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, channels, "subscribed channels fetched")
}

// ChannelProfile returns a channel's public profile with subscription counts.
//
// @Summary      Get a channel profile by username
// @Tags         subscriptions
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true  "Channel username"
// @Success      200       {object}  envelope
// @Failure      404       {object}  map[string]any
// @Router       /api/v1/users/channel/{username} [get]
func (h *SubscriptionHandler) ChannelProfile(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	profile, err := h.service.ChannelProfile(c.Request().Context(), userID, c.Param("username"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, profile, "channel profile fetched")
}
