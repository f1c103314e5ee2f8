package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/vidstream/accounts-api/internal/api"
	"github.com/vidstream/accounts-api/internal/api/handler"
	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

type stubSubscriptionService struct {
	toggleFn   func(ctx context.Context, subscriberID, channelID string) (*ports.ToggleResult, error)
	channelsFn func(ctx context.Context, subscriberID string) ([]*domain.SanitizedUser, error)
	profileFn  func(ctx context.Context, viewerID, username string) (*domain.ChannelProfile, error)
}

func (s *stubSubscriptionService) Toggle(ctx context.Context, subscriberID, channelID string) (*ports.ToggleResult, error) {
	return s.toggleFn(ctx, subscriberID, channelID)
}

func (s *stubSubscriptionService) SubscribedChannels(ctx context.Context, subscriberID string) ([]*domain.SanitizedUser, error) {
	return s.channelsFn(ctx, subscriberID)
}

func (s *stubSubscriptionService) ChannelProfile(ctx context.Context, viewerID, username string) (*domain.ChannelProfile, error) {
	return s.profileFn(ctx, viewerID, username)
}

func newSubsTestServer(svc ports.SubscriptionService) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = api.NewHTTPErrorHandler(zerolog.Nop())

	h := handler.NewSubscriptionHandler(svc)
	e.POST("/api/v1/subscriptions/:channelId", h.Toggle, fakeAuth)
	e.GET("/api/v1/subscriptions/channels", h.Channels, fakeAuth)
	e.GET("/api/v1/users/channel/:username", h.ChannelProfile, fakeAuth)

	return e
}

func TestSubscriptionHandler_Toggle(t *testing.T) {
	stub := &stubSubscriptionService{
		toggleFn: func(ctx context.Context, subscriberID, channelID string) (*ports.ToggleResult, error) {
			if subscriberID != "user-1" || channelID != "channel-9" {
				t.Fatalf("unexpected args: %s %s", subscriberID, channelID)
			}
			return &ports.ToggleResult{Subscribed: true}, nil
		},
	}
	e := newSubsTestServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/channel-9", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	data := resp["data"].(map[string]any)
	if data["subscribed"] != true {
		t.Fatalf("expected subscribed=true: %v", resp)
	}
}

func TestSubscriptionHandler_Toggle_SelfSubscribe(t *testing.T) {
	stub := &stubSubscriptionService{
		toggleFn: func(ctx context.Context, subscriberID, channelID string) (*ports.ToggleResult, error) {
			return nil, domain.ErrSelfSubscribe
		},
	}
	e := newSubsTestServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/user-1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubscriptionHandler_Toggle_UnknownChannel(t *testing.T) {
	stub := &stubSubscriptionService{
		toggleFn: func(ctx context.Context, subscriberID, channelID string) (*ports.ToggleResult, error) {
			return nil, domain.ErrChannelNotFound
		},
	}
	e := newSubsTestServer(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions/ghost", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestSubscriptionHandler_Channels(t *testing.T) {
	stub := &stubSubscriptionService{
		channelsFn: func(ctx context.Context, subscriberID string) ([]*domain.SanitizedUser, error) {
			return []*domain.SanitizedUser{{ID: "c1", Username: "bob"}}, nil
		},
	}
	e := newSubsTestServer(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/channels", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	channels, ok := resp["data"].([]any)
	if !ok || len(channels) != 1 {
		t.Fatalf("expected one channel: %v", resp)
	}
}

func TestSubscriptionHandler_ChannelProfile(t *testing.T) {
	stub := &stubSubscriptionService{
		profileFn: func(ctx context.Context, viewerID, username string) (*domain.ChannelProfile, error) {
			if username != "bob" {
				t.Fatalf("unexpected username: %q", username)
			}
			return &domain.ChannelProfile{
				SanitizedUser:   domain.SanitizedUser{ID: "c1", Username: "bob"},
				SubscriberCount: 3,
				IsSubscribed:    true,
			}, nil
		},
	}
	e := newSubsTestServer(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/channel/bob", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	resp := decodeEnvelope(t, rec)
	data := resp["data"].(map[string]any)
	if data["subscriber_count"] != float64(3) || data["is_subscribed"] != true {
		t.Fatalf("unexpected profile: %v", data)
	}
}
