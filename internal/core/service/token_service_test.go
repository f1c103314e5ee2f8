package service

import (
	"testing"
	"time"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	access, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}
	refresh, err := svc.IssueRefreshToken("user-1")
	if err != nil {
		t.Fatalf("issue refresh token: %v", err)
	}
	if access == refresh {
		t.Fatalf("access and refresh tokens must differ")
	}

	if got, err := svc.VerifyAccessToken(access); err != nil || got != "user-1" {
		t.Fatalf("verify access: got %q, err %v", got, err)
	}
	if got, err := svc.VerifyRefreshToken(refresh); err != nil || got != "user-1" {
		t.Fatalf("verify refresh: got %q, err %v", got, err)
	}
}

func TestTokenService_SecretsAreDistinct(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	access, _ := svc.IssueAccessToken("user-1")
	if _, err := svc.VerifyRefreshToken(access); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for access token on refresh path, got %v", err)
	}

	refresh, _ := svc.IssueRefreshToken("user-1")
	if _, err := svc.VerifyAccessToken(refresh); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for refresh token on access path, got %v", err)
	}
}

func TestTokenService_Expired(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Millisecond, 24*time.Hour)

	access, err := svc.IssueAccessToken("user-1")
	if err != nil {
		t.Fatalf("issue access token: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := svc.VerifyAccessToken(access); err != domain.ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_Malformed(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.VerifyAccessToken(token); err != domain.ErrTokenInvalid {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestTokenService_TamperedSignature(t *testing.T) {
	svc := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	other := NewTokenService("wrong-secret", "refresh-secret", time.Hour, 24*time.Hour)

	access, _ := other.IssueAccessToken("user-1")
	if _, err := svc.VerifyAccessToken(access); err != domain.ErrTokenInvalid {
		t.Fatalf("expected ErrTokenInvalid for foreign signature, got %v", err)
	}
}
