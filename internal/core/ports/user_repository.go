package ports

import (
	"context"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

// UserRepository defines the persistence interface for user accounts.
//
// SetRefreshToken and UpdatePassword are targeted field updates: token
// rotation in particular must never be blocked by validation of unrelated
// fields on the document.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByIdentity(ctx context.Context, identity string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	SetRefreshToken(ctx context.Context, userID, token string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateProfile(ctx context.Context, userID, fullName, email string) (*domain.User, error)
	SetAvatar(ctx context.Context, userID, url string) (*domain.User, error)
	SetCoverImage(ctx context.Context, userID, url string) (*domain.User, error)
}
