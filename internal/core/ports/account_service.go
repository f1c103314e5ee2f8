package ports

import (
	"context"

	"github.com/vidstream/accounts-api/internal/core/domain"
)

// RegisterInput carries the multipart registration form. Avatar is mandatory;
// CoverImage may be nil.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *FileUpload
	CoverImage *FileUpload
}

// LoginInput identifies a user by username or email.
type LoginInput struct {
	Identity string
	Password string
}

// LoginOutput is returned on successful login.
type LoginOutput struct {
	User   *domain.SanitizedUser `json:"user"`
	Tokens TokenPair             `json:"tokens"`
}

// AccountService orchestrates the session lifecycle and profile updates.
type AccountService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.SanitizedUser, error)
	Login(ctx context.Context, in LoginInput) (*LoginOutput, error)
	Logout(ctx context.Context, userID string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*domain.SanitizedUser, error)
	UpdateProfile(ctx context.Context, userID, fullName, email string) (*domain.SanitizedUser, error)
	UpdateAvatar(ctx context.Context, userID string, file FileUpload) (*domain.SanitizedUser, error)
	UpdateCoverImage(ctx context.Context, userID string, file FileUpload) (*domain.SanitizedUser, error)
}
