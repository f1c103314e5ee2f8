package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

// AccountService orchestrates the session lifecycle: registration, login,
// logout, refresh-token rotation, password change, and profile updates.
type AccountService struct {
	users    ports.UserRepository
	tokens   ports.TokenService
	uploader ports.MediaUploader
	limiter  ports.LoginLimiter
	log      zerolog.Logger
}

func NewAccountService(users ports.UserRepository, tokens ports.TokenService, uploader ports.MediaUploader, limiter ports.LoginLimiter, log zerolog.Logger) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		uploader: uploader,
		limiter:  limiter,
		log:      log,
	}
}

func (s *AccountService) Register(ctx context.Context, in ports.RegisterInput) (*domain.SanitizedUser, error) {
	username := domain.NormalizeIdentity(in.Username)
	email := domain.NormalizeIdentity(in.Email)
	fullName := strings.TrimSpace(in.FullName)

	if username == "" || email == "" || fullName == "" || strings.TrimSpace(in.Password) == "" {
		return nil, domain.ErrValidation
	}
	if in.Avatar == nil {
		return nil, domain.ErrValidation
	}

	// Uniqueness check up front so a duplicate identity fails before any
	// upload happens. The unique indexes still back this up at insert time.
	for _, identity := range []string{username, email} {
		if _, err := s.users.FindByIdentity(ctx, identity); err == nil {
			return nil, domain.ErrUserExists
		} else if err != domain.ErrUserNotFound {
			return nil, err
		}
	}

	avatarURL, err := s.uploader.Upload(ctx, *in.Avatar)
	if err != nil {
		s.log.Warn().Err(err).Str("username", username).Msg("avatar upload failed")
		return nil, domain.ErrUploadFailed
	}

	// Cover image is best-effort: absence or a failed upload stores "".
	coverURL := ""
	if in.CoverImage != nil {
		coverURL, err = s.uploader.Upload(ctx, *in.CoverImage)
		if err != nil {
			s.log.Warn().Err(err).Str("username", username).Msg("cover image upload failed, continuing without")
			coverURL = ""
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Create(ctx, &domain.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		PasswordHash: string(hash),
		Avatar:       avatarURL,
		CoverImage:   coverURL,
	})
	if err != nil {
		return nil, err
	}
	return created.Sanitized(), nil
}

func (s *AccountService) Login(ctx context.Context, in ports.LoginInput) (*ports.LoginOutput, error) {
	identity := domain.NormalizeIdentity(in.Identity)
	if identity == "" || in.Password == "" {
		return nil, domain.ErrValidation
	}

	allowed, err := s.limiter.Allow(ctx, identity)
	if err != nil {
		// A limiter outage must not lock everyone out.
		s.log.Warn().Err(err).Msg("login limiter unavailable")
	} else if !allowed {
		return nil, domain.ErrTooManyAttempts
	}

	user, err := s.users.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		if err := s.limiter.RecordFailure(ctx, identity); err != nil {
			s.log.Warn().Err(err).Msg("failed to record login attempt")
		}
		return nil, domain.ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Reset(ctx, identity); err != nil {
		s.log.Warn().Err(err).Msg("failed to reset login attempts")
	}

	return &ports.LoginOutput{User: user.Sanitized(), Tokens: *pair}, nil
}

func (s *AccountService) Logout(ctx context.Context, userID string) error {
	return s.users.SetRefreshToken(ctx, userID, "")
}

// Refresh rotates the token pair. Every failure along the way is collapsed
// into domain.ErrRefreshReused so the caller learns nothing about which check
// failed; the real cause is logged at debug level.
func (s *AccountService) Refresh(ctx context.Context, refreshToken string) (*ports.TokenPair, error) {
	fail := func(cause error) (*ports.TokenPair, error) {
		s.log.Debug().Err(cause).Msg("refresh rejected")
		return nil, domain.ErrRefreshReused
	}

	if refreshToken == "" {
		return fail(domain.ErrTokenInvalid)
	}

	userID, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return fail(err)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return fail(err)
	}

	// Exact match against the stored value: a signed, unexpired token that
	// has been rotated out or cleared by logout is still rejected.
	if user.RefreshToken == "" || user.RefreshToken != refreshToken {
		return fail(domain.ErrRefreshReused)
	}

	pair, err := s.issuePair(ctx, user.ID)
	if err != nil {
		return fail(err)
	}
	return pair, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return domain.ErrValidation
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)) != nil {
		return domain.ErrPasswordMismatch
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, string(hash))
}

func (s *AccountService) CurrentUser(ctx context.Context, userID string) (*domain.SanitizedUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Sanitized(), nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID, fullName, email string) (*domain.SanitizedUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = domain.NormalizeIdentity(email)
	if fullName == "" || email == "" {
		return nil, domain.ErrValidation
	}

	updated, err := s.users.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID string, file ports.FileUpload) (*domain.SanitizedUser, error) {
	url, err := s.uploader.Upload(ctx, file)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("avatar upload failed")
		return nil, domain.ErrUploadFailed
	}

	updated, err := s.users.SetAvatar(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, userID string, file ports.FileUpload) (*domain.SanitizedUser, error) {
	url, err := s.uploader.Upload(ctx, file)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("cover image upload failed")
		return nil, domain.ErrUploadFailed
	}

	updated, err := s.users.SetCoverImage(ctx, userID, url)
	if err != nil {
		return nil, err
	}
	return updated.Sanitized(), nil
}

func (s *AccountService) issuePair(ctx context.Context, userID string) (*ports.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(userID)
	if err != nil {
		return nil, err
	}

	// Persisting the new refresh token is what rotates the previous one out.
	if err := s.users.SetRefreshToken(ctx, userID, refresh); err != nil {
		return nil, err
	}
	return &ports.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
