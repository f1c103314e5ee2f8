package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

// --- stubs ---

type stubUserRepo struct {
	users  map[string]*domain.User // keyed by id
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	copy := cloneUser(user)
	copy.ID = fmt.Sprintf("user-%d", r.nextID)
	copy.CreatedAt = time.Now().UTC()
	copy.UpdatedAt = copy.CreatedAt
	r.users[copy.ID] = copy
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByIdentity(_ context.Context, identity string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == identity || u.Email == identity {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) SetRefreshToken(_ context.Context, userID, token string) error {
	if u, ok := r.users[userID]; ok {
		u.RefreshToken = token
		return nil
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, userID, passwordHash string) error {
	if u, ok := r.users[userID]; ok {
		u.PasswordHash = passwordHash
		return nil
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, userID, fullName, email string) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.FullName = fullName
	u.Email = email
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetAvatar(_ context.Context, userID, url string) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.Avatar = url
	return cloneUser(u), nil
}

func (r *stubUserRepo) SetCoverImage(_ context.Context, userID, url string) (*domain.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.CoverImage = url
	return cloneUser(u), nil
}

type stubUploader struct {
	failFor map[string]bool // filenames that fail
	uploads int
}

func (s *stubUploader) Upload(_ context.Context, file ports.FileUpload) (string, error) {
	if s.failFor[file.Filename] {
		return "", errors.New("upstream unavailable")
	}
	s.uploads++
	return "https://cdn.example.com/" + file.Filename, nil
}

type stubLimiter struct {
	blocked  map[string]bool
	failures map[string]int
}

func newStubLimiter() *stubLimiter {
	return &stubLimiter{blocked: make(map[string]bool), failures: make(map[string]int)}
}

func (s *stubLimiter) Allow(_ context.Context, identity string) (bool, error) {
	return !s.blocked[identity], nil
}

func (s *stubLimiter) RecordFailure(_ context.Context, identity string) error {
	s.failures[identity]++
	return nil
}

func (s *stubLimiter) Reset(_ context.Context, identity string) error {
	delete(s.failures, identity)
	return nil
}

// --- helpers ---

func upload(name string) *ports.FileUpload {
	return &ports.FileUpload{Reader: strings.NewReader("image-bytes"), Filename: name, Size: 11, ContentType: "image/png"}
}

func newTestAccountService(repo *stubUserRepo, up *stubUploader, limiter *stubLimiter) *AccountService {
	tokens := NewTokenService("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	return NewAccountService(repo, tokens, up, limiter, zerolog.Nop())
}

func registerAlice(t *testing.T, svc *AccountService) *domain.SanitizedUser {
	t.Helper()
	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "Alice",
		Email:    "a@x.com",
		FullName: "Alice Example",
		Password: "p1",
		Avatar:   upload("avatar.png"),
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	return user
}

// --- tests ---

func TestAccountService_Register_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAccountService(repo, &stubUploader{}, newStubLimiter())

	user := registerAlice(t, svc)

	if user.Username != "alice" {
		t.Fatalf("expected lowercased username, got %q", user.Username)
	}
	if user.Avatar != "https://cdn.example.com/avatar.png" {
		t.Fatalf("unexpected avatar url: %q", user.Avatar)
	}
	if user.CoverImage != "" {
		t.Fatalf("expected empty cover image, got %q", user.CoverImage)
	}

	stored, _ := repo.FindByID(context.Background(), user.ID)
	if stored.PasswordHash == "p1" || stored.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("p1")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAccountService_Register_Validation(t *testing.T) {
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{}, newStubLimiter())

	cases := []ports.RegisterInput{
		{Email: "a@x.com", FullName: "A", Password: "p", Avatar: upload("a.png")},
		{Username: "a", FullName: "A", Password: "p", Avatar: upload("a.png")},
		{Username: "a", Email: "a@x.com", Password: "p", Avatar: upload("a.png")},
		{Username: "a", Email: "a@x.com", FullName: "  ", Password: "p", Avatar: upload("a.png")},
		{Username: "a", Email: "a@x.com", FullName: "A", Avatar: upload("a.png")},
		{Username: "a", Email: "a@x.com", FullName: "A", Password: "p"}, // no avatar
	}
	for i, in := range cases {
		if _, err := svc.Register(context.Background(), in); err != domain.ErrValidation {
			t.Fatalf("case %d: expected ErrValidation, got %v", i, err)
		}
	}
}

func TestAccountService_Register_DuplicateCaseInsensitive(t *testing.T) {
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{}, newStubLimiter())
	registerAlice(t, svc)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "ALICE",
		Email:    "other@x.com",
		FullName: "Other",
		Password: "p2",
		Avatar:   upload("b.png"),
	})
	if err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}

	_, err = svc.Register(context.Background(), ports.RegisterInput{
		Username: "bob",
		Email:    "A@X.COM",
		FullName: "Bob",
		Password: "p2",
		Avatar:   upload("b.png"),
	})
	if err != domain.ErrUserExists {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestAccountService_Register_AvatarUploadFailure(t *testing.T) {
	up := &stubUploader{failFor: map[string]bool{"avatar.png": true}}
	svc := newTestAccountService(newStubUserRepo(), up, newStubLimiter())

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Username: "alice",
		Email:    "a@x.com",
		FullName: "Alice",
		Password: "p1",
		Avatar:   upload("avatar.png"),
	})
	if err != domain.ErrUploadFailed {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
}

func TestAccountService_Register_CoverUploadBestEffort(t *testing.T) {
	up := &stubUploader{failFor: map[string]bool{"cover.png": true}}
	svc := newTestAccountService(newStubUserRepo(), up, newStubLimiter())

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Username:   "alice",
		Email:      "a@x.com",
		FullName:   "Alice",
		Password:   "p1",
		Avatar:     upload("avatar.png"),
		CoverImage: upload("cover.png"),
	})
	if err != nil {
		t.Fatalf("register should tolerate cover failure: %v", err)
	}
	if user.CoverImage != "" {
		t.Fatalf("expected empty cover image after failed upload, got %q", user.CoverImage)
	}
}

func TestAccountService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAccountService(repo, &stubUploader{}, newStubLimiter())
	registered := registerAlice(t, svc)

	out, err := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "p1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if out.Tokens.AccessToken == "" || out.Tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", out.Tokens)
	}
	if out.Tokens.AccessToken == out.Tokens.RefreshToken {
		t.Fatalf("tokens must be distinct")
	}
	if out.User.ID != registered.ID {
		t.Fatalf("unexpected user: %+v", out.User)
	}

	stored, _ := repo.FindByID(context.Background(), registered.ID)
	if stored.RefreshToken != out.Tokens.RefreshToken {
		t.Fatalf("stored refresh token must equal the issued one")
	}
}

func TestAccountService_Login_ByEmail(t *testing.T) {
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{}, newStubLimiter())
	registerAlice(t, svc)

	if _, err := svc.Login(context.Background(), ports.LoginInput{Identity: "A@X.com", Password: "p1"}); err != nil {
		t.Fatalf("login by email failed: %v", err)
	}
}

func TestAccountService_Login_Failures(t *testing.T) {
	limiter := newStubLimiter()
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{}, limiter)
	registerAlice(t, svc)

	if _, err := svc.Login(context.Background(), ports.LoginInput{Identity: "", Password: "p1"}); err != domain.ErrValidation {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Login(context.Background(), ports.LoginInput{Identity: "ghost", Password: "p1"}); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "wrong"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if limiter.failures["alice"] != 1 {
		t.Fatalf("expected recorded failure, got %d", limiter.failures["alice"])
	}

	limiter.blocked["alice"] = true
	if _, err := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "p1"}); err != domain.ErrTooManyAttempts {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestAccountService_Refresh_RotatesAndRejectsReuse(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAccountService(repo, &stubUploader{}, newStubLimiter())
	registerAlice(t, svc)

	out, err := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "p1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	first := out.Tokens.RefreshToken

	pair, err := svc.Refresh(context.Background(), first)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if pair.RefreshToken == first {
		t.Fatalf("refresh must rotate the token")
	}

	stored, _ := repo.FindByID(context.Background(), out.User.ID)
	if stored.RefreshToken != pair.RefreshToken {
		t.Fatalf("stored token must be the rotated one")
	}

	// The first token still has a valid signature and expiry, but it has been
	// rotated out; presenting it again must fail.
	if _, err := svc.Refresh(context.Background(), first); err != domain.ErrRefreshReused {
		t.Fatalf("expected ErrRefreshReused for rotated token, got %v", err)
	}
}

func TestAccountService_Refresh_InvalidInputs(t *testing.T) {
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{}, newStubLimiter())

	for _, token := range []string{"", "garbage"} {
		if _, err := svc.Refresh(context.Background(), token); err != domain.ErrRefreshReused {
			t.Fatalf("token %q: expected ErrRefreshReused, got %v", token, err)
		}
	}
}

func TestAccountService_Logout_ClearsRefreshToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAccountService(repo, &stubUploader{}, newStubLimiter())
	registerAlice(t, svc)

	out, _ := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "p1"})

	if err := svc.Logout(context.Background(), out.User.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), out.User.ID)
	if stored.RefreshToken != "" {
		t.Fatalf("refresh token must be cleared on logout, got %q", stored.RefreshToken)
	}

	if _, err := svc.Refresh(context.Background(), out.Tokens.RefreshToken); err != domain.ErrRefreshReused {
		t.Fatalf("expected ErrRefreshReused after logout, got %v", err)
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{}, newStubLimiter())
	user := registerAlice(t, svc)

	if err := svc.ChangePassword(context.Background(), user.ID, "", "new"); err != domain.ErrValidation {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "new"); err != domain.ErrPasswordMismatch {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "p1", "p2"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	if _, err := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "p2"}); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, err := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "p1"}); err != domain.ErrInvalidCredentials {
		t.Fatalf("login with old password must fail, got %v", err)
	}
}

func TestAccountService_UpdateProfile(t *testing.T) {
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{}, newStubLimiter())
	user := registerAlice(t, svc)

	if _, err := svc.UpdateProfile(context.Background(), user.ID, "", "a@x.com"); err != domain.ErrValidation {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	updated, err := svc.UpdateProfile(context.Background(), user.ID, "Alice Updated", "New@X.com")
	if err != nil {
		t.Fatalf("update profile failed: %v", err)
	}
	if updated.FullName != "Alice Updated" || updated.Email != "new@x.com" {
		t.Fatalf("unexpected profile: %+v", updated)
	}
}

func TestAccountService_UpdateAvatar(t *testing.T) {
	svc := newTestAccountService(newStubUserRepo(), &stubUploader{failFor: map[string]bool{"bad.png": true}}, newStubLimiter())
	user := registerAlice(t, svc)

	if _, err := svc.UpdateAvatar(context.Background(), user.ID, *upload("bad.png")); err != domain.ErrUploadFailed {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}

	updated, err := svc.UpdateAvatar(context.Background(), user.ID, *upload("new.png"))
	if err != nil {
		t.Fatalf("update avatar failed: %v", err)
	}
	if updated.Avatar != "https://cdn.example.com/new.png" {
		t.Fatalf("unexpected avatar: %q", updated.Avatar)
	}
}

func TestAccountService_SessionLifecycle(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAccountService(repo, &stubUploader{}, newStubLimiter())

	registerAlice(t, svc)

	out, err := svc.Login(context.Background(), ports.LoginInput{Identity: "alice", Password: "p1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), out.Tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), out.Tokens.RefreshToken); err != domain.ErrRefreshReused {
		t.Fatalf("reused token must be rejected, got %v", err)
	}

	if err := svc.Logout(context.Background(), out.User.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); err != domain.ErrRefreshReused {
		t.Fatalf("refresh after logout must fail, got %v", err)
	}
}
