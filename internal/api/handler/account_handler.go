package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vidstream/accounts-api/internal/api/metrics"
	"github.com/vidstream/accounts-api/internal/core/domain"
	"github.com/vidstream/accounts-api/internal/core/ports"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// AccountHandler handles HTTP requests for the account/session endpoints.
type AccountHandler struct {
	service    ports.AccountService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAccountHandler(service ports.AccountService, accessTTL, refreshTTL time.Duration) *AccountHandler {
	return &AccountHandler{service: service, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// --- Request / Response types ---

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

type updateAccountRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
}

// Register creates a new account from a multipart form.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Param        username   formData  string  true   "Username"
// @Param        email      formData  string  true   "Email"
// @Param        fullName   formData  string  true   "Full name"
// @Param        password   formData  string  true   "Password"
// @Param        avatar     formData  file    true   "Avatar image"
// @Param        coverImage formData  file    false  "Cover image"
// @Success      201  {object}  envelope
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /api/v1/users/register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	in := ports.RegisterInput{
		Username: c.FormValue("username"),
		Email:    c.FormValue("email"),
		FullName: c.FormValue("fullName"),
		Password: c.FormValue("password"),
	}

	avatar, closeAvatar, err := formUpload(c, "avatar")
	if err == nil {
		defer closeAvatar()
		in.Avatar = avatar
	}

	cover, closeCover, err := formUpload(c, "coverImage")
	if err == nil {
		defer closeCover()
		in.CoverImage = cover
	}

	user, err := h.service.Register(c.Request().Context(), in)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerResult(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("created").Inc()
	return respond(c, http.StatusCreated, user, "user registered successfully")
}

// Login verifies credentials and issues the token pair, both in the body and
// as scoped cookies.
//
// @Summary      Login with username or email
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  envelope
// @Failure      400   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Failure      404   {object}  map[string]any
// @Router       /api/v1/users/login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity := req.Username
	if identity == "" {
		identity = req.Email
	}

	out, err := h.service.Login(c.Request().Context(), ports.LoginInput{
		Identity: identity,
		Password: req.Password,
	})
	if err != nil {
		metrics.LoginsTotal.WithLabelValues(loginResult(err)).Inc()
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.setAuthCookies(c, out.Tokens)

	return respond(c, http.StatusOK, map[string]any{
		"user":         out.User,
		"accessToken":  out.Tokens.AccessToken,
		"refreshToken": out.Tokens.RefreshToken,
	}, "login successful")
}

// Logout clears the stored refresh token and both cookies.
//
// @Summary      Logout the current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Router       /api/v1/users/logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.service.Logout(c.Request().Context(), userID); err != nil {
		return err
	}

	h.clearAuthCookies(c)
	return respond(c, http.StatusOK, nil, "user logged out")
}

// Refresh rotates the token pair. The refresh token is read from the cookie,
// falling back to the request body.
//
// @Summary      Rotate the refresh token
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  false  "Refresh token (when no cookie)"
// @Success      200   {object}  envelope
// @Failure      401   {object}  map[string]any
// @Router       /api/v1/users/refresh-token [post]
func (h *AccountHandler) Refresh(c echo.Context) error {
	token := ""
	if cookie, err := c.Cookie(refreshCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req refreshRequest
		if err := c.Bind(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		metrics.TokenRefreshesTotal.WithLabelValues("rejected").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token")
	}

	pair, err := h.service.Refresh(c.Request().Context(), token)
	if err != nil {
		metrics.TokenRefreshesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	metrics.TokenRefreshesTotal.WithLabelValues("success").Inc()
	h.setAuthCookies(c, *pair)

	return respond(c, http.StatusOK, pair, "token refreshed")
}

// ChangePassword verifies the old password and stores a new hash.
//
// @Summary      Change the current user's password
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Old and new password"
// @Success      200   {object}  envelope
// @Failure      400   {object}  map[string]any
// @Router       /api/v1/users/change-password [post]
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ChangePassword(c.Request().Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return respond(c, http.StatusOK, nil, "password changed successfully")
}

// CurrentUser returns the sanitized record of the authenticated caller.
//
// @Summary      Get the current user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  envelope
// @Router       /api/v1/users/current-user [get]
func (h *AccountHandler) CurrentUser(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.CurrentUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user, "current user fetched")
}

// UpdateAccount updates full name and email.
//
// @Summary      Update account details
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateAccountRequest  true  "New profile fields"
// @Success      200   {object}  envelope
// @Failure      400   {object}  map[string]any
// @Router       /api/v1/users/update-account [patch]
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), userID, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, user, "account details updated")
}

// UpdateAvatar replaces the caller's avatar after a successful upload.
//
// @Summary      Update avatar
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        avatar  formData  file  true  "Avatar image"
// @Success      200     {object}  envelope
// @Failure      400     {object}  map[string]any
// @Router       /api/v1/users/avatar [patch]
func (h *AccountHandler) UpdateAvatar(c echo.Context) error {
	return h.updateImage(c, "avatar", h.service.UpdateAvatar)
}

// UpdateCoverImage replaces the caller's cover image after a successful upload.
//
// @Summary      Update cover image
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        coverImage  formData  file  true  "Cover image"
// @Success      200         {object}  envelope
// @Failure      400         {object}  map[string]any
// @Router       /api/v1/users/cover-image [patch]
func (h *AccountHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateImage(c, "coverImage", h.service.UpdateCoverImage)
}

type imageUpdateFn func(ctx context.Context, userID string, file ports.FileUpload) (*domain.SanitizedUser, error)

func (h *AccountHandler) updateImage(c echo.Context, field string, update imageUpdateFn) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	file, closeFile, err := formUpload(c, field)
	if err != nil {
		metrics.MediaUploadsTotal.WithLabelValues(uploadKind(field), "failure").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, field+" file is required")
	}
	defer closeFile()

	user, err := update(c.Request().Context(), userID, *file)
	if err != nil {
		metrics.MediaUploadsTotal.WithLabelValues(uploadKind(field), "failure").Inc()
		return err
	}

	metrics.MediaUploadsTotal.WithLabelValues(uploadKind(field), "success").Inc()
	return respond(c, http.StatusOK, user, field+" updated")
}

// --- helpers ---

// formUpload opens a multipart file field and wraps it as a ports.FileUpload.
// The returned close function must be deferred by the caller.
func formUpload(c echo.Context, field string) (*ports.FileUpload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, nil, err
	}

	f, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	return &ports.FileUpload{
		Reader:      f,
		Filename:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, func() { _ = f.Close() }, nil
}

func (h *AccountHandler) setAuthCookies(c echo.Context, pair ports.TokenPair) {
	c.SetCookie(authCookie(accessCookie, pair.AccessToken, h.accessTTL))
	c.SetCookie(authCookie(refreshCookie, pair.RefreshToken, h.refreshTTL))
}

func (h *AccountHandler) clearAuthCookies(c echo.Context) {
	c.SetCookie(expiredCookie(accessCookie))
	c.SetCookie(expiredCookie(refreshCookie))
}

func authCookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func expiredCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func registerResult(err error) string {
	if err == domain.ErrUserExists {
		return "conflict"
	}
	return "error"
}

func loginResult(err error) string {
	if err == domain.ErrTooManyAttempts {
		return "throttled"
	}
	return "failure"
}

func uploadKind(field string) string {
	if field == "coverImage" {
		return "cover"
	}
	return "avatar"
}
