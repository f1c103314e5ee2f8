package domain

import "errors"

var ErrValidation = errors.New("required fields missing or invalid")
var ErrUserExists = errors.New("username or email already exists")
var ErrUserNotFound = errors.New("user not found")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrPasswordMismatch = errors.New("incorrect old password")
var ErrTokenInvalid = errors.New("token invalid")
var ErrTokenExpired = errors.New("token expired")
var ErrRefreshReused = errors.New("refresh token expired or already used")
var ErrUploadFailed = errors.New("file upload failed")
var ErrTooManyAttempts = errors.New("too many login attempts")
var ErrChannelNotFound = errors.New("channel not found")
var ErrSelfSubscribe = errors.New("cannot subscribe to own channel")
