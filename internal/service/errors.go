package service

import "errors"

// Auth flow failures.  Handlers map each of them to a status code; none of
// them carries internal detail.
var (
	ErrInvalidCredentials         = errors.New("invalid credentials")
	ErrRefreshMissing             = errors.New("refresh token missing")
	ErrRefreshInvalid             = errors.New("refresh token invalid")
	ErrRefreshRevoked             = errors.New("refresh token revoked")
	ErrRefreshExpired             = errors.New("refresh token expired")
	ErrUserInactive               = errors.New("user inactive")
	ErrInvalidOrExpiredResetToken = errors.New("invalid or expired reset token")
	ErrWrongPassword              = errors.New("old password is incorrect")
	ErrUserNotFound               = errors.New("user not found")
)
