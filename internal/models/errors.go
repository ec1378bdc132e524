package models

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmptyMessage = errors.New("message must contain text or an image")
)
