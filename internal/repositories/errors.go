package repositories

import "errors"

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrFollowNotFound  = errors.New("follow relationship not found")
	ErrDuplicateUser   = errors.New("username or email already taken")
)
