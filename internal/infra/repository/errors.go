package repository

import "errors"

var (
	ErrRedisConnection   = errors.New("redis connection error")
	ErrInvalidItemData   = errors.New("invalid schedule item data")
	ErrConcurrentUpdate  = errors.New("schedule item changed concurrently, retries exhausted")
	ErrMissingIdentifier = errors.New("schedule item id is required")
)
