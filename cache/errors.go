package cache

import "errors"

// ErrRedisNotAvailable Redis不可用错误
var ErrRedisNotAvailable = errors.New("Redis不可用")
