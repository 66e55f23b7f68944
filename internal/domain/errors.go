package domain

import "errors"

// Shard-level operation failures. The router swallows these per candidate;
// callers hitting a shard directly see them as-is.
var (
	ErrNotInitialized = errors.New("shard not initialized")
	ErrUnknownAsset   = errors.New("asset does not belong to shard pair")
)
