// Package kv provides the durable string key-value storage the session
// store persists to.
package kv

import "context"

// Store is a string key-value store. Get reports absent keys with ok=false
// and a nil error.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}
