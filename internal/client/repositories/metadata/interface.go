// Package metadata is a small key/value table for client state that is not a
// story: the session token, the signed-in user and the push subscription.
package metadata

import (
	"context"
)

type Repository interface {
	// Get reports found=false for an absent key.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// SetMany writes all pairs; run it inside dbx.WithTx for atomicity.
	SetMany(ctx context.Context, pairs map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string][]byte, error)
}
