// Package storage is the server-side stand-in for browser local storage: a
// small key/value space owned by each device.
package storage

import (
	"context"
	"errors"
)

// Keys used by the storefront.
const (
	KeyCart = "cart"
	KeyUser = "user"
)

var ErrNotFound = errors.New("storage: key not found")

// Local is device-scoped key/value storage. Writes are last-write-wins.
type Local interface {
	Get(ctx context.Context, device, key string) ([]byte, error)
	Set(ctx context.Context, device, key string, value []byte) error
	Delete(ctx context.Context, device, key string) error
}
