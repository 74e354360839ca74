// Package storage provides durable string-keyed, string-valued storage
// for the small amount of state climbd keeps on the device.
package storage

import "context"

// Storage is a key-value store. A missing key is reported with ok == false
// and a nil error.
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}
