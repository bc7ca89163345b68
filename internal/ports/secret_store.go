package ports

import "context"

// SecretStore holds opaque secret material, here the persisted session
// token. Keys use "scheme://path" form.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
