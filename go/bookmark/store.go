package bookmark

import (
	"context"
	"fmt"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// Store supplies raw bookmark strings by key. Implementations decide
// where the stream positions actually live.
type Store interface {
	Fetch(ctx context.Context, key string) (string, error)
}

// EtcdStore reads bookmark strings from Etcd keys.
type EtcdStore struct {
	Client *clientv3.Client
}

// Fetch returns the value at |key|, or an empty string (no filter)
// when the key is absent.
func (s EtcdStore) Fetch(ctx context.Context, key string) (string, error) {
	var resp, err = s.Client.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("fetching bookmark %q: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return "", nil
	}
	return string(resp.Kvs[0].Value), nil
}

// FetchParsed fetches and parses the bookmark at |key|. A store error
// is returned as-is; parse failures downgrade to "no filter" inside
// Parse.
func FetchParsed(ctx context.Context, store Store, key string) (Bookmark, error) {
	if store == nil || key == "" {
		return Bookmark{}, nil
	}
	var raw, err = store.Fetch(ctx, key)
	if err != nil {
		return Bookmark{}, err
	}
	var t, ok = Parse(raw)
	return Bookmark{Time: t, Valid: ok}, nil
}
