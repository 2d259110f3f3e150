package cache

import (
	"context"
	"errors"
	"time"
)

// Layered reads through a fast local cache before a shared backend, and
// writes to both. A backend failure never fails a read that the local
// layer can serve.
type Layered struct {
	local   Service
	backend Service
}

func NewLayered(local, backend Service) *Layered {
	return &Layered{local: local, backend: backend}
}

func (l *Layered) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := l.local.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return l.backend.Set(ctx, key, value, expiration)
}

func (l *Layered) Get(ctx context.Context, key string, dest interface{}) error {
	if err := l.local.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return err
	}
	return l.backend.Get(ctx, key, dest)
}

func (l *Layered) Delete(ctx context.Context, keys ...string) error {
	if err := l.local.Delete(ctx, keys...); err != nil {
		return err
	}
	return l.backend.Delete(ctx, keys...)
}

func (l *Layered) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := l.local.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	return l.backend.Exists(ctx, key)
}
