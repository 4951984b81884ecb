package services

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"io"
	mrand "math/rand"
	"time"

	"shiv-telegram/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Registrar announces a freshly generated identity token to the backend.
type Registrar interface {
	RegisterUser(ctx context.Context, uid string) error
}

// Identity hands out the anonymous per-user token that stands in for an
// account. The token is generated at most once per storage scope and reused
// on every later lookup.
type Identity struct {
	store     storage.Store
	registrar Registrar
	rand      io.Reader
	logger    *zap.Logger
}

func NewIdentity(st storage.Store, reg Registrar, logger *zap.Logger) *Identity {
	return &Identity{store: st, registrar: reg, rand: crand.Reader, logger: logger}
}

// Ensure returns the stored token, generating, persisting and registering a
// new one on first use. Registration runs in the background; its failure is
// logged and never surfaced.
func (i *Identity) Ensure(ctx context.Context, userID int64) (string, error) {
	raw, ok, err := i.store.Get(ctx, userID, storage.KeyUser)
	if err != nil {
		return "", fmt.Errorf("load identity: %w", err)
	}
	if ok && len(raw) > 0 {
		return string(raw), nil
	}

	token := i.newToken()
	if err := i.store.Set(ctx, userID, storage.KeyUser, []byte(token)); err != nil {
		return "", fmt.Errorf("persist identity: %w", err)
	}

	go func() {
		regCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := i.registrar.RegisterUser(regCtx, token); err != nil {
			i.logger.Warn("identity registration failed", zap.String("uid", token), zap.Error(err))
		}
	}()

	return token, nil
}

// Lookup returns the stored token without generating one. Used by the
// guarded history fetch.
func (i *Identity) Lookup(ctx context.Context, userID int64) (string, bool, error) {
	raw, ok, err := i.store.Get(ctx, userID, storage.KeyUser)
	if err != nil {
		return "", false, fmt.Errorf("load identity: %w", err)
	}
	if !ok || len(raw) == 0 {
		return "", false, nil
	}
	return string(raw), true, nil
}

// newToken prefers the secure random source and falls back to math/rand
// when it is unavailable, always producing a UUID-shaped string.
func (i *Identity) newToken() string {
	if u, err := uuid.NewRandomFromReader(i.rand); err == nil {
		return u.String()
	}
	i.logger.Warn("secure random source unavailable, using pseudo-random fallback")
	fallback := mrand.New(mrand.NewSource(time.Now().UnixNano()))
	u, _ := uuid.NewRandomFromReader(fallback)
	return u.String()
}
