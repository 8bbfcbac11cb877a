package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nusantara-Apps/rutina/internal/http/middleware"
)

var Rdb *redis.Client

func Init(address, username, password string) {
	Rdb = redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

const deniedTokenPrefix = "denied_token:"

// Denylist is the redis-backed token denylist, shared across instances.
type Denylist struct {
	client *redis.Client
}

var _ middleware.TokenDenylist = (*Denylist)(nil)

func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

// Deny records a revoked token id until the token's natural expiry, after
// which the key may lapse since the token is dead anyway.
func (d *Denylist) Deny(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, deniedTokenPrefix+tokenID, 1, ttl).Err(); err != nil {
		log.Error().Err(err).Str("token_id", tokenID).Msg("failed to deny token")
		return err
	}
	return nil
}

// IsDenied reports whether a token id has been revoked. Lookup errors fail
// closed so a dead redis cannot resurrect revoked tokens.
func (d *Denylist) IsDenied(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, deniedTokenPrefix+tokenID).Result()
	if err != nil {
		log.Error().Err(err).Str("token_id", tokenID).Msg("failed to check denied token")
		return true, err
	}
	return n > 0, nil
}
