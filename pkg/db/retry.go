package db

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/profitlens/profitlens-backend/pkg/config"
	pkgerrors "github.com/profitlens/profitlens-backend/pkg/errors"
	"github.com/profitlens/profitlens-backend/pkg/logger"
	"gorm.io/gorm"
)

// WithAcquireRetry pings the pool before running fn, retrying the acquisition
// with exponential backoff. Only the acquisition is retried; fn runs at most
// once so non-idempotent work stays safe to wrap.
func (c *Client) WithAcquireRetry(ctx context.Context, cfg config.DBConfig, logg *logger.Logger, fn func(conn *gorm.DB) error) error {
	attempts := cfg.AcquireRetries
	if attempts <= 0 {
		attempts = 3
	}
	base := cfg.AcquireBackoff
	if base <= 0 {
		base = time.Second
	}

	backoff := retry.WithMaxRetries(uint64(attempts-1), retry.NewExponential(base))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if pingErr := c.Ping(ctx); pingErr != nil {
			if logg != nil {
				lctx := logg.WithFields(ctx, map[string]any{"attempt": attempt, "error": pingErr.Error()})
				logg.Warn(lctx, "db acquire failed, backing off")
			}
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable")
	}

	return fn(c.conn.WithContext(ctx))
}
