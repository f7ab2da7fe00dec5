// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package region

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// Repository lists persisted region definitions in declaration order.
type Repository interface {
	List(ctx context.Context) ([]Region, error)
}

// MutableRepository is a Repository that administrative tooling can edit.
type MutableRepository interface {
	Repository
	Save(ctx context.Context, r Region) error
	Delete(ctx context.Context, id string) error
}

// Default load retry configuration.
const (
	defaultLoadAttempts = 5
	defaultLoadBackoff  = 200 * time.Millisecond
	defaultLoadMaxDelay = 5 * time.Second
)

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	attempts uint64
	backoff  time.Duration
	maxDelay time.Duration
}

// WithRetry sets how many times Load retries a failing repository and the
// initial backoff between attempts.
func WithRetry(attempts uint64, backoff time.Duration) LoadOption {
	return func(c *loadConfig) {
		c.attempts = attempts
		c.backoff = backoff
	}
}

// Load reads every region from repo and replaces the content of ix with them.
// Repository errors are retried with exponential backoff; validation errors
// are not. The index is untouched unless the whole set is valid.
func Load(ctx context.Context, repo Repository, ix *Index, opts ...LoadOption) error {
	cfg := loadConfig{
		attempts: defaultLoadAttempts,
		backoff:  defaultLoadBackoff,
		maxDelay: defaultLoadMaxDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	backoff := retry.NewExponential(cfg.backoff)
	backoff = retry.WithCappedDuration(cfg.maxDelay, backoff)
	backoff = retry.WithMaxRetries(cfg.attempts, backoff)

	var regions []Region
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		listed, err := repo.List(ctx)
		if err != nil {
			loadAttempts.WithLabelValues("error").Inc()
			slog.WarnContext(ctx, "region repository list failed", "error", err)
			return retry.RetryableError(err)
		}
		regions = listed
		return nil
	})
	if err != nil {
		return oops.In("region").Code("REGION_STORE_UNAVAILABLE").With("operation", "list regions").Wrap(err)
	}

	if err := ix.Replace(regions); err != nil {
		loadAttempts.WithLabelValues("invalid").Inc()
		return err
	}

	loadAttempts.WithLabelValues("ok").Inc()
	slog.InfoContext(ctx, "regions loaded", "count", len(regions))
	return nil
}
