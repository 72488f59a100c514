package material

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MetalBlockchain/metalgo/cache"
	"github.com/cenkalti/backoff/v4"

	"github.com/MetalBlockchain/accountlib/chain/coins"
)

var (
	_ Provider = (*StaticProvider)(nil)
	_ Provider = (*CachedProvider)(nil)
	_ Provider = (*RetryingProvider)(nil)

	ErrNotAccountChain = errors.New("coin is not an account chain")
)

// StaticProvider serves a fixed set of materials keyed by coin name.
type StaticProvider struct {
	materials map[string]Material
}

func NewStaticProvider(materials map[string]Material) *StaticProvider {
	m := make(map[string]Material, len(materials))
	for name, material := range materials {
		m[name] = material
	}
	return &StaticProvider{materials: m}
}

func (s *StaticProvider) Get(ctx context.Context, coin coins.Coin) (*Material, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if coin.Model != coins.Account {
		return nil, fmt.Errorf("%w: %s", ErrNotAccountChain, coin)
	}
	material, ok := s.materials[coin.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingMaterial, coin)
	}
	return &material, nil
}

// CachedProvider memoizes the material returned by an underlying provider.
type CachedProvider struct {
	provider Provider
	cache    *cache.LRU[string, *Material]
}

func NewCachedProvider(provider Provider, size int) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    &cache.LRU[string, *Material]{Size: size},
	}
}

func (c *CachedProvider) Get(ctx context.Context, coin coins.Coin) (*Material, error) {
	if material, ok := c.cache.Get(coin.Name); ok {
		return material.Copy(), nil
	}
	material, err := c.provider.Get(ctx, coin)
	if err != nil {
		return nil, err
	}
	c.cache.Put(coin.Name, material.Copy())
	return material, nil
}

// Flush drops every cached entry, for instance after a runtime upgrade.
func (c *CachedProvider) Flush() {
	c.cache.Flush()
}

// RetryingProvider retries transient failures of an underlying provider with
// exponential backoff. Missing material and unsupported coins are not retried.
type RetryingProvider struct {
	provider   Provider
	maxRetries uint64
	initial    time.Duration
}

func NewRetryingProvider(provider Provider, maxRetries uint64, initial time.Duration) *RetryingProvider {
	return &RetryingProvider{
		provider:   provider,
		maxRetries: maxRetries,
		initial:    initial,
	}
}

func (r *RetryingProvider) Get(ctx context.Context, coin coins.Coin) (*Material, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = r.initial

	var material *Material
	err := backoff.Retry(func() error {
		m, err := r.provider.Get(ctx, coin)
		switch {
		case errors.Is(err, ErrMissingMaterial), errors.Is(err, ErrNotAccountChain),
			errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return backoff.Permanent(err)
		case err != nil:
			return err
		}
		material = m
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(policy, r.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return material, nil
}
