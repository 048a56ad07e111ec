package service

import (
	"github.com/hyeongseol/academy-api/pkg/config"
	"github.com/hyeongseol/academy-api/pkg/retry"
)

// NewStorePolicy builds the retry policy shared by registry services. Every
// repository call goes through it so rate-limited or transient store
// failures are retried with exponential backoff instead of surfacing
// immediately. Each retry is counted in metrics.
func NewStorePolicy(cfg config.StoreConfig, metrics *MetricsService) retry.Policy {
	p := retry.DefaultPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.BackoffBase > 1 {
		p.Base = cfg.BackoffBase
	}
	if cfg.BackoffExtra > 0 {
		p.Extra = cfg.BackoffExtra
	}
	p.OnRetry = func(attempt int, err error) {
		metrics.RecordStoreRetry()
	}
	return p
}
