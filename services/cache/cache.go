package cache

import (
	"fmt"
	"time"
)

// CacheService defines the contract for the short-lived cache used to
// keep hostile sources on cooldown between runs
type CacheService interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, expiration time.Duration) error
	Delete(key string) error
}

// SourceCooldown tracks per-platform cooldown state. A platform that
// served a bot-block page is cooled down so back-to-back triggers do
// not keep hammering it.
type SourceCooldown struct {
	svc CacheService
}

// NewSourceCooldown creates a cooldown tracker over a cache service
func NewSourceCooldown(svc CacheService) *SourceCooldown {
	return &SourceCooldown{svc: svc}
}

func cooldownKey(platform string) string {
	return fmt.Sprintf("cooldown:%s", platform)
}

// Start puts a platform on cooldown for the given duration
func (c *SourceCooldown) Start(platform string, d time.Duration) error {
	if c == nil || c.svc == nil {
		return nil
	}
	return c.svc.Set(cooldownKey(platform), []byte(fmt.Sprintf("%d", int(d.Seconds()))), d)
}

// Active reports whether a platform is currently on cooldown. A cache
// miss or a cache outage both read as "not on cooldown"; the cooldown
// is best-effort protection, never a gate on correctness.
func (c *SourceCooldown) Active(platform string) bool {
	if c == nil || c.svc == nil {
		return false
	}
	_, err := c.svc.Get(cooldownKey(platform))
	return err == nil
}

// Clear removes a platform's cooldown
func (c *SourceCooldown) Clear(platform string) error {
	if c == nil || c.svc == nil {
		return nil
	}
	return c.svc.Delete(cooldownKey(platform))
}
