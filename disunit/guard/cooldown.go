package guard

import (
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

type cooldownKey struct {
	unit    string
	invoker snowflake.ID
}

// Cooldowns tracks per (unit, invoker) expiry timestamps. Expired entries are treated as
// absent, and a timer removes each entry once it has expired.
type Cooldowns struct {
	entries   *xsync.MapOf[cooldownKey, time.Time]
	now       func() time.Time
	afterFunc func(d time.Duration, f func())
}

type CooldownOption func(*Cooldowns)

// WithClock replaces time.Now and time.AfterFunc, for tests.
func WithClock(now func() time.Time, afterFunc func(d time.Duration, f func())) CooldownOption {
	return func(c *Cooldowns) {
		c.now = now
		if afterFunc != nil {
			c.afterFunc = afterFunc
		}
	}
}

func NewCooldowns(opts ...CooldownOption) *Cooldowns {
	c := &Cooldowns{
		entries: xsync.NewMapOf[cooldownKey, time.Time](),
		now:     time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Acquire starts a cooldown of d for invoker on unitKey. If one is already running it returns
// false and the time left.
func (c *Cooldowns) Acquire(unitKey string, invoker snowflake.ID, d time.Duration) (bool, time.Duration) {
	if d <= 0 {
		return true, 0
	}
	key := cooldownKey{unit: unitKey, invoker: invoker}
	now := c.now()

	var remaining time.Duration
	c.entries.Compute(key, func(expiry time.Time, loaded bool) (time.Time, bool) {
		if loaded && now.Before(expiry) {
			remaining = expiry.Sub(now)
			return expiry, false
		}
		return now.Add(d), false
	})
	if remaining > 0 {
		return false, remaining
	}

	c.afterFunc(d, func() { c.expire(key) })
	return true, 0
}

// expire drops key if its entry is no longer running. A newer entry set after a clear is kept.
func (c *Cooldowns) expire(key cooldownKey) {
	now := c.now()
	c.entries.Compute(key, func(expiry time.Time, loaded bool) (time.Time, bool) {
		return expiry, !loaded || !now.Before(expiry)
	})
}

// Remaining reports the time left on a running cooldown, zero if none.
func (c *Cooldowns) Remaining(unitKey string, invoker snowflake.ID) time.Duration {
	expiry, ok := c.entries.Load(cooldownKey{unit: unitKey, invoker: invoker})
	if !ok {
		return 0
	}
	if left := expiry.Sub(c.now()); left > 0 {
		return left
	}
	return 0
}

// ClearUnit drops every entry of unitKey.
func (c *Cooldowns) ClearUnit(unitKey string) {
	c.entries.Range(func(key cooldownKey, _ time.Time) bool {
		if key.unit == unitKey {
			c.entries.Delete(key)
		}
		return true
	})
}

// ClearKind drops every entry whose unit key starts with the kind prefix.
func (c *Cooldowns) ClearKind(kind string) {
	prefix := kind + ":"
	c.entries.Range(func(key cooldownKey, _ time.Time) bool {
		if strings.HasPrefix(key.unit, prefix) {
			c.entries.Delete(key)
		}
		return true
	})
}

func (c *Cooldowns) Len() int {
	return c.entries.Size()
}
