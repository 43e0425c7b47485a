package pattern

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCooldownsAcquireAndExpire(t *testing.T) {
	reg := NewMemoryCooldowns()
	ctx := context.Background()
	cooldown := 5 * time.Minute

	ok, err := reg.TryAcquire(ctx, "s1", "help_offer", cooldown, t0)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.True(t, reg.InCooldown(ctx, "s1", "help_offer", cooldown, t0.Add(time.Minute)))

	ok, err = reg.TryAcquire(ctx, "s1", "help_offer", cooldown, t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, ok)

	// Independent keys.
	ok, _ = reg.TryAcquire(ctx, "s1", "guidance", cooldown, t0.Add(time.Minute))
	assert.True(t, ok)
	ok, _ = reg.TryAcquire(ctx, "s2", "help_offer", cooldown, t0.Add(time.Minute))
	assert.True(t, ok)

	// After the window elapses the key is free again.
	ok, err = reg.TryAcquire(ctx, "s1", "help_offer", cooldown, t0.Add(cooldown))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCooldownsForget(t *testing.T) {
	reg := NewMemoryCooldowns()
	ctx := context.Background()

	_, err := reg.TryAcquire(ctx, "s1", "help_offer", time.Hour, t0)
	require.NoError(t, err)
	require.NoError(t, reg.Forget(ctx, "s1"))

	ok, _ := reg.TryAcquire(ctx, "s1", "help_offer", time.Hour, t0.Add(time.Second))
	assert.True(t, ok)
}

func TestMemoryCooldownsConcurrentAcquire(t *testing.T) {
	reg := NewMemoryCooldowns()
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := reg.TryAcquire(ctx, "s1", "exit_intent", time.Hour, t0)
			if err == nil && ok {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired)
}
