package ratelimit

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{},
		Blacklist:     map[string]bool{},
		EndpointConfigs: []EndpointConfig{
			{Path: "/profiles/*/evaluate", Method: "POST", Limit: 60, Window: time.Minute, Burst: 2},
		},
	}
}

// fixedClock returns a limiter whose clock is advanced manually.
func fixedClock(l *Limiter) *time.Time {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return &now
}

func TestLimiter_Burst(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()
	fixedClock(l)

	allowed, info := l.Allow("client", "/profiles/abc/evaluate", "POST")
	assert.True(t, allowed)
	assert.Equal(t, 60, info.Limit)
	assert.Equal(t, 1, info.Remaining)

	allowed, _ = l.Allow("client", "/profiles/abc/evaluate", "POST")
	assert.True(t, allowed)

	allowed, info = l.Allow("client", "/profiles/abc/evaluate", "POST")
	assert.False(t, allowed)
	assert.Equal(t, 0, info.Remaining)
	assert.Equal(t, time.Second, info.RetryAfter)
}

func TestLimiter_Refill(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()
	now := fixedClock(l)

	for i := 0; i < 2; i++ {
		allowed, _ := l.Allow("client", "/profiles/abc/evaluate", "POST")
		require.True(t, allowed)
	}
	allowed, _ := l.Allow("client", "/profiles/abc/evaluate", "POST")
	require.False(t, allowed)

	// 60 per minute refills one token per second.
	*now = now.Add(time.Second)
	allowed, _ = l.Allow("client", "/profiles/abc/evaluate", "POST")
	assert.True(t, allowed)
}

func TestLimiter_SharedAcrossProfiles(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()
	fixedClock(l)

	allowed, _ := l.Allow("client", "/profiles/one/evaluate", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow("client", "/profiles/two/evaluate", "POST")
	require.True(t, allowed)
	allowed, _ = l.Allow("client", "/profiles/three/evaluate", "POST")
	assert.False(t, allowed)

	// Other clients have their own budget.
	allowed, _ = l.Allow("other", "/profiles/one/evaluate", "POST")
	assert.True(t, allowed)
}

func TestLimiter_DefaultLimit(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultLimit = 1
	l := NewLimiter(cfg)
	defer l.Stop()
	fixedClock(l)

	allowed, info := l.Allow("client", "/assessments/x", "GET")
	assert.True(t, allowed)
	assert.Equal(t, 1, info.Limit)

	allowed, _ = l.Allow("client", "/profiles/x/assessments", "GET")
	assert.False(t, allowed)
}

func TestLimiter_Whitelist(t *testing.T) {
	cfg := testConfig()
	cfg.Whitelist = ListSet([]string{"trusted"})
	l := NewLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 10; i++ {
		allowed, _ := l.Allow("trusted", "/profiles/abc/evaluate", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiter_Blacklist(t *testing.T) {
	cfg := testConfig()
	cfg.Blacklist = ListSet([]string{"blocked", ""})
	l := NewLimiter(cfg)
	defer l.Stop()

	allowed, _ := l.Allow("blocked", "/health", "GET")
	assert.False(t, allowed)
	assert.Len(t, cfg.Blacklist, 1)
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(&Config{Enabled: false})
	defer l.Stop()

	for i := 0; i < 100; i++ {
		allowed, _ := l.Allow("client", "/profiles/abc/evaluate", "POST")
		assert.True(t, allowed)
	}
}

func TestLimiter_HealthUnlimited(t *testing.T) {
	cfg := testConfig()
	cfg.DefaultLimit = 1
	l := NewLimiter(cfg)
	defer l.Stop()

	for i := 0; i < 5; i++ {
		allowed, info := l.Allow("client", "/health", "GET")
		assert.True(t, allowed)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	cfg := testConfig()
	cfg.EndpointConfigs = []EndpointConfig{
		{Path: "/profiles/*/evaluate", Method: "POST", Limit: 1, Window: time.Hour, Burst: 50},
	}
	l := NewLimiter(cfg)
	defer l.Stop()
	fixedClock(l)

	var wg sync.WaitGroup
	var allowedCount atomic.Int64
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := l.Allow("client", "/profiles/abc/evaluate", "POST"); ok {
				allowedCount.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(50), allowedCount.Load())
}

func TestLimiter_Cleanup(t *testing.T) {
	l := NewLimiter(testConfig())
	defer l.Stop()
	now := fixedClock(l)

	for i := 0; i < 3; i++ {
		l.Allow(fmt.Sprintf("client-%d", i), "/profiles/abc/evaluate", "POST")
	}
	require.Len(t, l.buckets, 3)

	*now = now.Add(2 * time.Hour)
	l.Allow("fresh", "/profiles/abc/evaluate", "POST")
	l.cleanupBuckets(now.Add(-time.Hour))

	assert.Len(t, l.buckets, 1)
}

func TestLimiter_StopIdempotent(t *testing.T) {
	l := NewLimiter(nil)
	l.Stop()
	l.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		name     string
		path     string
		method   string
		wantPath string
		wantNil  bool
	}{
		{name: "evaluate", path: "/profiles/123/evaluate", method: "POST", wantPath: "/profiles/*/evaluate"},
		{name: "delete assessment", path: "/assessments/123", method: "DELETE", wantPath: "/assessments/*"},
		{name: "method mismatch", path: "/profiles/123/evaluate", method: "GET", wantNil: true},
		{name: "nested path does not match", path: "/assessments/123/extra", method: "DELETE", wantNil: true},
		{name: "health", path: "/health", method: "GET", wantPath: "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, time.Hour, cfg.IdleTTL)
	assert.NotEmpty(t, cfg.EndpointConfigs)
}
