package ratelimiter

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"pricewatch_backend/internal/shared/retry"
)

const (
	DefaultMinDelay          = 1 * time.Second
	DefaultMaxDelay          = 3 * time.Second
	DefaultRequestsPerMinute = 20
)

// defaultUserAgents is a pool of current desktop browser identities.
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// GuardConfig configures a Guard. Zero values fall back to the defaults.
type GuardConfig struct {
	MinDelay          time.Duration
	MaxDelay          time.Duration
	RequestsPerMinute int
	UserAgents        []string
}

// Guard rotates the client identity and spaces out requests: a random pause
// in [MinDelay, MaxDelay] before every request, then the per-minute cap.
type Guard struct {
	minDelay time.Duration
	maxDelay time.Duration
	agents   []string
	limiter  Limiter

	mu    sync.Mutex
	rnd   *rand.Rand
	sleep retry.SleepFunc
}

// NewGuard builds a Guard from cfg.
func NewGuard(cfg GuardConfig) *Guard {
	if cfg.MinDelay < 0 {
		cfg.MinDelay = 0
	}
	if cfg.MinDelay == 0 && cfg.MaxDelay == 0 {
		cfg.MinDelay, cfg.MaxDelay = DefaultMinDelay, DefaultMaxDelay
	}
	if cfg.MaxDelay < cfg.MinDelay {
		cfg.MaxDelay = cfg.MinDelay
	}
	if cfg.RequestsPerMinute == 0 {
		cfg.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if len(cfg.UserAgents) == 0 {
		cfg.UserAgents = defaultUserAgents
	}
	seed := uint64(time.Now().UnixNano())
	return &Guard{
		minDelay: cfg.MinDelay,
		maxDelay: cfg.MaxDelay,
		agents:   cfg.UserAgents,
		limiter:  NewRateLimiter(cfg.RequestsPerMinute, time.Minute),
		rnd:      rand.New(rand.NewPCG(seed, seed>>1)),
		sleep:    retry.SleepContext,
	}
}

// UserAgent returns a randomly chosen browser user agent.
func (g *Guard) UserAgent() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.agents[g.rnd.IntN(len(g.agents))]
}

// Wait pauses for a random delay and then for the rate limiter. It returns
// early with ctx.Err() when ctx is cancelled.
func (g *Guard) Wait(ctx context.Context) error {
	if err := g.sleep(ctx, g.delay()); err != nil {
		return err
	}
	return g.limiter.Wait(ctx)
}

func (g *Guard) delay() time.Duration {
	span := g.maxDelay - g.minDelay
	if span <= 0 {
		return g.minDelay
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.minDelay + time.Duration(g.rnd.Int64N(int64(span)+1))
}
