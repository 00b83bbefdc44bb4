// Package redisfilter implements an acquisition filter (concurrency.Filter)
// backed by a Redis set: external systems (another service, an operator
// runbook, a feature-flag flip) can add job-type names to a shared set to
// make them temporarily ineligible for acquisition across every scheduler
// instance, then publish on a channel to wake every instance immediately
// rather than waiting for the next poll.
package redisfilter

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/cronforge/jobstore/internal/components/logging"
)

const (
	// DefaultExcludedSetKey holds the member set of excluded job types.
	DefaultExcludedSetKey = "jobstore:excluded_types"
	// DefaultChangeChannel is published to (empty payload) whenever the
	// excluded set changes, so subscribers can re-poll out of band.
	DefaultChangeChannel = "jobstore:state_changed"
)

// Filter polls a Redis set for the current exclusion list and subscribes
// to a pub/sub channel for out-of-band wakes. Refreshes triggered by
// pub/sub are throttled by a token bucket so a burst of notifications
// cannot turn into a burst of Redis round-trips; the periodic poll is not
// throttled.
type Filter struct {
	client    redis.UniversalClient
	setKey    string
	channel   string
	limiter   *rate.Limiter
	pollEvery time.Duration

	mu       sync.RWMutex
	excluded map[string]struct{}
	onChange func()

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type Option func(*Filter)

func WithSetKey(key string) Option       { return func(f *Filter) { f.setKey = key } }
func WithChannel(channel string) Option  { return func(f *Filter) { f.channel = channel } }
func WithPollInterval(d time.Duration) Option {
	return func(f *Filter) { f.pollEvery = d }
}

// New builds a filter bound to client. refreshLimit bounds how often a
// pub/sub wake can trigger an actual Redis read (e.g. rate.Every(time.Second)).
func New(client redis.UniversalClient, refreshLimit rate.Limit, opts ...Option) *Filter {
	f := &Filter{
		client:    client,
		setKey:    DefaultExcludedSetKey,
		channel:   DefaultChangeChannel,
		limiter:   rate.NewLimiter(refreshLimit, 1),
		pollEvery: 5 * time.Second,
		excluded:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Filter) Name() string { return "redis-excluded-types" }

// TypesToExclude satisfies concurrency.Filter. It is a cheap read of the
// last-polled snapshot; it never talks to Redis directly, so it is safe
// to call synchronously every acquisition round.
func (f *Filter) TypesToExclude() map[string]struct{} {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]struct{}, len(f.excluded))
	for t := range f.excluded {
		out[t] = struct{}{}
	}
	return out
}

func (f *Filter) Subscribe(onChange func()) {
	f.mu.Lock()
	f.onChange = onChange
	f.mu.Unlock()
}

// Run starts the background poll loop and the pub/sub listener, supervised
// by an errgroup-style wait in Stop. It performs one synchronous refresh
// before returning so the first acquisition round sees real data.
func (f *Filter) Run(ctx context.Context) error {
	if err := f.refresh(ctx); err != nil {
		logging.Warn(ctx, "redisfilter: initial refresh failed", zap.Error(err))
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel

	f.wg.Add(2)
	go f.pollLoop(runCtx)
	go f.subscribeLoop(runCtx)
	return nil
}

func (f *Filter) Stop() {
	if f.cancel != nil {
		f.cancel()
	}
	f.wg.Wait()
}

func (f *Filter) pollLoop(ctx context.Context) {
	defer f.wg.Done()
	ticker := time.NewTicker(f.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.refresh(ctx); err != nil {
				logging.Warn(ctx, "redisfilter: poll refresh failed", zap.Error(err))
			}
		}
	}
}

func (f *Filter) subscribeLoop(ctx context.Context) {
	defer f.wg.Done()
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if !f.limiter.Allow() {
				continue
			}
			if err := f.refresh(ctx); err != nil {
				logging.Warn(ctx, "redisfilter: pubsub-triggered refresh failed", zap.Error(err))
				continue
			}
			f.mu.RLock()
			onChange := f.onChange
			f.mu.RUnlock()
			if onChange != nil {
				onChange()
			}
		}
	}
}

func (f *Filter) refresh(ctx context.Context) error {
	members, err := f.client.SMembers(ctx, f.setKey).Result()
	if err != nil {
		return err
	}
	next := make(map[string]struct{}, len(members))
	for _, m := range members {
		next[m] = struct{}{}
	}
	f.mu.Lock()
	f.excluded = next
	f.mu.Unlock()
	return nil
}
