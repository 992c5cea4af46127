package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/pkg/adapters/memory"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/singleflight"
)

// QueryFunc produces the value of a query. The result is JSON encoded before caching.
type QueryFunc func(ctx context.Context) (any, error)

type activeQuery struct {
	key  Key
	fn   QueryFunc
	refs int
}

// Client is a query cache. Safe for concurrent use.
type Client struct {
	cache    ports.CacheStore
	defaults Options
	group    singleflight.Group
	logger   *slog.Logger

	mu        sync.Mutex
	active    map[string]*activeQuery
	listeners map[int]func(Key)
	nextID    int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCacheStore sets the storage tier. Defaults to an in-memory store.
func WithCacheStore(store ports.CacheStore) ClientOption {
	return func(c *Client) {
		c.cache = store
	}
}

// WithDefaultOptions replaces the default query options.
func WithDefaultOptions(opts Options) ClientOption {
	return func(c *Client) {
		c.defaults = opts
	}
}

// WithLogger configures a logger for the Client.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client. Without options it refetches on every trigger and does not retry.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		defaults: Options{
			RefetchOnMount:       true,
			RefetchOnReconnect:   true,
			RefetchOnWindowFocus: true,
		},
		logger:    logging.NewNop(),
		active:    make(map[string]*activeQuery),
		listeners: make(map[int]func(Key)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = memory.NewCacheStore()
	}
	return c
}

// DefaultOptions returns the options applied to every query.
func (c *Client) DefaultOptions() Options {
	opts := c.defaults
	opts.PlaceholderData = append(json.RawMessage(nil), c.defaults.PlaceholderData...)
	return opts
}

func (c *Client) options(overrides []QueryOption) Options {
	opts := c.DefaultOptions()
	for _, o := range overrides {
		o(&opts)
	}
	return opts
}

// Fetch returns the cached result for key, or runs fn and caches its result.
// Concurrent calls for the same key share one execution of fn.
func (c *Client) Fetch(ctx context.Context, key Key, fn QueryFunc, opts ...QueryOption) (json.RawMessage, error) {
	raw, err := c.cache.Get(ctx, key.String())
	if err == nil {
		return raw, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		c.logger.Warn("Query cache read failed, fetching", "key", key.String(), "err", err)
	}
	return c.refetch(ctx, key, fn, c.options(opts))
}

// FetchQuery is the typed form of Client.Fetch.
func FetchQuery[T any](ctx context.Context, c *Client, key Key, fn func(context.Context) (T, error), opts ...QueryOption) (T, error) {
	var out T
	raw, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	}, opts...)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode query %s: %w", key.String(), err)
	}
	return out, nil
}

func (c *Client) refetch(ctx context.Context, key Key, fn QueryFunc, opts Options) (json.RawMessage, error) {
	encoded := key.String()
	v, err, _ := c.group.Do(encoded, func() (any, error) {
		value, err := c.run(ctx, fn, opts)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query %s: %w", encoded, err)
		}
		if err := c.cache.Set(ctx, encoded, raw); err != nil {
			c.logger.Warn("Query cache write failed", "key", encoded, "err", err)
		}
		return json.RawMessage(raw), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

func (c *Client) run(ctx context.Context, fn QueryFunc, opts Options) (any, error) {
	if opts.Retry <= 0 {
		return fn(ctx)
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}
	return backoff.Retry(ctx, func() (any, error) {
		return fn(ctx)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(delay)),
		backoff.WithMaxTries(uint(opts.Retry+1)),
	)
}

// Data returns the cached result for key. When nothing is cached it returns the
// placeholder data and false.
func (c *Client) Data(ctx context.Context, key Key, opts ...QueryOption) (json.RawMessage, bool) {
	raw, err := c.cache.Get(ctx, key.String())
	if err == nil {
		return raw, true
	}
	return c.options(opts).PlaceholderData, false
}

// SetData stores value as the result of key.
func (c *Client) SetData(ctx context.Context, key Key, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode query %s: %w", key.String(), err)
	}
	return c.cache.Set(ctx, key.String(), raw)
}

// InvalidateQueries drops every cached result whose key starts with prefix,
// notifies invalidation listeners and refetches the mounted queries it matched.
func (c *Client) InvalidateQueries(ctx context.Context, prefix Key) error {
	stored, err := c.cache.Keys(ctx, prefix.String())
	if err != nil {
		return fmt.Errorf("failed to list cached queries: %w", err)
	}

	var matched []string
	for _, s := range stored {
		k, err := ParseKey(s)
		if err != nil || !k.HasPrefix(prefix) {
			continue
		}
		matched = append(matched, s)
	}
	if len(matched) > 0 {
		if err := c.cache.Delete(ctx, matched...); err != nil {
			return fmt.Errorf("failed to drop cached queries: %w", err)
		}
	}

	c.mu.Lock()
	listeners := make([]func(Key), 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	var refetch []*activeQuery
	for _, q := range c.active {
		if q.key.HasPrefix(prefix) {
			refetch = append(refetch, q)
		}
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(prefix)
	}

	c.logger.Debug("Queries invalidated", "prefix", prefix.String(), "dropped", len(matched), "refetch", len(refetch))
	return c.refetchAll(ctx, refetch)
}

// OnInvalidate registers fn to be called with the prefix of every invalidation.
func (c *Client) OnInvalidate(fn func(Key)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	id := c.nextID
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Mount registers an observer of key and returns its data. A cached result is
// reused unless RefetchOnMount is enabled. The returned function unmounts.
func (c *Client) Mount(ctx context.Context, key Key, fn QueryFunc, opts ...QueryOption) (json.RawMessage, func(), error) {
	o := c.options(opts)
	encoded := key.String()

	c.mu.Lock()
	q, ok := c.active[encoded]
	if !ok {
		q = &activeQuery{key: key, fn: fn}
		c.active[encoded] = q
	}
	q.refs++
	c.mu.Unlock()

	var once sync.Once
	unmount := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if q.refs--; q.refs <= 0 {
				delete(c.active, encoded)
			}
		})
	}

	var (
		raw json.RawMessage
		err error
	)
	if o.RefetchOnMount {
		raw, err = c.refetch(ctx, key, fn, o)
	} else {
		raw, err = c.Fetch(ctx, key, fn, opts...)
	}
	if err != nil {
		unmount()
		return nil, func() {}, err
	}
	return raw, unmount, nil
}

// Reconnect refetches mounted queries if RefetchOnReconnect is enabled.
func (c *Client) Reconnect(ctx context.Context) error {
	if !c.defaults.RefetchOnReconnect {
		return nil
	}
	return c.refetchAll(ctx, c.mounted())
}

// WindowFocus refetches mounted queries if RefetchOnWindowFocus is enabled.
func (c *Client) WindowFocus(ctx context.Context) error {
	if !c.defaults.RefetchOnWindowFocus {
		return nil
	}
	return c.refetchAll(ctx, c.mounted())
}

func (c *Client) mounted() []*activeQuery {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*activeQuery, 0, len(c.active))
	for _, q := range c.active {
		out = append(out, q)
	}
	return out
}

func (c *Client) refetchAll(ctx context.Context, queries []*activeQuery) error {
	var errs []error
	opts := c.DefaultOptions()
	for _, q := range queries {
		if _, err := c.refetch(ctx, q.key, q.fn, opts); err != nil {
			errs = append(errs, fmt.Errorf("refetch %s: %w", q.key.String(), err))
		}
	}
	return errors.Join(errs...)
}
