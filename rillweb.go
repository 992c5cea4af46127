package rillweb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/rillweb/internal/config"
	"github.com/aretw0/rillweb/internal/logging"
	"github.com/aretw0/rillweb/internal/metrics"
	"github.com/aretw0/rillweb/pkg/adapters/memory"
	"github.com/aretw0/rillweb/pkg/adapters/navigation"
	"github.com/aretw0/rillweb/pkg/adapters/redis"
	"github.com/aretw0/rillweb/pkg/adapters/runtimeclient"
	"github.com/aretw0/rillweb/pkg/appstore"
	"github.com/aretw0/rillweb/pkg/artifacts"
	"github.com/aretw0/rillweb/pkg/domain"
	"github.com/aretw0/rillweb/pkg/files"
	"github.com/aretw0/rillweb/pkg/invalidation"
	"github.com/aretw0/rillweb/pkg/keylock"
	"github.com/aretw0/rillweb/pkg/notifications"
	"github.com/aretw0/rillweb/pkg/persistence/middleware"
	"github.com/aretw0/rillweb/pkg/ports"
	"github.com/aretw0/rillweb/pkg/query"
	"github.com/aretw0/rillweb/pkg/requestqueue"
	"github.com/aretw0/rillweb/pkg/sources"
	"github.com/aretw0/rillweb/pkg/store"
)

// Version is set at build time.
var Version = "dev"

// App wires the stores, the runtime client and the source workflows together.
type App struct {
	InstanceID string

	Store         *appstore.Store
	Artifacts     *artifacts.Store
	Notifications *notifications.Notifications
	Overlay       *notifications.Overlay
	Queue         *requestqueue.Queue
	Query         *query.Client
	Router        *navigation.Router
	Sources       *sources.Orchestrator
	Metrics       *metrics.Metrics
	Locks         *keylock.Locks

	// Files is nil when the runtime cannot list files.
	Files *files.Browser
	// FileList holds the file paths of the instance while the App is started.
	FileList *store.Writable[[]string]

	runtime  ports.RuntimeService
	health   ports.HealthChecker
	uploader ports.Uploader
	dialog   ports.FileDialog
	cache    ports.CacheStore
	locker   ports.DistributedLocker
	hooks    domain.WorkflowHooks
	logger   *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan error
	watching chan struct{}
	closers  []func() error
}

// Option defines a functional option for configuring the App.
type Option func(*App)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logger
	}
}

// WithRuntime replaces the HTTP runtime client.
func WithRuntime(rt ports.RuntimeService, up ports.Uploader) Option {
	return func(a *App) {
		a.runtime = rt
		a.uploader = up
	}
}

// WithFileDialog sets the dialog used to pick files for local_file sources.
func WithFileDialog(d ports.FileDialog) Option {
	return func(a *App) {
		a.dialog = d
	}
}

// WithCacheStore overrides the cache backend selected by the config.
func WithCacheStore(store ports.CacheStore) Option {
	return func(a *App) {
		a.cache = store
	}
}

// WithWorkflowHooks registers extra step callbacks next to the metrics hooks.
func WithWorkflowHooks(hooks domain.WorkflowHooks) Option {
	return func(a *App) {
		a.hooks = hooks
	}
}

// New builds an App from cfg.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	a := &App{InstanceID: cfg.InstanceID}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = logging.NewNop()
	}

	if a.cache == nil {
		switch cfg.Cache.Backend {
		case config.CacheRedis:
			rc := redis.New(cfg.Cache.RedisAddr, cfg.Cache.Password, cfg.Cache.DB,
				redis.WithPrefix(cfg.Cache.Prefix),
				redis.WithTTL(cfg.Cache.TTL),
			)
			a.cache = rc
			a.locker = rc.Locker()
			a.closers = append(a.closers, rc.Close)
		default:
			a.cache = memory.NewCacheStore()
		}
	}

	active, previous, err := cfg.Cache.Keys()
	if err != nil {
		return nil, err
	}
	if active != nil {
		seal, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: previous,
		})
		if err != nil {
			return nil, fmt.Errorf("cache encryption: %w", err)
		}
		a.cache = middleware.Chain(a.cache, seal)
	}

	lockOpts := []keylock.Option{keylock.WithLogger(a.logger)}
	if a.locker != nil {
		lockOpts = append(lockOpts, keylock.WithLocker(a.locker))
	}
	a.Locks = keylock.New(lockOpts...)

	a.Metrics = metrics.New()
	a.Queue = requestqueue.New(
		requestqueue.WithWorkers(cfg.Queue.Workers),
		requestqueue.WithLogger(a.logger),
	)
	a.Store = appstore.New(
		appstore.WithDeactivator(a.Queue),
		appstore.WithLogger(a.logger),
	)
	a.Store.Subscribe(func(s domain.AppState) {
		if s.ActiveEntity != nil {
			a.Metrics.ObserveActiveEntityChange()
		}
	})
	a.Artifacts = artifacts.New()
	a.Notifications = notifications.New(notifications.WithLogger(a.logger))
	a.Overlay = notifications.NewOverlay()
	a.Query = query.CreateQueryClient(
		query.WithCacheStore(a.cache),
		query.WithLogger(a.logger),
	)
	a.Router = navigation.NewRouter(a.Store, navigation.WithLogger(a.logger))

	if a.runtime == nil {
		rc := runtimeclient.New(cfg.RuntimeURL,
			runtimeclient.WithTimeout(cfg.RequestTimeout),
			runtimeclient.WithQueue(a.Queue),
			runtimeclient.WithLogger(a.logger),
		)
		a.runtime = rc
		if a.uploader == nil {
			a.uploader = rc
		}
	}
	if hc, ok := a.runtime.(ports.HealthChecker); ok {
		a.health = hc
	}
	a.FileList = store.NewWritable[[]string](nil)
	if fb, ok := a.runtime.(ports.FileBrowser); ok {
		a.Files = files.New(a.Query, fb, files.WithLogger(a.logger))
	}

	a.Sources = sources.New(sources.Deps{
		Runtime:   a.runtime,
		Uploader:  a.uploader,
		Dialog:    a.dialog,
		Navigator: a.Router,
		Notifier:  a.Notifications,
		Overlay:   a.Overlay,
		Errors:    a.Artifacts,
		Cache:     invalidation.Invalidator{Client: a.Query},
	},
		sources.WithHooks(metrics.Chain(a.Metrics.Hooks(), a.hooks)),
		sources.WithLocks(a.Locks),
		sources.WithLogger(a.logger),
	)
	return a, nil
}

// Start runs the request queue workers until Close or ctx is done.
// Runtime requests block until Start is called. When the runtime can list
// files, Start also keeps FileList in sync with the instance files.
func (a *App) Start(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.done = make(chan error, 1)
	go func() {
		a.done <- a.Queue.Run(ctx)
	}()
	if a.Files != nil {
		a.watching = make(chan struct{})
		go a.watchFiles(ctx, a.watching)
	}
	a.logger.Debug("App started", "instance", a.InstanceID)
}

// Close stops the workers and releases the cache backend.
func (a *App) Close() error {
	a.mu.Lock()
	cancel, done, watching := a.cancel, a.done, a.watching
	a.cancel, a.watching = nil, nil
	a.mu.Unlock()

	var errs error
	if cancel != nil {
		cancel()
		if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
			errs = errors.Join(errs, err)
		}
	}
	if watching != nil {
		<-watching
	}
	for _, c := range a.closers {
		errs = errors.Join(errs, c())
	}
	a.closers = nil
	return errs
}

func (a *App) watchFiles(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	unmount, err := a.Files.Watch(ctx, a.InstanceID, a.FileList.Set)
	if err != nil {
		a.logger.Warn("File listing unavailable", "instance", a.InstanceID, "err", err)
		return
	}
	<-ctx.Done()
	unmount()
}

// Ping checks that the runtime answers. Runtimes without a health check are
// assumed up.
func (a *App) Ping(ctx context.Context) error {
	if a.health == nil {
		return nil
	}
	return a.health.Ping(ctx)
}

// SetActiveEntity focuses the entity name of type t.
func (a *App) SetActiveEntity(name string, t domain.EntityType) {
	a.Store.SetActiveEntity(name, t)
}

// CreateSource creates the source tableName in the configured instance.
func (a *App) CreateSource(ctx context.Context, tableName, yaml string) ([]domain.ReconcileError, error) {
	return a.Sources.CreateSource(ctx, a.InstanceID, tableName, yaml)
}

// RefreshSource refreshes the source sourceName in the configured instance.
func (a *App) RefreshSource(ctx context.Context, connector, sourceName string) (*domain.ReconcileResponse, error) {
	return a.Sources.RefreshSource(ctx, connector, sourceName, a.InstanceID)
}

// CompileSource renders a source artifact from form values.
func (a *App) CompileSource(values map[string]any, connector string) (string, error) {
	out, err := sources.CompileCreateSourceYAML(values, connector)
	if err != nil {
		return "", fmt.Errorf("compile %s source: %w", connector, err)
	}
	return out, nil
}
