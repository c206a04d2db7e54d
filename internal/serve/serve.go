// Package serve wires configuration, storage and transport into a running
// MetaWeblog endpoint.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/csantero/MetaWeblogPortable/builder/config"
	"github.com/csantero/MetaWeblogPortable/builder/directory"
	"github.com/csantero/MetaWeblogPortable/builder/dispatch"
	"github.com/csantero/MetaWeblogPortable/builder/feed"
	"github.com/csantero/MetaWeblogPortable/builder/media"
	"github.com/csantero/MetaWeblogPortable/builder/metrics"
	"github.com/csantero/MetaWeblogPortable/builder/services"
	"github.com/csantero/MetaWeblogPortable/builder/store"
	"github.com/csantero/MetaWeblogPortable/internal/server"
)

// App owns every long-lived component of a running server
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Posts     *store.Store
	Media     *media.Store
	Directory *directory.Directory
	Metrics   *metrics.RequestMetrics
	Server    *server.Server
}

// New opens the stores and assembles the dispatcher and HTTP server.
// The caller must Close the returned App.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{Config: cfg, Logger: logger, Metrics: metrics.NewRequestMetrics()}

	posts, err := store.Open(cfg.Store.DataDir, store.Options{
		Timeout: cfg.Store.DBTimeout,
		Dev:     cfg.Store.Dev,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open post store: %w", err)
	}
	app.Posts = posts

	if err := os.MkdirAll(cfg.Store.MediaDir, 0755); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	mediaStore, err := media.NewStore(afero.NewBasePathFs(afero.NewOsFs(), cfg.Store.MediaDir))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open media store: %w", err)
	}
	app.Media = mediaStore

	dir, err := directory.Load(cfg.Directory.File, logger)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to load directory: %w", err)
	}
	app.Directory = dir

	var auth services.Authenticator = services.AllowAll{}
	if cfg.Auth.Enforce {
		auth = services.NewStaticAuthenticator(dir)
	}

	gen := feed.NewGenerator(feed.Options{
		Title:       cfg.Blog.Title,
		Description: cfg.Blog.Description,
		BaseURL:     cfg.Server.BaseURL,
		MaxItems:    cfg.Blog.FeedItems,
	})

	d := dispatch.New(dispatch.Options{
		Posts:                posts,
		Media:                mediaStore,
		Directory:            dir,
		Auth:                 auth,
		Links:                gen,
		Metrics:              app.Metrics,
		Logger:               logger,
		BaseURL:              cfg.Server.BaseURL,
		LegacyNotFoundStatus: cfg.Server.LegacyNotFoundStatus,
	})

	app.Server = server.New(cfg.Server, server.Deps{
		Dispatcher: d,
		Posts:      posts,
		Media:      mediaStore,
		Feed:       gen,
		Metrics:    app.Metrics,
		Logger:     logger,
	})
	return app, nil
}

// Run serves until ctx is cancelled or a component fails. The directory
// watcher shares the server's lifetime.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Server.Run(ctx)
	})
	if a.Config.Directory.Watch {
		g.Go(func() error {
			return a.Directory.Watch(ctx, a.Config.Directory.Debounce)
		})
	}
	return g.Wait()
}

// Close releases the stores. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.Media != nil {
		if err := a.Media.Close(); err != nil {
			a.Logger.Warn("Failed to close media store", "error", err)
		}
	}
	if a.Posts != nil {
		if err := a.Posts.Close(); err != nil {
			a.Logger.Warn("Failed to close post store", "error", err)
		}
	}
}

// Run is the entry point of the serve command
func Run(args []string) {
	cfg, err := config.Load(args)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	app, err := New(cfg, logger)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("🚀 MetaWeblog endpoint on http://%s/xmlrpc\n", cfg.Server.Addr)
	if cfg.Auth.Enforce {
		fmt.Println("🔒 Credentials checked against", app.Directory.Path())
	}

	err = app.Run(ctx)
	app.Close()
	app.Metrics.Print()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Printf("❌ Server stopped: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("👋 Server stopped")
}
