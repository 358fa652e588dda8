// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/doctavious/snippext/internal/extraction"
	"github.com/doctavious/snippext/internal/models"
	"github.com/doctavious/snippext/internal/render"
	"github.com/doctavious/snippext/internal/report"
	"github.com/doctavious/snippext/internal/storage"
	"github.com/doctavious/snippext/internal/watch"
)

// Run extracts or clears snippets with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{
		root:   ".",
		out:    os.Stderr,
		logOut: os.Stderr,
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config
	logger := newLogger(app.logOut, cfg)
	slog.SetDefault(logger)

	logger.Debug("configuration loaded",
		slog.String("root", app.root),
		slog.String("output_dir", cfg.OutputDir),
		slog.Int("sources", len(cfg.Sources)),
		slog.Int("targets", len(cfg.Targets)),
		slog.String("log_level", cfg.LogLevel.String()))

	store, err := storage.NewFS(app.root)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	renderer, err := render.NewRenderer(&cfg.Settings, render.WithBranchResolver(HeadBranch(store.Root())))
	if err != nil {
		return fmt.Errorf("init renderer: %w", err)
	}

	var svcOpts []extraction.Option
	if app.resolver != nil {
		svcOpts = append(svcOpts, extraction.WithResolver(app.resolver))
	}
	svc := extraction.NewService(&cfg.Settings, store, renderer, logger, svcOpts...)
	printer := report.NewPrinter(app.out, app.verbose)

	if app.mode == ModeClear {
		res, err := svc.Clear(ctx, app.deleteMarkers)
		if err != nil {
			_ = printer.Error(err)
			return err
		}
		return printer.Clear(res)
	}

	res, err := svc.Extract(ctx)
	if err != nil {
		_ = printer.Error(err)
		return err
	}
	if err := printer.Extract(res); err != nil {
		return err
	}
	if !app.watch {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		match := watch.NewMatcher(localGlobs(&cfg.Settings), watchIgnored(store, &cfg.Settings))
		return watch.Run(gCtx, store.Root(), match, logger, func(runCtx context.Context, changed []string) error {
			logger.Info("watcher: sources changed", slog.Int("files", len(changed)))
			res, err := svc.Extract(runCtx)
			if err != nil {
				_ = printer.Error(err)
				return err
			}
			return printer.Extract(res)
		})
	})

	// Stop watching on SIGINT/SIGTERM.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

func newLogger(w io.Writer, cfg *Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, handlerOpts))
	}
	return slog.New(slog.NewJSONHandler(w, handlerOpts))
}

// localGlobs returns the file globs of every local source.
func localGlobs(s *models.Settings) []string {
	var globs []string
	for _, src := range s.SnippetSources() {
		if local, ok := src.(models.LocalSource); ok {
			globs = append(globs, local.Files...)
		}
	}
	return globs
}

// watchIgnored lists the paths extraction writes to itself.
func watchIgnored(store *storage.FS, s *models.Settings) []string {
	ignored := append([]string(nil), s.Targets...)
	if s.OutputDir != "" {
		dir := s.OutputDir
		if rel, err := store.Rel(dir); err == nil {
			dir = rel
		}
		ignored = append(ignored, path.Join(filepath.ToSlash(dir), "**"))
	}
	return ignored
}
