// Command psocheck validates the pipelines of a TOML manifest.
//
// Each pipeline's shaders are compiled, linked and bound exactly as an
// application would, against a device that records nothing, so interface
// mismatches between shaders and binding layouts are caught without a GPU.
//
//	psocheck -manifest pipelines.toml
//	psocheck -manifest pipelines.toml -watch
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gogpu/gfx"
	"github.com/gogpu/gfx/backend/native"
	"github.com/gogpu/gfx/internal/manifest"
	"github.com/gogpu/gfx/internal/parallel"
	"github.com/gogpu/gfx/internal/watch"
)

func main() {
	var (
		path    = flag.String("manifest", "pipelines.toml", "pipeline manifest")
		watchFS = flag.Bool("watch", false, "re-check when the manifest or its shaders change")
		verbose = flag.Bool("v", false, "log resource creation")
		wgsl    = flag.Bool("wgsl", false, "pass WGSL modules to the device instead of SPIR-V")
		jobs    = flag.Int("j", 0, "pipelines checked concurrently (0 = GOMAXPROCS)")
	)
	flag.Parse()

	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "psocheck",
	})
	if *verbose {
		handler.SetLevel(log.DebugLevel)
	}
	logger := slog.New(handler)
	gfx.SetLogger(logger)

	var opts []native.Option
	if *wgsl {
		opts = append(opts, native.WithWGSLModules())
	}

	d, err := openDevice()
	if err != nil {
		handler.Fatal("device unavailable", "err", err)
	}
	defer d.Close()
	pool := parallel.NewPool(*jobs)
	defer pool.Close()

	if !*watchFS {
		m, err := manifest.Load(*path)
		if err != nil {
			handler.Error("load failed", "err", err)
			exit(d, pool)
		}
		if report(logger, checkManifest(d, pool, m, opts...)) > 0 {
			exit(d, pool)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := watchManifest(ctx, logger, d, pool, *path, opts); err != nil && !errors.Is(err, context.Canceled) {
		handler.Error("watch stopped", "err", err)
	}
}

// watchManifest checks the manifest once and again after every change to
// it or to a shader it references. A manifest that fails to load is
// reported and watched until it is fixed.
func watchManifest(ctx context.Context, logger *slog.Logger, d *device, pool *parallel.Pool, path string, opts []native.Option) error {
	w, err := watch.New(0)
	if err != nil {
		return err
	}
	defer w.Close()

	check := func() {
		m, err := manifest.Load(path)
		if err != nil {
			logger.Error("load failed", "err", err)
			_ = w.Watch(path)
			return
		}
		if err := w.Set(m.Files()...); err != nil {
			logger.Warn("watch failed", "err", err)
		}
		failed := report(logger, checkManifest(d, pool, m, opts...))
		logger.Info("check complete", "pipelines", len(m.Pipelines), "failed", failed)
	}

	check()
	return w.Run(ctx, func(name string) {
		logger.Info("changed", "file", name)
		check()
	}, func(err error) {
		logger.Warn("watch error", "err", err)
	})
}

// exit releases the device and pool, which deferred calls would skip.
func exit(d *device, pool *parallel.Pool) {
	pool.Close()
	d.Close()
	os.Exit(1)
}
