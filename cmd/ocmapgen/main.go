// Package main is the entry point for ocmapgen, the OpenClonk map renderer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Faultbox/ocmapgen/internal/assets"
	"github.com/Faultbox/ocmapgen/internal/config"
	"github.com/Faultbox/ocmapgen/internal/engine/strata"
	"github.com/Faultbox/ocmapgen/internal/logger"
	"github.com/Faultbox/ocmapgen/internal/render"
)

func main() {
	flag.Usage = usage

	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	args := config.Args()
	if !config.ServiceMode() && len(args) != 2 {
		usage()
		os.Exit(2)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		logger.Sync()
		os.Exit(1)
	}
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: %s [options] INPUT OUTPUT\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintln(out, "Renders an OpenClonk Map.c or Landscape.txt to an image (.png, .jpg or indexed .bmp).")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Options:")
	flag.VisitAll(func(f *flag.Flag) {
		if config.HiddenFlags[f.Name] {
			return
		}
		fmt.Fprintf(out, "  -%s\n    \t%s\n", f.Name, f.Usage)
	})
}

func run(ctx context.Context, cfg *config.Config, args []string) error {
	r, err := render.New(strata.New())
	if err != nil {
		return errors.Wrap(err, "couldn't initialize map generator")
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn("closing renderer", zap.Error(err))
		}
	}()

	var input, output string
	if len(args) == 2 {
		input, err = filepath.Abs(args[0])
		if err == nil {
			input, err = filepath.EvalSymlinks(input)
		}
		if err != nil {
			return errors.Wrap(err, "couldn't resolve input file path")
		}
		output = args[1]
	}

	basePath := cfg.Data.Root
	if basePath == "" {
		basePath = "."
		if input != "" {
			basePath = filepath.Dir(input)
		}
	}
	if err := r.SetBasePath(basePath); err != nil {
		return errors.Wrap(err, "couldn't find Material.ocg or Objects.ocd")
	}

	r.SetStartupPlayerCount(cfg.Render.Players)
	r.SetStartupTeamCount(cfg.Render.Teams)
	if cfg.Render.Seed != nil {
		r.Seed(*cfg.Render.Seed)
	}

	rc := r.Build().
		Width(cfg.Render.Width).
		Height(cfg.Render.Height)

	scenpar, err := assets.LoadScenpar(basePath)
	switch {
	case err == nil:
		rc.Scenpar(scenpar)
	case errors.Is(err, assets.ErrNoParameterDefs):
		logger.Debug("rendering without scenario parameters", zap.String("dir", basePath))
	default:
		logger.Warn("couldn't load scenario parameters", zap.Error(err))
	}

	mapType := render.MapType(0)
	if cfg.Render.MapType != "" {
		if mapType, err = render.ParseMapType(cfg.Render.MapType); err != nil {
			return errors.Wrap(err, "invalid --map-type option")
		}
		rc.MapType(mapType)
	}

	if config.ServiceMode() {
		filename := "Map.c"
		if mapType == render.TextLandscape {
			filename = "Landscape.txt"
		}
		rc.Filename(filename)
		return render.Serve(ctx, os.Stdin, os.Stdout, rc, render.ServeOptions{
			Background: cfg.Render.Background != "",
			Seed:       cfg.Render.Seed,
		})
	}

	rc.Filename(input)
	if err := render.RenderToFile(rc, output, cfg.Render.Background); err != nil {
		return err
	}

	if cfg.Watch.Enabled {
		return render.Watch(ctx, rc, render.WatchOptions{
			Input:      input,
			Output:     output,
			Background: cfg.Render.Background,
			Debounce:   cfg.Watch.Debounce,
		})
	}
	return nil
}
