package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultDebounce is the delay between the last file event and a re-render.
const DefaultDebounce = 100 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	Input      string
	Output     string
	Background string
	Debounce   time.Duration
	// Errors receives render failures. Defaults to os.Stderr.
	Errors io.Writer
	// OnRender is called after every re-render with its result.
	OnRender func(error)
}

// Watch re-renders cfg whenever the input file is created or written. The
// parent directory is watched since editors may replace the file on save.
// Render failures are reported and do not end the loop; Watch returns when
// ctx is done or the watcher fails.
func Watch(ctx context.Context, cfg *Config, opts WatchOptions) error {
	input, err := filepath.Abs(opts.Input)
	if err != nil {
		return err
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Errors == nil {
		opts.Errors = os.Stderr
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not initialize watcher")
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(input)); err != nil {
		return errors.Wrap(err, "could not start watcher")
	}

	log := cfg.r.log
	log.Info("waiting for file changes", zap.String("file", input))

	timer := time.NewTimer(opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != input || !event.Has(fsnotify.Create|fsnotify.Write) {
				continue
			}
			timer.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			return errors.Wrap(err, "watch error")

		case <-timer.C:
			log.Info("file changed, rendering map", zap.String("file", input))
			err := RenderToFile(cfg, opts.Output, opts.Background)
			if err != nil {
				fmt.Fprintf(opts.Errors, "Error: %v\n", err)
			}
			if opts.OnRender != nil {
				opts.OnRender(err)
			}
		}
	}
}
