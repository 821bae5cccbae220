package cli

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	mroerrors "github.com/matzehuels/supermro/pkg/errors"
	"github.com/matzehuels/supermro/pkg/pipeline"
)

const defaultDebounce = 300 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		flags    analysisFlags
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever the package changes",
		Long: `Analyze a package, then analyze it again each time one of its .py files (or
the manifest) changes. Bursts of changes are coalesced into one run.

Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options(cmd, c.config())
			if err := c.resolvePackage(&opts); err != nil {
				return err
			}
			return c.runWatch(cmd.Context(), opts, flags.noCache, debounce)
		},
	}

	flags.register(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", defaultDebounce, "quiet period before re-running")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, opts pipeline.Options, noCache bool, debounce time.Duration) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	analyze := func() {
		res, err := c.runAnalyze(ctx, runner, opts)
		if err != nil {
			printError("%s", mroerrors.UserMessage(err))
			return
		}
		writeReport(os.Stdout, res)
		printStats(res)
	}

	root, recursive, filter := watchTarget(opts)
	w, err := newWatcher(debounce, filter, loggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer w.Close()
	if recursive {
		err = w.Add(root)
	} else {
		err = w.fs.Add(root)
	}
	if err != nil {
		return fmt.Errorf("watch %s: %w", root, err)
	}

	analyze()
	printInfo("Watching %s %s", root, StyleDim.Render("(Ctrl-C to stop)"))
	return w.Run(ctx, func(paths []string) {
		loggerFromContext(ctx).Debug("change detected", "files", paths)
		analyze()
	})
}

// watchTarget returns the directory to watch, whether to watch below it,
// and which files in it matter. A manifest is watched through its
// directory so that editors replacing the file are noticed.
func watchTarget(opts pipeline.Options) (dir string, recursive bool, match func(string) bool) {
	if opts.Manifest != "" {
		manifest, _ := filepath.Abs(opts.Manifest)
		return filepath.Dir(opts.Manifest), false, func(path string) bool {
			abs, err := filepath.Abs(path)
			return err == nil && abs == manifest
		}
	}
	dir = filepath.Join(opts.ProjectPath, filepath.FromSlash(strings.ReplaceAll(opts.Package, ".", "/")))
	return dir, true, isPythonSource
}

func isPythonSource(path string) bool {
	return strings.HasSuffix(path, ".py")
}

// =============================================================================
// watcher - debounced recursive fsnotify watcher
// =============================================================================

// watcher delivers batches of changed files once no event has arrived for
// the debounce period.
type watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	match    func(string) bool
	logger   *log.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	flush   chan struct{}
}

func newWatcher(debounce time.Duration, match func(string) bool, logger *log.Logger) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &watcher{
		fs:       fsw,
		debounce: debounce,
		match:    match,
		logger:   logger,
		pending:  make(map[string]struct{}),
		flush:    make(chan struct{}, 1),
	}, nil
}

// Add watches root and every directory below it, except hidden ones and
// __pycache__.
func (w *watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipWatchDir(d.Name()) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func skipWatchDir(name string) bool {
	return strings.HasPrefix(name, ".") || name == "__pycache__"
}

// Run handles events until ctx is done, calling onChange with each batch
// of changed files. onChange runs on the calling goroutine.
func (w *watcher) Run(ctx context.Context, onChange func([]string)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "err", err)
		case <-w.flush:
			if paths := w.drain(); len(paths) > 0 {
				onChange(paths)
			}
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !skipWatchDir(filepath.Base(event.Name)) {
				if err := w.Add(event.Name); err != nil {
					w.logger.Warn("failed to watch new directory", "path", event.Name, "err", err)
				}
			}
			return
		}
	}
	if !w.match(event.Name) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
		event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.schedule(event.Name)
	}
}

func (w *watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		select {
		case w.flush <- struct{}{}:
		default:
		}
	})
}

func (w *watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	clear(w.pending)
	return paths
}

// Close stops watching.
func (w *watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fs.Close()
}
