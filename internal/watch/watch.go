// Package watch re-analyses dataset files when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Benny93/foodweb-go/internal/foodweb"
	"github.com/Benny93/foodweb-go/internal/loader"
)

// DefaultDebounce is the quiet period after the last event before files are
// reloaded.
const DefaultDebounce = 300 * time.Millisecond

// Handler receives every dataset that loaded and validated successfully,
// together with the file it came from. A non-nil error stops the watch.
type Handler func(path string, web *foodweb.FoodWeb) error

// Options configures a watch.
type Options struct {
	// Debounce is the quiet period before reloading. Zero uses DefaultDebounce.
	Debounce time.Duration

	// Initial delivers the current contents of every watched file before
	// waiting for changes.
	Initial bool

	// Logger receives load failures and watch events. Nil uses slog.Default().
	Logger *slog.Logger
}

// Watch monitors target and calls onChange with the reloaded web whenever a
// dataset file changes. target is either a single dataset file or a directory;
// for a directory every .yaml, .yml and .json file in it is watched, except
// those matched by the directory's .gitignore.
//
// Files that fail to load or validate are logged and skipped. Watch blocks until
// the context is cancelled and then returns ctx.Err().
func Watch(ctx context.Context, target string, opts Options, onChange Handler) error {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", target, err)
	}
	target = abs
	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("watching %s: %w", target, err)
	}

	sel := newSelector(target, info.IsDir(), opts.Logger)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(sel.dir); err != nil {
		return fmt.Errorf("watching %s: %w", sel.dir, err)
	}

	if opts.Initial {
		files, err := sel.list()
		if err != nil {
			return err
		}
		if err := reload(opts.Logger, files, onChange); err != nil {
			return err
		}
	}

	changed := make(map[string]bool)
	batchTimer := time.NewTimer(opts.Debounce)
	batchTimer.Stop()

	opts.Logger.Info("watching for changes", "path", target)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !sel.matches(event.Name) {
				continue
			}
			opts.Logger.Debug("dataset changed", "path", event.Name, "op", event.Op.String())
			changed[filepath.Clean(event.Name)] = true
			batchTimer.Reset(opts.Debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			opts.Logger.Warn("watch error", "error", err)

		case <-batchTimer.C:
			files := make([]string, 0, len(changed))
			for path := range changed {
				files = append(files, path)
			}
			sort.Strings(files)
			changed = make(map[string]bool)

			if err := reload(opts.Logger, files, onChange); err != nil {
				return err
			}
		}
	}
}

// reload loads each file and hands the valid ones to onChange. Files that
// vanished since the event are skipped.
func reload(logger *slog.Logger, files []string, onChange Handler) error {
	for _, path := range files {
		ds, err := loader.Load(path)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Debug("dataset removed", "path", path)
			continue
		}
		if err != nil {
			logger.Warn("skipping dataset", "path", path, "error", err)
			continue
		}

		web, err := foodweb.New(ds)
		if err != nil {
			logger.Warn("skipping dataset", "path", path, "error", err)
			continue
		}

		logger.Debug("dataset reloaded", "path", path, "nodes", web.NodeCount(), "edges", web.EdgeCount())
		if err := onChange(path, web); err != nil {
			return err
		}
	}
	return nil
}

// selector decides which paths under the watched directory are datasets.
type selector struct {
	// dir is the directory registered with fsnotify.
	dir string

	// file is the single watched file, empty in directory mode.
	file string

	// ignore holds the .gitignore patterns of dir, nil if there are none.
	ignore gitignore.Matcher
}

func newSelector(target string, isDir bool, logger *slog.Logger) selector {
	if !isDir {
		return selector{dir: filepath.Dir(target), file: target}
	}

	matcher, err := loadGitignoreMatcher(target)
	if err != nil {
		logger.Warn("ignoring unreadable .gitignore", "dir", target, "error", err)
	}
	return selector{dir: target, ignore: matcher}
}

func (s selector) matches(path string) bool {
	path = filepath.Clean(path)
	if s.file != "" {
		return path == s.file
	}

	if filepath.Dir(path) != s.dir {
		return false
	}
	if _, err := loader.FormatFromPath(path); err != nil {
		return false
	}
	if s.ignore != nil && s.ignore.Match([]string{filepath.Base(path)}, false) {
		return false
	}
	return true
}

// list returns the dataset files currently present, sorted.
func (s selector) list() ([]string, error) {
	if s.file != "" {
		return []string{s.file}, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if s.matches(path) {
			files = append(files, path)
		}
	}
	return files, nil
}

// loadGitignoreMatcher loads the .gitignore of dir. A missing file yields a nil
// matcher.
func loadGitignoreMatcher(dir string) (gitignore.Matcher, error) {
	content, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return gitignore.NewMatcher(patterns), nil
}
