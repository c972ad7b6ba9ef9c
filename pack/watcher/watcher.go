// Package watcher reports changes to the source files of a build so that it can be rebuilt.  Changes are coalesced:
// a burst of writes, such as an editor saving several files, produces a single batch.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Start a watcher with the provided options.  The watcher stops when the context is cancelled.
func Start(ctx context.Context, options ...Option) (*Watcher, error) {
	wr := &Watcher{settle: 50 * time.Millisecond}
	for _, option := range options {
		err := option(wr)
		if err != nil {
			return nil, err
		}
	}
	err := wr.start(ctx)
	if err != nil {
		return nil, err
	}
	return wr, nil
}

// An Option is a function that can manipulate a watcher during construction
type Option func(*Watcher) error

// Include specifies one or more file patterns to include in the watch.  Patterns without a separator match the base
// name of the file, so "*.js" matches every script.  If no patterns are specified, all files are included.
func Include(patterns ...string) Option {
	return func(wr *Watcher) (err error) {
		wr.includes, err = appendPatterns(wr.includes, patterns...)
		return
	}
}

// Exclude specifies one or more file patterns to exclude from the watch.  If no patterns are specified, only files
// starting with a dot are excluded.  If a file matches both an include and an exclude pattern, it is excluded.
func Exclude(patterns ...string) Option {
	return func(wr *Watcher) (err error) {
		wr.excludes, err = appendPatterns(wr.excludes, patterns...)
		return
	}
}

// Directory specifies one or more directories to watch recursively.
func Directory(paths ...string) Option {
	return func(wr *Watcher) error {
		wr.directories = append(wr.directories, paths...)
		return nil
	}
}

// Skip specifies directories that are never watched, such as the output directory of the build.
func Skip(paths ...string) Option {
	return func(wr *Watcher) error {
		for _, path := range paths {
			wr.skip = append(wr.skip, filepath.Clean(path))
		}
		return nil
	}
}

// Settle specifies how long the watcher waits for further changes before reporting a batch.  Defaults to 50ms.
func Settle(d time.Duration) Option {
	return func(wr *Watcher) error {
		wr.settle = d
		return nil
	}
}

func appendPatterns(seq []pattern, patterns ...string) ([]pattern, error) {
	for _, src := range patterns {
		rx, err := glob.Compile(src, filepath.Separator)
		if err != nil {
			return nil, fmt.Errorf(`%w in %q`, err, src)
		}
		seq = append(seq, pattern{rx, !strings.ContainsRune(src, filepath.Separator) && !strings.Contains(src, `/`)})
	}
	return seq, nil
}

type pattern struct {
	glob.Glob
	base bool // match against the base name rather than the full path
}

func (p pattern) match(name string) bool {
	if p.base {
		return p.Match(filepath.Base(name))
	}
	return p.Match(name)
}

// A Watcher sends batches of changed paths on Changes until its context ends.
type Watcher struct {
	includes    []pattern
	excludes    []pattern
	directories []string
	skip        []string
	settle      time.Duration

	fsnotify *fsnotify.Watcher
	changes  chan []string
	done     chan struct{}
}

func (wr *Watcher) start(ctx context.Context) (err error) {
	if len(wr.directories) == 0 {
		return fmt.Errorf(`watcher: no directories specified`)
	}
	wr.fsnotify, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if len(wr.excludes) == 0 {
		wr.excludes, _ = appendPatterns(nil, `.*`)
	}
	for _, dir := range wr.directories {
		err = wr.addTree(dir)
		if err != nil {
			wr.fsnotify.Close()
			return err
		}
	}
	wr.changes = make(chan []string, 1)
	wr.done = make(chan struct{})
	go wr.process(ctx)
	return nil
}

func (wr *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, info fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if wr.skipped(path) || (path != dir && strings.HasPrefix(info.Name(), `.`)) {
			return filepath.SkipDir
		}
		return wr.fsnotify.Add(path)
	})
}

// Changes returns the channel of changed paths.  It is closed when the watcher stops.
func (wr *Watcher) Changes() <-chan []string { return wr.changes }

// Done is closed once the watcher has released its resources.
func (wr *Watcher) Done() <-chan struct{} { return wr.done }

func (wr *Watcher) process(ctx context.Context) {
	defer close(wr.done)
	defer close(wr.changes)
	defer wr.fsnotify.Close()

	var pending []string
	var timer *time.Timer
	var timerCh <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-wr.fsnotify.Errors:
			if !ok {
				return
			}
			_ = err // fsnotify errors are overflows, the next event will catch us up.
		case event, ok := <-wr.fsnotify.Events:
			if !ok {
				return
			}
			name, ok := wr.processNotification(event)
			if !ok || slices.Contains(pending, name) {
				continue
			}
			pending = append(pending, name)
			if timer == nil {
				timer = time.NewTimer(wr.settle)
			} else {
				timer.Reset(wr.settle)
			}
			timerCh = timer.C
		case <-timerCh:
			timerCh = nil
			select {
			case wr.changes <- pending:
				pending = nil
			case <-ctx.Done():
				return
			}
		}
	}
}

func (wr *Watcher) processNotification(event fsnotify.Event) (string, bool) {
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(event.Name)
		if err != nil {
			return ``, false
		}
		if info.IsDir() {
			_ = wr.addTree(event.Name)
			return ``, false // a new directory is not a change until something is written in it.
		}
	}
	switch {
	case event.Has(fsnotify.Remove):
		_ = wr.fsnotify.Remove(event.Name)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write), event.Has(fsnotify.Rename):
	default:
		return ``, false
	}
	if !wr.shouldInclude(event.Name) {
		return ``, false
	}
	return event.Name, true
}

func (wr *Watcher) skipped(path string) bool {
	path = filepath.Clean(path)
	for _, dir := range wr.skip {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (wr *Watcher) shouldInclude(name string) bool {
	if wr.skipped(name) {
		return false
	}
	included := len(wr.includes) == 0
	for _, rx := range wr.includes {
		if rx.match(name) {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, rx := range wr.excludes {
		if rx.match(name) {
			return false
		}
	}
	return true
}
