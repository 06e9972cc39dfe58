// Package scanner discovers files already present in the watch directory,
// so a processor can pick up work that predates monitoring.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
	"github.com/Aman-CERP/filesweep/internal/rules"
)

// Options configures a scan.
type Options struct {
	// RootDir is the directory to scan.
	RootDir string

	// Recursive descends into subdirectories. Default false: only direct
	// entries of RootDir are considered, matching the monitor's default.
	Recursive bool
}

// Scanner streams files that pass the configured matcher.
type Scanner struct {
	matcher *rules.Matcher
}

// New creates a Scanner using the given matcher.
func New(matcher *rules.Matcher) *Scanner {
	return &Scanner{matcher: matcher}
}

// Scan lists the root directory and streams matching file paths.
// The returned channel is closed when the scan completes or the context is
// cancelled. An unreadable root fails synchronously.
func (s *Scanner) Scan(ctx context.Context, opts Options) (<-chan string, error) {
	root := opts.RootDir
	if root == "" {
		root = "."
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, sweeperr.ScanError(fmt.Sprintf("resolve scan root %q", root), err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, sweeperr.ScanError(fmt.Sprintf("scan root %q does not exist", absRoot), err)
	}
	if !info.IsDir() {
		return nil, sweeperr.ScanError(fmt.Sprintf("scan root %q is not a directory", absRoot), nil)
	}

	out := make(chan string, 64)

	go func() {
		defer close(out)
		if opts.Recursive {
			s.walk(ctx, absRoot, out)
			return
		}
		s.list(ctx, absRoot, out)
	}()

	return out, nil
}

// list emits matching direct entries of root.
func (s *Scanner) list(ctx context.Context, root string, out chan<- string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		if s.matcher.Match(path) {
			select {
			case out <- path:
			case <-ctx.Done():
				return
			}
		}
	}
}

// walk emits matching files anywhere under root.
func (s *Scanner) walk(ctx context.Context, root string, out chan<- string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return nil // Skip entries we can't access
		}
		if d.IsDir() {
			return nil
		}
		if s.matcher.Match(path) {
			select {
			case out <- path:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}
