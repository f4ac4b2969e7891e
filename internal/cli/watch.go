package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/forge"
)

// burstDelay is how long the watcher waits after the last event of a burst
// before reporting. Editors often write a file as several events.
const burstDelay = 16 * time.Millisecond

func (c *CLI) watchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Validate diagram documents whenever they change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openDiagrams(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			w, err := newDiagramWatcher(ctx, s.cfg.Root, func(ctx context.Context, paths []string) {
				for _, p := range paths {
					c.revalidate(ctx, s, p)
				}
			})
			if err != nil {
				return err
			}
			printInfo("Watching %s (Ctrl+C to stop)", filepath.Join(s.cfg.Root, forge.Root))

			err = w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

func (c *CLI) revalidate(ctx context.Context, s *diagramSession, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			printDetail("%s removed", relPath(s.cfg, path))
			return
		}
		c.Logger.Error("read failed", "path", path, "err", err)
		return
	}
	v, err := validateContent(ctx, s.runner, relPath(s.cfg, path), string(data))
	if err != nil {
		c.Logger.Error("validate failed", "path", path, "err", err)
		return
	}
	reportValidation(v)
}

// =============================================================================
// Watcher
// =============================================================================

// diagramWatcher reports changed diagram documents below a workspace's ai/
// directory. Directories created while watching are picked up.
type diagramWatcher struct {
	root     string
	fw       *fsnotify.Watcher
	logger   *log.Logger
	onChange func(ctx context.Context, paths []string)
}

// newDiagramWatcher registers watches on the ai/ tree of root. When ai/ does
// not exist yet only root itself is watched, so its creation is noticed.
// Events are buffered until Run.
func newDiagramWatcher(ctx context.Context, root string, onChange func(context.Context, []string)) (*diagramWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &diagramWatcher{
		root:     root,
		fw:       fw,
		logger:   loggerFromContext(ctx),
		onChange: onChange,
	}

	base := filepath.Join(root, forge.Root)
	if _, err = os.Stat(base); err == nil {
		err = w.addTree(base)
	} else {
		err = fw.Add(root)
	}
	if err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// inTree reports whether p is the ai/ directory or lies below it.
func (w *diagramWatcher) inTree(p string) bool {
	rel, err := filepath.Rel(filepath.Join(w.root, forge.Root), p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// addTree watches dir and every directory below it, skipping hidden ones.
func (w *diagramWatcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		w.logger.Debug("watching", "dir", p)
		return w.fw.Add(p)
	})
}

// Run delivers changes until ctx is done or the watcher fails. It closes
// the underlying watcher before returning.
func (w *diagramWatcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	changed := make(map[string]struct{})
	burst := time.NewTimer(0)
	<-burst.C
	defer burst.Stop()

	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return errors.New("file watcher closed")
			}
			w.logger.Debug("file event", "event", ev)
			if !w.inTree(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(ev.Name); err != nil {
						w.logger.Warn("cannot watch directory", "dir", ev.Name, "err", err)
					}
					continue
				}
			}
			if k, ok := forge.KindOf(filepath.Base(ev.Name)); !ok || k != forge.KindDiagram {
				continue
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			changed[ev.Name] = struct{}{}
			burst.Reset(burstDelay)
		case <-burst.C:
			if len(changed) == 0 {
				continue
			}
			paths := make([]string, 0, len(changed))
			for p := range changed {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(changed)
			w.onChange(ctx, paths)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return errors.New("file watcher closed")
			}
			w.logger.Error("watch error", "err", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
