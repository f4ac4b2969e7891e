package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/forge/pkg/config"
	errs "github.com/matzehuels/forge/pkg/errors"
	"github.com/matzehuels/forge/pkg/forge"
)

// loadWorkspace resolves the workspace root and loads its forge.toml.
//
// With --workspace the given directory is the root. Otherwise the nearest
// ancestor of the working directory holding forge.toml is used, falling back
// to the working directory itself.
func (c *CLI) loadWorkspace() (config.Config, error) {
	root := c.workspace
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return config.Config{}, err
		}
		found, ok, err := config.Find(wd)
		if err != nil {
			return config.Config{}, err
		}
		if ok {
			c.Logger.Debug("found workspace", "root", found)
		}
		root = found
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(abs)
	if err != nil {
		return config.Config{}, err
	}
	for _, k := range cfg.Unknown {
		c.Logger.Warn("unknown key in "+config.FileName, "key", k)
	}
	return cfg, nil
}

// documentPath resolves a document argument. Paths that exist as given
// (relative to the working directory, or absolute) are used directly;
// anything else is taken relative to the workspace root.
func documentPath(cfg config.Config, arg string) (string, error) {
	if _, err := os.Stat(arg); err == nil {
		return filepath.Abs(arg)
	}
	if filepath.IsAbs(arg) {
		return "", errs.New(errs.ErrCodeFileNotFound, "document not found: %s", arg)
	}
	abs, err := forge.Resolve(cfg.Root, arg)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(abs); err != nil {
		return "", errs.New(errs.ErrCodeFileNotFound, "document not found: %s", arg)
	}
	return abs, nil
}

// relPath returns p relative to the workspace root for display, or p itself
// when it lies outside the workspace.
func relPath(cfg config.Config, p string) string {
	rel, err := filepath.Rel(cfg.Root, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return p
	}
	return filepath.ToSlash(rel)
}

// readDocument reads a document argument.
func readDocument(cfg config.Config, arg string) (path, content string, err error) {
	path, err = documentPath(cfg, arg)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", errs.Wrap(errs.ErrCodeInternal, err, "read %s", arg)
	}
	return path, string(data), nil
}

// writeDocument replaces the content of an existing document.
func writeDocument(path, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	return os.WriteFile(path, []byte(content), mode)
}
