package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/cache"
	"github.com/matzehuels/forge/pkg/config"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the parse and export cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached parse result and export",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			ch, err := c.newCache(ctx, cfg)
			if err != nil {
				return err
			}
			defer ch.Close()

			cl, ok := ch.(cache.Clearer)
			if !ok {
				printInfo("Cache is disabled")
				return nil
			}
			if err := cl.Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			printSuccess("Cache cleared")
			printDetail("Backend: %s", cacheLocation(cfg))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadWorkspace()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Out, cacheLocation(cfg))
			return nil
		},
	}
}

// cacheLocation describes the configured backend: the directory of a file
// cache or the URL of a Redis cache.
func cacheLocation(cfg config.Config) string {
	switch cfg.Cache.Backend {
	case config.BackendNone:
		return "none"
	case config.BackendRedis:
		return cfg.Cache.RedisURL
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return "unavailable: " + err.Error()
	}
	return dir
}
