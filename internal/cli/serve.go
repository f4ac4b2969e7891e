package cli

import (
	"context"
	"errors"
	"net"

	"github.com/spf13/cobra"

	"github.com/matzehuels/forge/pkg/server"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		readOnly bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workspace API for the diagram canvas",
		Long: `Serve exposes the workspace over HTTP: documents, diagram reads and
writes, exports and the shape registry. The canvas loads and saves diagrams
through it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openDiagrams(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if addr == "" {
				addr = s.cfg.Server.Addr
			}
			srv := server.New(s.cfg.Root, server.Options{
				Runner:     s.runner,
				Serializer: s.cfg.Serializer(),
				ReadOnly:   readOnly,
				Logger:     c.Logger,
			})

			err = srv.ListenAndServe(ctx, addr, func(a net.Addr) {
				printSuccess("Serving %s", s.cfg.Root)
				printKeyValue("Address", "http://"+a.String())
				if readOnly {
					printKeyValue("Mode", "read-only")
				}
			})
			if errors.Is(err, context.Canceled) {
				c.Logger.Info("server stopped")
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr from forge.toml)")
	cmd.Flags().BoolVar(&readOnly, "read-only", false, "reject diagram writes")
	return cmd
}
