package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog as a JSON HTTP API",
		Long: `Serve the catalog as a JSON HTTP API until interrupted.

The port comes from --port, then PORT, then the config file (default 3000).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, err := root.openSession(ctx, "development")
			if err != nil {
				return err
			}
			defer sess.Close()

			if cmd.Flags().Changed("port") {
				sess.cfg.Port = port
			}

			srv := server.New(sess.catalog, sess.log, sess.cfg.Port)
			if err := srv.Start(); err != nil {
				return printer.Error(
					"failed to start server",
					err.Error(),
					[]string{"Pick another port:\n  ucm serve --port 3001"},
				)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Serving %d use cases on %s (backend: %s)\n",
				len(sess.catalog.IDs()), srv.Addr(), sess.catalog.Backend())

			<-ctx.Done()
			fmt.Fprintln(out, "Shutting down...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on")
	return cmd
}
