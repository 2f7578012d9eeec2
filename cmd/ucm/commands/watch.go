package commands

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/dyluth/ucm/internal/printer"
	"github.com/dyluth/ucm/internal/render"
	"github.com/dyluth/ucm/internal/store"
	"github.com/spf13/cobra"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream use case changes as they happen",
		Long: `Stream created, updated and deleted use cases in real time.

Requires the Redis backend: every process sharing the Redis namespace
publishes its changes there.

Examples:
  ucm watch --backend redis

  # Line-delimited JSON
  ucm watch --backend redis --json > events.jsonl`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sess, err := root.openSession(ctx, "quiet")
			if err != nil {
				return err
			}
			defer sess.Close()

			rs, ok := sess.store.(*store.Redis)
			if !ok {
				return printer.Error(
					"watch requires the redis backend",
					fmt.Sprintf("The active backend is %s, which does not publish changes.", sess.catalog.Backend()),
					[]string{"Use Redis:\n  ucm watch --backend redis"},
				)
			}

			sub, err := rs.Subscribe(ctx)
			if errors.Is(err, store.ErrEventsUnavailable) {
				return printer.Error(
					"Redis unavailable",
					fmt.Sprintf("Could not reach Redis at %s; the catalog fell back to local storage.", sess.cfg.Redis.URL),
					[]string{"Check that Redis is running and REDIS_URL is correct"},
				)
			}
			if err != nil {
				return fmt.Errorf("failed to subscribe: %w", err)
			}
			defer sub.Close()

			out := cmd.OutOrStdout()
			errs := sub.Errors()
			if !asJSON {
				fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", rs.Name())
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-sub.Events():
					if !ok {
						return nil
					}
					if asJSON {
						if err := render.JSONLine(out, ev); err != nil {
							return err
						}
						continue
					}
					render.Event(out, ev)
				case err, ok := <-errs:
					if !ok {
						errs = nil
						continue
					}
					printer.Warning(cmd.ErrOrStderr(), "%v\n", err)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output line-delimited JSON")
	return cmd
}
