package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var (
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stock and replacement status for every product",
		Long: `Status prints one row per product. With --watch it re-reads the store
and prints again every refresh interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			board := s.board()
			render := func() error {
				if a.jsonMode {
					return printJSON(cmd, board.States())
				}
				return board.Render(cmd.OutOrStdout())
			}
			if err := render(); err != nil {
				return err
			}
			if !watch {
				return nil
			}

			if interval <= 0 {
				interval = a.settings.RefreshInterval
			}
			ctx := cmd.Context()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					// The board refreshes on the loaded event.
					if err := s.reload(ctx); err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout())
					if err := render(); err != nil {
						return err
					}
				}
			}
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 0, "refresh interval (default: refresh_interval from config)")
	return cmd
}
