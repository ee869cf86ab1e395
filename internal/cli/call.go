package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newCallCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "call <service> [json]",
		Short: "Run a named service with a JSON payload",
		Long: `Call runs one of the pantry services with a JSON payload, read from the
argument or, when the argument is "-" or missing, from stdin.

Services:
  replace_item    {"product_id"}
  add_stock       {"product_id", "quantity"}
  remove_stock    {"product_id", "quantity"}
  update_product  {"product_id", "product_name"?, "stock_quantity"?,
                   "replacement_interval_days"?, "last_replacement_date"?}

A payload naming an unknown product is logged and otherwise ignored.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload []byte
			if len(args) == 2 && args[1] != "-" {
				payload = []byte(args[1])
			} else {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return systemError("read payload: %w", err)
				}
				payload = []byte(strings.TrimSpace(string(data)))
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.services().Call(cmd.Context(), args[0], json.RawMessage(payload)); err != nil {
				return err
			}
			if !a.jsonMode {
				fmt.Fprintf(cmd.OutOrStdout(), "Called %s\n", args[0])
			}
			return nil
		},
	}
}
