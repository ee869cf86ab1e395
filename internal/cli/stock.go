package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/entity"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

func newReplaceCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "replace <id>",
		Short: "Record that one item was used as a replacement",
		Long: `Replace takes one unit from stock and, for a scheduled product, sets the
last replacement date to today. Without stock on hand it refuses unless
--force is given; a forced replace leaves stock at zero and still resets
the schedule.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			id := args[0]
			if force {
				err = s.repo.ReplaceItem(cmd.Context(), id)
			} else {
				err = entity.NewReplaceButton(s.repo, id, s.logger).Press(cmd.Context())
			}
			if err != nil {
				return err
			}
			p, _ := s.repo.Get(id)
			return a.printProduct(cmd, s.repo, p)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace even when out of stock")
	return cmd
}

func newStockCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Change stock on hand",
	}
	cmd.AddCommand(
		newStockChangeCmd(a, "add", "Add units to stock"),
		newStockChangeCmd(a, "remove", "Remove units from stock (never below zero)"),
		newStockChangeCmd(a, "set", "Set stock to an exact value (0-999)"),
	)
	return cmd
}

func newStockChangeCmd(a *app, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id> <quantity>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if verb == "set" {
				value, err := strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("%w: %q", entity.ErrOutOfRange, args[1])
				}
				return a.changeStock(cmd, id, func(s *session) error {
					if !s.repo.Exists(id) {
						return fmt.Errorf("%w: %s", types.ErrProductNotFound, id)
					}
					return entity.NewStockNumber(s.repo, id, s.logger).SetValue(cmd.Context(), value)
				})
			}

			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("%w: %q", types.ErrInvalidQuantity, args[1])
			}
			return a.changeStock(cmd, id, func(s *session) error {
				if verb == "add" {
					return s.repo.AddStock(cmd.Context(), id, quantity)
				}
				return s.repo.RemoveStock(cmd.Context(), id, quantity)
			})
		},
	}
}

// changeStock opens a session, applies change and prints the product.
func (a *app) changeStock(cmd *cobra.Command, id string, change func(s *session) error) error {
	s, err := a.open(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()

	if err := change(s); err != nil {
		return err
	}
	p, _ := s.repo.Get(id)
	if a.jsonMode {
		return printJSON(cmd, p)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s stock: %d\n", id, p.StockQuantity)
	return nil
}
