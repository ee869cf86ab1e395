package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/setup"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// productFlags are the wizard fields shared by add and edit.
type productFlags struct {
	name         string
	trackStock   bool
	cyclical     bool
	stock        int
	interval     int
	lastReplaced string
}

func (f *productFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "product name")
	}
	cmd.Flags().BoolVar(&f.trackStock, "track-stock", false, "track stock on hand")
	cmd.Flags().BoolVar(&f.cyclical, "cyclical", false, "replace on a recurring schedule")
	cmd.Flags().IntVar(&f.stock, "stock", types.DefaultStockQuantity, "units on hand")
	cmd.Flags().IntVar(&f.interval, "interval", types.DefaultReplacementIntervalDays, "days between replacements")
	cmd.Flags().StringVar(&f.lastReplaced, "last-replaced", "", "last replacement date, YYYY-MM-DD (default: today)")
}

// input builds wizard input, leaving unchanged flags unset.
func (f *productFlags) input(cmd *cobra.Command, name string) setup.Input {
	in := setup.Input{
		Name:                name,
		TrackStock:          f.trackStock,
		IsCyclical:          f.cyclical,
		LastReplacementDate: f.lastReplaced,
	}
	if cmd.Flags().Changed("stock") {
		in.StockQuantity = &f.stock
	}
	if cmd.Flags().Changed("interval") {
		in.IntervalDays = &f.interval
	}
	return in
}

func newAddCmd(a *app) *cobra.Command {
	var f productFlags
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a product",
		Long: `Add a product. The product ID is derived from the name: lowercase, spaces
become underscores, other punctuation is dropped.

Example:
  pantry add "Dish Soap" --track-stock --stock 3
  pantry add "Water Filter" --cyclical --interval 60 --last-replaced 2024-01-01`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			w := setup.New(s.repo, nil)
			p, err := w.Create(cmd.Context(), f.input(cmd, args[0]))
			if err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd, p)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", p.ProductID)
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var filter types.ProductFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			products := s.repo.List()
			if filter != (types.ProductFilter{}) {
				products, err = s.repo.Find(filter)
				if err != nil {
					return systemError("query products: %w", err)
				}
			}
			return a.printProducts(cmd, s.repo, products)
		},
	}
	cmd.Flags().BoolVar(&filter.CyclicalOnly, "cyclical", false, "only products with a replacement schedule")
	cmd.Flags().BoolVar(&filter.TrackedOnly, "tracked", false, "only products with stock tracking")
	cmd.Flags().BoolVar(&filter.OutOfStock, "out-of-stock", false, "only products with no stock")
	cmd.Flags().StringVar(&filter.NameContains, "name", "", "only products whose name contains this text")
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			p, ok := s.repo.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", types.ErrProductNotFound, args[0])
			}
			return a.printProduct(cmd, s.repo, p)
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		name         string
		stock        int
		trackStock   bool
		cyclical     bool
		interval     int
		lastReplaced string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change selected fields of a product",
		Long: `Update changes only the fields whose flags are given.

Example:
  pantry update water_filter --interval 90
  pantry update dish_soap --name "Dish Liquid" --stock 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var u types.ProductUpdate
			if flags.Changed("name") {
				if name == "" {
					return fmt.Errorf("%w: empty name", types.ErrInvalidName)
				}
				u.Name = &name
			}
			if flags.Changed("stock") {
				if stock < 0 {
					return fmt.Errorf("%w: %d", types.ErrInvalidQuantity, stock)
				}
				u.StockQuantity = &stock
			}
			if flags.Changed("track-stock") {
				u.TrackStock = &trackStock
			}
			if flags.Changed("cyclical") {
				u.IsCyclical = &cyclical
			}
			if flags.Changed("interval") {
				if interval <= 0 {
					return fmt.Errorf("%w: %d", types.ErrInvalidInterval, interval)
				}
				u.IntervalDays = &interval
			}
			if flags.Changed("last-replaced") {
				d, err := types.ParseDate(lastReplaced)
				if err != nil {
					return err
				}
				formatted := types.FormatDate(d)
				u.LastReplacementDate = &formatted
			}
			if u.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.repo.UpdateProduct(cmd.Context(), args[0], u); err != nil {
				return err
			}
			p, _ := s.repo.Get(args[0])
			return a.printProduct(cmd, s.repo, p)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "product name")
	cmd.Flags().IntVar(&stock, "stock", 0, "units on hand")
	cmd.Flags().BoolVar(&trackStock, "track-stock", false, "track stock on hand")
	cmd.Flags().BoolVar(&cyclical, "cyclical", false, "replace on a recurring schedule")
	cmd.Flags().IntVar(&interval, "interval", 0, "days between replacements")
	cmd.Flags().StringVar(&lastReplaced, "last-replaced", "", "last replacement date, YYYY-MM-DD")
	return cmd
}

func newEditCmd(a *app) *cobra.Command {
	var f productFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Re-run the product wizard for an existing product",
		Long: `Edit re-applies the product form. Flags left out keep the product's
current values. Turning off both --track-stock and --cyclical resets the
product to a plain entry with the default stock.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			current, ok := s.repo.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", types.ErrProductNotFound, args[0])
			}
			name := current.Name
			if cmd.Flags().Changed("name") {
				name = f.name
			}
			if !cmd.Flags().Changed("track-stock") {
				f.trackStock = current.TrackStock
			}
			if !cmd.Flags().Changed("cyclical") {
				f.cyclical = current.IsCyclical()
			}

			w := setup.New(s.repo, nil)
			if err := w.Edit(cmd.Context(), args[0], f.input(cmd, name)); err != nil {
				return err
			}
			p, _ := s.repo.Get(args[0])
			return a.printProduct(cmd, s.repo, p)
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			existed := s.repo.Exists(args[0])
			if err := s.repo.RemoveProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			if a.jsonMode {
				return printJSON(cmd, map[string]any{"product_id": args[0], "removed": existed})
			}
			if existed {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "No product %s\n", args[0])
			}
			return nil
		},
	}
}
