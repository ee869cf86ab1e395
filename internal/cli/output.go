package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/pantry/internal/repository"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// printJSON writes v as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// productView is the JSON shape of one product with derived values.
type productView struct {
	*types.Product
	DaysUntilReplacement *int    `json:"days_until_replacement,omitempty"`
	NextReplacementDate  *string `json:"next_replacement_date,omitempty"`
}

// MarshalJSON merges the product record with the derived fields.
func (v productView) MarshalJSON() ([]byte, error) {
	record, err := json.Marshal(v.Product)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(record, &fields); err != nil {
		return nil, err
	}
	if v.DaysUntilReplacement != nil {
		fields["days_until_replacement"] = *v.DaysUntilReplacement
	}
	if v.NextReplacementDate != nil {
		fields["next_replacement_date"] = *v.NextReplacementDate
	}
	return json.Marshal(fields)
}

func viewOf(repo *repository.Repository, p *types.Product) productView {
	v := productView{Product: p}
	if days, ok := repo.DaysUntilReplacement(p.ProductID); ok {
		v.DaysUntilReplacement = &days
	}
	if next, ok := repo.NextReplacementDate(p.ProductID); ok {
		s := types.FormatDate(next)
		v.NextReplacementDate = &s
	}
	return v
}

// printProducts writes products as a table or a JSON array.
func (a *app) printProducts(cmd *cobra.Command, repo *repository.Repository, products []*types.Product) error {
	if a.jsonMode {
		views := make([]productView, 0, len(products))
		for _, p := range products {
			views = append(views, viewOf(repo, p))
		}
		return printJSON(cmd, views)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTOCK\tTRACKED\tINTERVAL\tLAST REPLACED")
	for _, p := range products {
		interval, last := "-", "-"
		if p.Schedule != nil {
			interval = strconv.Itoa(p.Schedule.IntervalDays) + "d"
			last = p.Schedule.LastReplacement
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\t%s\t%s\n", p.ProductID, p.Name, p.StockQuantity, p.TrackStock, interval, last)
	}
	return tw.Flush()
}

// printProduct writes one product in detail.
func (a *app) printProduct(cmd *cobra.Command, repo *repository.Repository, p *types.Product) error {
	v := viewOf(repo, p)
	if a.jsonMode {
		return printJSON(cmd, v)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "ID:        %s\n", p.ProductID)
	fmt.Fprintf(w, "Name:      %s\n", p.Name)
	fmt.Fprintf(w, "Stock:     %d\n", p.StockQuantity)
	fmt.Fprintf(w, "Tracked:   %t\n", p.TrackStock)
	fmt.Fprintf(w, "Cyclical:  %t\n", p.IsCyclical())
	if p.Schedule != nil {
		fmt.Fprintf(w, "Interval:  %d days\n", p.Schedule.IntervalDays)
		fmt.Fprintf(w, "Replaced:  %s\n", p.Schedule.LastReplacement)
	}
	if v.NextReplacementDate != nil {
		fmt.Fprintf(w, "Next:      %s\n", *v.NextReplacementDate)
	}
	if v.DaysUntilReplacement != nil {
		fmt.Fprintf(w, "Days left: %d\n", *v.DaysUntilReplacement)
	}
	return nil
}
