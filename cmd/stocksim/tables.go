package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rpgo/stocksim/internal/calculation"
	"github.com/rpgo/stocksim/internal/config"
)

func newTablesCmd() *cobra.Command {
	var verbose bool
	var income float64
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List the built-in tax-rate tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := config.DefaultTaxTables()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, name := range tables.Names() {
				fmt.Fprintln(out, name)
				table := tables[name]
				if income > 0 {
					brackets := calculation.BracketFor(income, table)
					for _, cat := range table.Categories {
						if label, ok := brackets[cat.Name]; ok {
							fmt.Fprintf(out, "  %s: %s\n", cat.Name, label)
						}
					}
					continue
				}
				if !verbose {
					continue
				}
				for _, cat := range table.Categories {
					fmt.Fprintf(out, "  %s:", cat.Name)
					for _, b := range cat.Brackets {
						fmt.Fprintf(out, " %s>%s", b.Label, b.Threshold.StringFixed(0))
					}
					fmt.Fprintln(out)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print the brackets of every category")
	cmd.Flags().Float64Var(&income, "income", 0, "print the bracket each category applies at this income")
	return cmd
}
