package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/gas"
	"github.com/michaelpento.lv/arbscan/strategies/arbitrage"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the configured routes without contacting the node",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		printRoutes(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
}

func printRoutes(w io.Writer, cfg *config.Config) {
	units := gas.Units{
		ConstantProduct: cfg.GasUnits.ConstantProduct,
		Concentrated:    cfg.GasUnits.Concentrated,
		StableSwap:      cfg.GasUnits.StableSwap,
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Route", "Legs", "Calls", "Gas units"})
	table.SetAutoWrapText(false)

	for _, r := range arbitrage.DefineRoutes(cfg.TokenSet(), cfg.V3FeeTier) {
		table.Append([]string{
			string(r.Type),
			r.Describe(),
			strconv.Itoa(len(r.Legs)),
			strconv.FormatUint(units.ForRoute(r.Type), 10),
		})
	}
	table.Render()

	fmt.Fprintf(w, "Trade sizes: %v %s\n", cfg.TradeSizes, cfg.Tokens.Base.Symbol)
}
