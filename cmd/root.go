package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/michaelpento.lv/arbscan/config"
	"github.com/michaelpento.lv/arbscan/utils"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "arbscan",
	Short: "A read-only DEX arbitrage route scanner",
	Long: `arbscan quotes closed trading routes across constant-product,
concentrated-liquidity and stable-swap pools using read-only calls,
scores each route net of gas and flash-loan fees, and records every
attempt. It never sends a transaction.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./arbscan.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	if v, err := strconv.ParseBool(config.GetEnvWithDefault(config.EnvDebug, "false")); err == nil && v {
		debug = true
	}
	utils.InitLogger(debug)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	if cfg.Debug {
		utils.SetDebug(true)
	}
	return cfg, nil
}
