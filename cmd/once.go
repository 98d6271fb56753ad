package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/cmd/bot"
	"github.com/michaelpento.lv/arbscan/utils"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single scan cycle and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		b, err := bot.New(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := b.Stop(); err != nil {
				log.Error("Failed to stop scanner", zap.Error(err))
			}
		}()

		return b.RunOnce(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(onceCmd)
}
