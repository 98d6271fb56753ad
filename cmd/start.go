package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/cmd/bot"
	"github.com/michaelpento.lv/arbscan/utils"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Poll every route on the configured interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		b, err := bot.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer func() {
			if err := b.Stop(); err != nil {
				log.Error("Failed to stop scanner", zap.Error(err))
			}
		}()

		// the current cycle always completes; the signal is seen before the next sleep ends
		return b.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
