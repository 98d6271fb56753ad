package main

import (
	"os"

	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbscan/cmd"
	"github.com/michaelpento.lv/arbscan/utils"
)

func main() {
	if err := cmd.Execute(); err != nil {
		utils.GetLogger().Error("Fatal error", zap.Error(err))
		utils.CleanupLogger()
		os.Exit(1)
	}
	utils.CleanupLogger()
}
