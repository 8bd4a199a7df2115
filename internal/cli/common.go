package cli

import (
	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/ghclip/internal/app"
	"github.com/MrSnakeDoc/ghclip/internal/config"
	"github.com/MrSnakeDoc/ghclip/internal/logger"
)

// newApp loads the configuration and builds the components. One-shot
// commands log warnings only unless --verbose is set.
func newApp(cmd *cobra.Command) (*app.App, error) {
	cfg := config.Load()

	level := cfg.LogLevel
	if !verbose {
		level = "warn"
	}
	log := logger.NewWithFile(level, cfg.PrettyLog, logger.FileOptions{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})

	return app.New(cmd.Context(), cfg, log)
}
