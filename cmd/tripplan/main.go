package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"trip-planner-rag/internal/config"
	"trip-planner-rag/internal/logger"
)

var (
	log *logrus.Logger

	cfgFile string
)

var cmd = &cobra.Command{
	Use:          "tripplan",
	Short:        "Plan trips with retrieval-augmented generation",
	SilenceUsage: true,
}

func init() {
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")

	cmd.AddCommand(planCmd)
	cmd.AddCommand(serveCmd)
	cmd.AddCommand(convertCmd)
	cmd.AddCommand(jsonSchemaCmd)
}

func main() {
	log = logger.GetLogger()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads configuration and applies the logging settings
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}

	if err := logger.SetLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	if err := logger.SetLogFile(cfg.Log.File); err != nil {
		return nil, err
	}

	return cfg, nil
}
