package main

import (
	"os"

	"github.com/IgesAI/AMautomation/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Flags
	cfgFile string
	debug   bool

	// PersistentPreRunE で読み込む
	cfg    config.Config
	logger *logrus.Logger

	rootCmd = &cobra.Command{
		Use:   "amautomation",
		Short: "AM lab consumables inventory service",
		Long: `Inventory tracking for additive-manufacturing consumables.

Functions:
- Record stock movements (add / consume / adjust) over a REST API
- Detect LOW / OUT_OF_STOCK / EXPIRING_SOON transitions and email the right people
- Sweep all items periodically so status changes caused by time are not missed`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skip_config"] == "true" {
				logger = newLogger(config.LoggingConfig{Level: "info"})
				return nil
			}
			c, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
			logger = newLogger(c.Logging)
			return nil
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env vars and .env are always read)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(forceResendCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func newLogger(lc config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if lc.JSON {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if debug {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	return log
}
