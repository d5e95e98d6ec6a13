package main

import (
	"bufio"
	"fmt"
	"strings"

	auth "github.com/IgesAI/AMautomation/internal/usecase/auth_usecase"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cron などから1回だけスイープする
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the expiring-soon and low-stock checks once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.notifier.RunChecks(cmd.Context())
		if err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{
			"skipped":            res.Skipped,
			"expiring_scanned":   res.ExpiringSoon.Scanned,
			"expiring_processed": res.ExpiringSoon.Processed,
			"low_scanned":        res.LowStock.Scanned,
			"low_processed":      res.LowStock.Processed,
		}).Info("sweep done")
		return nil
	},
}

var (
	resendLow bool
	resendOut bool
)

var forceResendCmd = &cobra.Command{
	Use:   "force-resend",
	Short: "Resend notifications for every LOW / OUT_OF_STOCK item",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resendLow && !resendOut {
			return errors.New("nothing to resend: enable --low or --out")
		}
		a, err := buildApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.notifier.ForceResend(cmd.Context(), resendLow, resendOut)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Sent notifications for %d item(s)\n", n)
		return nil
	},
}

// ADMIN_PASSWORD_HASH に入れる値を作る
var hashPasswordCmd = &cobra.Command{
	Use:         "hash-password [password]",
	Short:       "Print a bcrypt hash for ADMIN_PASSWORD_HASH (reads stdin when no argument)",
	Args:        cobra.MaximumNArgs(1),
	Annotations: map[string]string{"skip_config": "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		plain := ""
		if len(args) == 1 {
			plain = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.Wrap(err, "read password")
			}
			plain = strings.TrimRight(line, "\r\n")
		}

		hash, err := auth.NewBcryptPasswordHasher(adminHashCost).Hash(plain)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	forceResendCmd.Flags().BoolVar(&resendLow, "low", true, "include LOW items")
	forceResendCmd.Flags().BoolVar(&resendOut, "out", true, "include OUT_OF_STOCK items")
}
