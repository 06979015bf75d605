package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cefrkit/placement/internal/jobs"
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete results and accounts older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if d, _ := cmd.Flags().GetDuration("max-age"); d > 0 {
			cfg.Retention.MaxAge = d
		}
		if cfg.Retention.MaxAge <= 0 {
			return fmt.Errorf("max age must be positive, got %s", cfg.Retention.MaxAge)
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := jobs.New(jobs.Options{
			Summaries: st.SummaryRepo(),
			Users:     st.UserRepo(),
			MaxAge:    cfg.Retention.MaxAge,
			Logger:    log,
		}).Purge(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d results and %d accounts older than %s.\n",
			res.Summaries, res.Users, cfg.Retention.MaxAge.Round(time.Minute))
		return nil
	},
}

func init() {
	purgeCmd.Flags().Duration("max-age", 0, "Retention window (overrides retention.max_age)")
}
