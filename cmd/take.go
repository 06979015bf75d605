package cmd

import (
	"fmt"
	"os"
	"os/user"

	"github.com/spf13/cobra"

	"github.com/cefrkit/placement/internal/app"
	"github.com/cefrkit/placement/internal/cefr"
	"github.com/cefrkit/placement/internal/itemgen"
	"github.com/cefrkit/placement/internal/logging"
)

var takeCmd = &cobra.Command{
	Use:   "take [skill]",
	Short: "Take a placement test in the terminal",
	Long: "take runs the adaptive test locally against the configured content provider.\n" +
		"Results are stored like those of the HTTP API. Without a skill a menu is shown.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var skill itemgen.Skill
		if len(args) == 1 {
			if skill, err = itemgen.ParseSkill(args[0]); err != nil {
				return err
			}
			if skill == itemgen.SkillWriting {
				return fmt.Errorf("writing is scored through the HTTP API, not in the terminal")
			}
		}
		startLevel, _ := cmd.Flags().GetString("level")
		if startLevel != "" {
			if _, err := cefr.Parse(startLevel); err != nil {
				return err
			}
		}
		username, _ := cmd.Flags().GetString("user")
		if username == "" {
			username = currentUsername()
		}

		// The terminal UI owns stdout; log to a file or nowhere.
		log := logging.Nop()
		if logPath, _ := cmd.Flags().GetString("log"); logPath != "" {
			if log, err = logging.NewFile(logPath, cfg.Log.Level); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
		}
		defer log.Sync()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		rt, err := buildRuntime(cmd.Context(), cfg, st, log, false)
		if err != nil {
			return err
		}
		defer rt.Close()

		return app.Run(cmd.Context(), app.Options{
			Tester:     rt.Engine,
			Username:   username,
			Skills:     rt.Engine.Skills(),
			Skill:      skill,
			StartLevel: startLevel,
		})
	},
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "candidate"
}

func init() {
	takeCmd.Flags().StringP("user", "u", "", "Username the result is stored under (default: OS user)")
	takeCmd.Flags().StringP("level", "l", "", "Start level, e.g. B1 (default: per skill)")
	takeCmd.Flags().String("log", "", "Write logs to this file")
}
