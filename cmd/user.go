package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cefrkit/placement/internal/auth"
	"github.com/cefrkit/placement/internal/config"
	"github.com/cefrkit/placement/internal/store"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage API accounts",
}

// hashOnlySecret signs nothing; user add only needs the password hasher.
const hashOnlySecret = "unused"

var userAddCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create an account or reset its password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("PLACEMENT_PASSWORD")
		}
		if password == "" {
			return errors.New("password required: pass --password or set PLACEMENT_PASSWORD")
		}

		return withStore(cmd, func(ctx context.Context, st *store.Store) error {
			svc, err := auth.NewService(st.UserRepo(), hashOnlySecret, 0)
			if err != nil {
				return err
			}
			if err := svc.SetPassword(ctx, args[0], password); err != nil {
				return err
			}
			fmt.Printf("Saved account %q.\n", args[0])
			return nil
		})
	},
}

var userTokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Print an access token for an existing account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return issueToken(cmd.Context(), cfg, args[0])
	},
}

func issueToken(ctx context.Context, cfg *config.Config, username string) error {
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET_KEY is required to sign tokens")
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if _, err := st.UserRepo().Get(ctx, username); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no account named %q", username)
		}
		return err
	}
	svc, err := auth.NewService(st.UserRepo(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	token, err := svc.Issue(username)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func init() {
	userAddCmd.Flags().StringP("password", "p", "", "Account password (or PLACEMENT_PASSWORD)")
	userCmd.AddCommand(userAddCmd, userTokenCmd)
}
