package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cefrkit/placement/internal/api"
	"github.com/cefrkit/placement/internal/auth"
	"github.com/cefrkit/placement/internal/jobs"
	"github.com/cefrkit/placement/internal/writing"
)

const shutdownTimeout = 20 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		rt, err := buildRuntime(ctx, cfg, st, log, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		authSvc, err := auth.NewService(st.UserRepo(), cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			return err
		}
		seed := func(ctx context.Context) error {
			return authSvc.Seed(ctx, cfg.Auth.SeedUsername, cfg.Auth.SeedPassword)
		}
		if err := seed(ctx); err != nil {
			return fmt.Errorf("seed user: %w", err)
		}

		sched := jobs.New(jobs.Options{
			Sweeper:    rt.Engine,
			IdleTTL:    cfg.Sessions.IdleTTL,
			SweepEvery: cfg.Sessions.SweepEvery,
			Summaries:  st.SummaryRepo(),
			Users:      st.UserRepo(),
			MaxAge:     cfg.Retention.MaxAge,
			PurgeEvery: cfg.Retention.Every,
			AfterPurge: seed,
			Logger:     log,
		})
		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer sched.Stop()

		server := api.NewServer(cfg.Server, api.Deps{
			Engine:    rt.Engine,
			Auth:      authSvc,
			Writing:   writing.NewService(rt.Provider, st.SummaryRepo(), log),
			Summaries: st.SummaryRepo(),
			Logger:    log,
		})
		httpServer := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           server.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			log.Info("listening", "addr", cfg.Server.Addr, "provider", rt.Provider.ModelID())
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
