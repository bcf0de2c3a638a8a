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

	"auction-marketplace/internal/config"
	"auction-marketplace/utils"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "auction-marketplace",
	Short: "Online auction marketplace API",
	Long: `auction-marketplace serves listings, bids, auction countdowns and
per-user notifications over HTTP and websockets.`,
	SilenceUsage: true,
	RunE:         runServer,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (yaml, optional)")
	rootCmd.Flags().StringP("port", "p", "", "HTTP port (overrides server.port)")
	rootCmd.Flags().Bool("seed", false, "load sample listings at startup")
}

// loadConfig layers defaults, the config file, env vars and command line flags
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")

	v, err := config.New(cfgFile)
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		if err := v.BindPFlag("server.port", f); err != nil {
			return nil, fmt.Errorf("bind port flag: %w", err)
		}
	}
	if f := cmd.Flags().Lookup("seed"); f != nil && f.Changed {
		if err := v.BindPFlag("server.seed", f); err != nil {
			return nil, fmt.Errorf("bind seed flag: %w", err)
		}
	}

	return config.Load(v)
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := utils.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	utils.Debug("configuration loaded", map[string]any{"config": fmt.Sprintf("%+v", *cfg)})

	application, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.serve(ctx)
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight work
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Info("starting auction server", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			a.close()
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	utils.Info("shutting down auction server", map[string]any{"timeout": a.cfg.Server.ShutdownTimeout.String()})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	a.close()
	if err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	utils.Info("auction server stopped", nil)
	return nil
}
