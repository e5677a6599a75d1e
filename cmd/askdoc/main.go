package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/askdoc/askdoc/internal/profile"
	"github.com/askdoc/askdoc/server"
	"github.com/askdoc/askdoc/store"
	"github.com/askdoc/askdoc/store/db"
)

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Document Q&A service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		prof := &profile.Profile{
			Mode:   viper.GetString("mode"),
			Addr:   viper.GetString("addr"),
			Port:   viper.GetInt("port"),
			Data:   viper.GetString("data"),
			Driver: viper.GetString("driver"),
			DSN:    viper.GetString("dsn"),
		}
		prof.FromEnv()
		if err := prof.Validate(); err != nil {
			return err
		}

		setupLogger(prof)

		dbDriver, err := db.NewDBDriver(prof)
		if err != nil {
			return err
		}
		st := store.New(dbDriver, prof)
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		srv, err := server.NewServer(ctx, prof, st)
		if err != nil {
			return err
		}

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-sigCh
			slog.Info("shutting down", "signal", sig.String())
			cancel()
			srv.Shutdown(context.Background())
		}()

		return srv.Start(ctx)
	},
}

func setupLogger(prof *profile.Profile) {
	level := slog.LevelInfo
	if prof.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func init() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, one of "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "address of the server")
	rootCmd.PersistentFlags().Int("port", 8080, "port of the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, one of "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	for _, flag := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("askdoc")
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
