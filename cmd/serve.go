package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default :8000)")
	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	logger.Info("starting the matchcv api", zap.String("version", version))

	chain, err := buildChain(config, logger)
	if err != nil {
		logger.Fatal("building the provider chain", zap.Error(err))
	}

	scorer, err := buildScorer(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the scorer", zap.Error(err))
	}

	srv := server.New(server.Config{
		Address:                  config.Server.Address,
		AllowedOrigins:           config.Server.AllowedOrigins,
		MaxConcurrentAdaptations: config.Server.MaxConcurrentAdaptations,
		ShutdownTimeout:          config.Server.ShutdownTimeout,
	}, scorer, chain, logger)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("serving", zap.Error(err))
	}
}
