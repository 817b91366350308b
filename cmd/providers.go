package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/ai"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show which providers are configured, without calling them",
	Run: func(_ *cobra.Command, _ []string) {
		logger, config := setup()

		chain, err := buildChain(config, logger)
		if err != nil {
			logger.Fatal("building the provider chain", zap.Error(err))
		}

		pretty, _ := json.MarshalIndent(ai.Describe(chain.Specs()), "", "  ")
		fmt.Println(string(pretty))
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
