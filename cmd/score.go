package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Print the ATS compatibility score of a résumé for an offer",
	Run: func(cmd *cobra.Command, _ []string) {
		score(cmd)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	inputFlags(scoreCmd)
}

func score(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	cv, offer, err := readInputs(cmd)
	if err != nil {
		logger.Fatal("reading inputs", zap.Error(err))
	}

	scorer, err := buildScorer(ctx, config, logger)
	if err != nil {
		logger.Fatal("building the scorer", zap.Error(err))
	}

	result, err := scorer.Score(ctx, cv, offer)
	if err != nil {
		logger.Fatal("scoring", zap.Error(err))
	}

	// do not bother error since Result always encodes
	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))
}
