package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/matchcv/internal/ats"
	"github.com/spigell/matchcv/internal/resume"
)

const (
	PromptJSON        = "Print the adaptation as JSON"
	PromptCoverLetter = "Print the cover letter"
	PromptKeywords    = "Print the added keywords"
	PromptText        = "Print the adapted résumé as text"
	PromptRescore     = "Score the adapted résumé"
	PromptQuit        = "Quit"
)

var errExit = errors.New("exit requested")

// outputs maps --output values to prompt actions.
var outputs = map[string]string{
	"json":     PromptJSON,
	"letter":   PromptCoverLetter,
	"keywords": PromptKeywords,
	"text":     PromptText,
}

var adaptPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptJSON, PromptCoverLetter, PromptKeywords, PromptText, PromptRescore, PromptQuit},
}

var adaptCmd = &cobra.Command{
	Use:   "adapt",
	Short: "Rewrite a résumé for a job offer with the first working LLM provider",
	Run: func(cmd *cobra.Command, _ []string) {
		adapt(cmd)
	},
}

func init() {
	rootCmd.AddCommand(adaptCmd)
	inputFlags(adaptCmd)

	adaptCmd.Flags().StringP("output", "o", "", "print json, letter, keywords or text and exit without prompting")
}

func adapt(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := setup()

	cv, offer, err := readInputs(cmd)
	if err != nil {
		logger.Fatal("reading inputs", zap.Error(err))
	}

	output, _ := cmd.Flags().GetString("output")
	action, ok := outputs[strings.ToLower(strings.TrimSpace(output))]
	if output != "" && !ok {
		logger.Fatal("invalid --output", zap.String("output", output))
	}

	chain, err := buildChain(config, logger)
	if err != nil {
		logger.Fatal("building the provider chain", zap.Error(err))
	}

	adaptation, err := chain.Adapt(ctx, cv, offer)
	if err != nil {
		logger.Fatal("adapting the résumé", zap.Error(err))
	}

	logger.Info("résumé adapted",
		zap.String("provider", adaptation.Provider),
		zap.Int("improvement", adaptation.Improvement),
		zap.Int("keywords added", len(adaptation.AddedKeywords)),
	)

	if action != "" {
		if err := handleAdaptAction(ctx, action, adaptation, offer, config, logger); err != nil && !errors.Is(err, errExit) {
			logger.Fatal("exiting", zap.Error(err))
		}
		return
	}

	for {
		_, action, err := adaptPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAdaptAction(ctx, action, adaptation, offer, config, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAdaptAction(ctx context.Context, action string, adaptation *resume.Adaptation, offer string, config *Config, logger *zap.Logger) error {
	switch action {
	case PromptJSON:
		pretty, err := json.MarshalIndent(adaptation, "", "  ")
		if err != nil {
			return fmt.Errorf("encode adaptation: %w", err)
		}
		fmt.Println(string(pretty))
		return nil
	case PromptCoverLetter:
		fmt.Println(adaptation.CoverLetter)
		return nil
	case PromptKeywords:
		fmt.Println(strings.Join(adaptation.AddedKeywords, "\n"))
		return nil
	case PromptText:
		fmt.Println(adaptation.Text())
		return nil
	case PromptRescore:
		return rescore(ctx, adaptation, offer, config, logger)
	case PromptQuit:
		logger.Info("exiting", zap.String("reason", "got quit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

// rescore runs the ATS scorer on the rendered adaptation.
func rescore(ctx context.Context, adaptation *resume.Adaptation, offer string, config *Config, logger *zap.Logger) error {
	scorer, err := buildScorer(ctx, config, logger)
	if err != nil {
		return err
	}

	var result ats.Result
	if result, err = scorer.Score(ctx, adaptation.Text(), offer); err != nil {
		return fmt.Errorf("scoring the adapted résumé: %w", err)
	}

	logger.Info("adapted résumé score",
		zap.Int("score", result.Score),
		zap.String("level", string(result.Level)),
	)
	fmt.Println(result.Advice)
	return nil
}
