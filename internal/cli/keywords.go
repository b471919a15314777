package cli

import (
	"context"
	"fmt"

	"resumatch/internal/common"
	"resumatch/internal/matcher"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords [file]",
	Short: "List the ranked keyword phrases of a document",
	Long: `List the ranked keyword phrases of a resume or job description, as
used for the keyword overlap part of the match score. Needs no embedding
provider.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareOutput(cmd, &keywordsConfig)
	},
	RunE: runKeywords,
}

var (
	keywordsConfig common.CommandConfig
	keywordsMax    int
)

func init() {
	addOutputFlags(keywordsCmd, &keywordsConfig)
	keywordsCmd.Flags().IntVarP(&keywordsMax, "max", "n", 0, "Maximum number of keywords (default from config)")
}

func runKeywords(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if keywordsMax < 0 {
		return fmt.Errorf("--max must not be negative, got %d", keywordsMax)
	}
	maxKeywords := cfg.Matching.MaxKeywords
	if cmd.Flags().Changed("max") {
		maxKeywords = keywordsMax
	}

	extractor, err := matcher.BuildExtractor(cfg, logger)
	if err != nil {
		return err
	}

	createInput := func(contents []string) (string, error) {
		if len(contents) != 1 {
			return "", fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return contents[0], nil
	}

	extract := func(ctx context.Context, text string) (*types.KeywordReport, error) {
		return &types.KeywordReport{
			Source:   args[0],
			Language: extractor.Stopwords().Language(),
			Keywords: extractor.Extract(text, maxKeywords),
		}, nil
	}

	if err := common.RunCommand(cmd.Context(), logger, keywordsConfig, args, createInput, extract, nil); err != nil {
		return fmt.Errorf("failed to extract keywords: %w", err)
	}
	return nil
}
