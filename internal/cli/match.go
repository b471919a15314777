package cli

import (
	"context"
	"fmt"
	"strings"

	"resumatch/internal/common"
	"resumatch/internal/errors"
	"resumatch/internal/matcher"
	"resumatch/internal/types"

	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Score a resume against a job description.
The command takes two arguments: the path to the resume and the path to the
job description. Plain text and Markdown files are read as-is; HTML files
(.html, .htm) are reduced to their visible text first.

The final score is semanticWeight*semantic + keywordWeight*overlap, where
semantic is the cosine similarity of the two texts' embeddings and overlap is
the share of job keywords found among the resume keywords.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("please provide both a resume file and a job description file (got %d argument(s))", len(args))
		}
		return nil
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareOutput(cmd, &matchConfig)
	},
	RunE: runMatch,
}

var (
	matchConfig      common.CommandConfig
	matchMaxKeywords int
	matchOverlapMode string
)

func init() {
	addOutputFlags(matchCmd, &matchConfig)
	matchCmd.Flags().IntVar(&matchMaxKeywords, "max-keywords", 0, "Keywords kept per document (default from config)")
	matchCmd.Flags().StringVar(&matchOverlapMode, "overlap-mode", "", "Keyword overlap: exact or token (default from config)")
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg := *getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	if cmd.Flags().Changed("max-keywords") {
		cfg.Matching.MaxKeywords = matchMaxKeywords
	}
	if matchOverlapMode != "" {
		cfg.Matching.OverlapMode = matchOverlapMode
	}

	components, err := matcher.Build(&cfg, logger, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := components.Close(); err != nil {
			logger.Warn("Failed to release pipeline resources", "error", err.Error())
		}
	}()

	createInput := func(contents []string) (types.MatchRequest, error) {
		if len(contents) != 2 {
			return types.MatchRequest{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		if strings.TrimSpace(contents[0]) == "" || strings.TrimSpace(contents[1]) == "" {
			return types.MatchRequest{}, errors.NewEmptyInputError("one of the files is empty")
		}
		return types.MatchRequest{
			Resume:         contents[0],
			JobDescription: contents[1],
		}, nil
	}

	logDetails := func(input types.MatchRequest, cmdCfg common.CommandConfig) {
		logger.Info("Starting resume match",
			"resume_chars", len(input.Resume),
			"job_chars", len(input.JobDescription),
			"provider", cfg.Embedding.Provider,
			"output_format", cmdCfg.OutputFormat)
	}

	matchOperation := func(ctx context.Context, input types.MatchRequest) (*types.MatchReport, error) {
		return components.Pipeline.Run(ctx, input.Resume, input.JobDescription)
	}

	if err := common.RunCommand(cmd.Context(), logger, matchConfig, args, createInput, matchOperation, logDetails); err != nil {
		return fmt.Errorf("failed to match resume: %w", err)
	}
	logger.Info("Resume match completed successfully")
	return nil
}

// addOutputFlags registers -o/--output and -f/--format on cmd
func addOutputFlags(cmd *cobra.Command, cmdCfg *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdCfg.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVarP(&cmdCfg.OutputFormat, "format", "f", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
}

// prepareOutput applies the configured defaults to cmdCfg and validates the format
func prepareOutput(cmd *cobra.Command, cmdCfg *common.CommandConfig) error {
	cfg := getConfigFromContext(cmd.Context())
	if cmdCfg.OutputFormat == "" {
		cmdCfg.OutputFormat = cfg.App.DefaultFormat
	}
	cmdCfg.MaxFileSize = cfg.App.MaxFileSize
	cmdCfg.Stdout = cmd.OutOrStdout()
	return common.ValidateOutputFormat(cmdCfg.OutputFormat, cfg.App.SupportedFormats)
}
