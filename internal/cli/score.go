package cli

import (
	"context"
	"fmt"

	"atsmatch/internal/common"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/scoring"
	"atsmatch/internal/types"
	"atsmatch/internal/watch"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Score a resume against a job description without calling any model.

The score is the sum of four parts:
- Keyword coverage: job keywords found in the resume
- Structure: recognizable Experience, Education and Skills sections
- Length: word count within the expected range
- Overall similarity: vocabulary overlap between the two documents

PDF, DOCX and HTML inputs are converted to text first. With --watch the
score is recomputed whenever either file changes.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: prepareOutput(&scoreConfig),
	RunE:    runScore,
}

var (
	scoreConfig common.CommandConfig
	scoreWatch  bool
)

func init() {
	addOutputFlags(scoreCmd, &scoreConfig)
	scoreCmd.Flags().BoolVarP(&scoreWatch, "watch", "w", false, "Re-score whenever either file changes")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd)
	if err != nil {
		return err
	}

	pipeline, err := common.BuildPipeline(cfg, logger)
	if err != nil {
		return err
	}

	if err := scoreOnce(cmd.Context(), logger, pipeline, args); err != nil {
		if !scoreWatch {
			return fmt.Errorf("failed to score resume: %w", err)
		}
		logger.LogError(err, "Scoring failed, waiting for changes")
	}
	if !scoreWatch {
		return nil
	}
	return watchAndScore(cmd.Context(), cfg, logger, pipeline, args)
}

func scoreOnce(ctx context.Context, logger *errors.Logger, pipeline *scoring.Pipeline, args []string) error {
	return common.RunCommand(ctx, logger, scoreConfig, args,
		toMatchInput,
		func(_ context.Context, in types.MatchInput) (types.ScoreResult, error) {
			result := pipeline.Score(in.ResumeText, in.JobDescription)
			logger.Info("Resume scored",
				"score", result.Score,
				"matched_keywords", len(result.Analysis.MatchedKeywords),
				"missing_keywords", len(result.Analysis.MissingKeywords))
			return result, nil
		},
		func(in types.MatchInput, cc common.CommandConfig) {
			logger.Debug("Starting resume scoring",
				"resume_chars", len(in.ResumeText),
				"job_chars", len(in.JobDescription),
				"output_format", cc.OutputFormat)
		},
	)
}

// watchAndScore re-scores on every debounced change until ctx is cancelled
func watchAndScore(ctx context.Context, cfg *config.Config, logger *errors.Logger, pipeline *scoring.Pipeline, args []string) error {
	w, err := watch.New(args, cfg.Scoring.WatchDebounce, func(changed []string) {
		logger.Info("Input changed, re-scoring", "files", changed)
		if err := scoreOnce(ctx, logger, pipeline, args); err != nil {
			logger.LogError(err, "Scoring failed, waiting for changes")
		}
	}, logger)
	if err != nil {
		return err
	}
	return w.Run(ctx)
}
