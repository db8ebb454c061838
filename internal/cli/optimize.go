package cli

import (
	"context"
	"fmt"

	"atsmatch/internal/common"
	"atsmatch/internal/config"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume-file] [job-description-file]",
	Short: "Rewrite a resume toward a job description",
	Long: `Score the resume, then ask the generator to rewrite it so that missing
keywords and suggestions are addressed without inventing experience.

The result holds the rewritten resume, a summary of changes and an
expected score boost. When scoring.rescoreOptimized is set the rewrite is
scored again and reported as rescoredTotal.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: prepareOutput(&optimizeConfig),
	RunE:    runOptimize,
}

var optimizeConfig common.CommandConfig

func init() {
	addOutputFlags(optimizeCmd, &optimizeConfig)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd)
	if err != nil {
		return err
	}

	svcs, err := common.BuildServices(cfg, logger, common.UsageLogger{Logger: logger}, config.OperationOptimize)
	if err != nil {
		return err
	}
	defer func() { _ = svcs.Close() }()
	if svcs.Optimizer == nil {
		_, err := svcs.Require(config.OperationOptimize)
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	err = common.RunCommand(cmd.Context(), logger, optimizeConfig, args,
		toMatchInput,
		func(ctx context.Context, in types.MatchInput) (*types.OptimizationResult, error) {
			return svcs.Optimizer.Optimize(ctx, in.ResumeText, in.JobDescription)
		},
		func(in types.MatchInput, cc common.CommandConfig) {
			logger.Info("Starting resume optimization",
				"resume_chars", len(in.ResumeText),
				"job_chars", len(in.JobDescription),
				"output_format", cc.OutputFormat)
		},
	)
	if err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}
	logger.Info("Resume optimization completed successfully")
	return nil
}
