package cli

import (
	"fmt"

	"atsmatch/internal/common"
	"atsmatch/internal/config"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [resume-file] [job-description-file]",
	Short: "Analyze the gaps between a resume and a job description",
	Long: `Ask the generator for a structured gap analysis:
- Keyword coverage, semantic similarity and seniority scores
- Missing keywords and weak matches with preferred wording
- Over-represented terms
- Seniority comparison (Match, Underqualified or Overqualified)

The total is recomputed locally from the three sub-scores.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: prepareOutput(&analyzeConfig),
	RunE:    runAnalyze,
}

var analyzeConfig common.CommandConfig

func init() {
	addOutputFlags(analyzeCmd, &analyzeConfig)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd)
	if err != nil {
		return err
	}

	svcs, err := common.BuildServices(cfg, logger, common.UsageLogger{Logger: logger}, config.OperationAnalyze)
	if err != nil {
		return err
	}
	defer func() { _ = svcs.Close() }()
	aiService, err := svcs.Require(config.OperationAnalyze)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	err = common.RunCommand(cmd.Context(), logger, analyzeConfig, args,
		func(contents []string) (types.GapAnalysisInput, error) {
			in, err := toMatchInput(contents)
			if err != nil {
				return types.GapAnalysisInput{}, err
			}
			return types.GapAnalysisInput{ResumeText: in.ResumeText, JDText: in.JobDescription}, nil
		},
		aiService.AnalyzeGap,
		func(in types.GapAnalysisInput, cc common.CommandConfig) {
			logger.Info("Starting gap analysis",
				"resume_chars", len(in.ResumeText),
				"job_chars", len(in.JDText),
				"output_format", cc.OutputFormat)
		},
	)
	if err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	logger.Info("Gap analysis completed successfully")
	return nil
}
