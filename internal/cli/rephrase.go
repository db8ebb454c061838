package cli

import (
	"fmt"
	"strings"

	"atsmatch/internal/common"
	"atsmatch/internal/config"
	"atsmatch/internal/errors"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

var rephraseCmd = &cobra.Command{
	Use:   "rephrase [section-file] [job-description-file]",
	Short: "Rewrite one resume section toward a job description",
	Long: `Rewrite a single resume section (a bullet list, a summary) so it reads
with more impact and relevance to the job description. The generator is told
never to invent skills or exaggerate results.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: prepareOutput(&rephraseConfig),
	RunE:    runRephrase,
}

var (
	rephraseConfig      common.CommandConfig
	rephraseInstruction string
)

func init() {
	addOutputFlags(rephraseCmd, &rephraseConfig)
	rephraseCmd.Flags().StringVarP(&rephraseInstruction, "instruction", "i", "", "Extra instruction for the rewrite")
}

func runRephrase(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd)
	if err != nil {
		return err
	}

	svcs, err := common.BuildServices(cfg, logger, common.UsageLogger{Logger: logger}, config.OperationRephrase)
	if err != nil {
		return err
	}
	defer func() { _ = svcs.Close() }()
	aiService, err := svcs.Require(config.OperationRephrase)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	err = common.RunCommand(cmd.Context(), logger, rephraseConfig, args,
		func(contents []string) (types.RephraseInput, error) {
			in := types.RephraseInput{Text: contents[0], JDText: contents[1], Instruction: rephraseInstruction}
			if strings.TrimSpace(in.Text) == "" || strings.TrimSpace(in.JDText) == "" {
				return types.RephraseInput{}, errors.NewValidationError(errors.ErrCodeMissingInput, "Missing text or JD", nil)
			}
			return in, nil
		},
		aiService.Rephrase,
		func(in types.RephraseInput, cc common.CommandConfig) {
			logger.Info("Starting section rephrase",
				"text_chars", len(in.Text),
				"job_chars", len(in.JDText),
				"custom_instruction", in.Instruction != "")
		},
	)
	if err != nil {
		return fmt.Errorf("failed to rephrase section: %w", err)
	}
	return nil
}
