package cli

import (
	"fmt"
	"strings"

	"atsmatch/internal/common"
	"atsmatch/internal/errors"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

// addOutputFlags registers --output and --format on cmd
func addOutputFlags(cmd *cobra.Command, cc *common.CommandConfig) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
}

// prepareOutput fills format defaults and validates the format. Used as PreRunE.
func prepareOutput(cc *common.CommandConfig) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if cc.OutputFormat == "" {
			cc.OutputFormat = cfg.App.DefaultFormat
		}
		cc.MaxFileSize = cfg.App.MaxFileSize
		cc.Stdout = cmd.OutOrStdout()
		return common.ValidateOutputFormat(cc.OutputFormat, cfg.App.SupportedFormats)
	}
}

// toMatchInput builds the resume/job pair from two file contents
func toMatchInput(contents []string) (types.MatchInput, error) {
	if len(contents) != 2 {
		return types.MatchInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
	}
	in := types.MatchInput{ResumeText: contents[0], JobDescription: contents[1]}
	if strings.TrimSpace(in.ResumeText) == "" || strings.TrimSpace(in.JobDescription) == "" {
		return types.MatchInput{}, errors.NewValidationError(errors.ErrCodeMissingInput, "Missing resume or JD text", nil)
	}
	return in, nil
}
