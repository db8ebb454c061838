package cli

import (
	"context"
	"fmt"

	"atsmatch/internal/common"
	"atsmatch/internal/types"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Extract plain text from a PDF, DOCX, HTML or text file",
	Long: `Extract the text the scorer would see from a document. The type is
inferred from the extension: .pdf, .docx, .html/.htm, .txt and .md.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: prepareOutput(&parseConfig),
	RunE:    runParse,
}

var parseConfig common.CommandConfig

func init() {
	addOutputFlags(parseCmd, &parseConfig)
}

func runParse(cmd *cobra.Command, args []string) error {
	_, logger, err := fromContext(cmd)
	if err != nil {
		return err
	}

	err = common.RunCommand(cmd.Context(), logger, parseConfig, args,
		func(contents []string) (string, error) { return contents[0], nil },
		func(_ context.Context, text string) (types.ParseResult, error) {
			return types.ParseResult{Text: text}, nil
		},
		func(text string, cc common.CommandConfig) {
			logger.Debug("Parsed document", "file", args[0], "chars", len(text))
		},
	)
	if err != nil {
		return fmt.Errorf("failed to parse file: %w", err)
	}
	return nil
}
