package common

import (
	"context"

	"atsmatch/internal/errors"
)

// UsageLogger reports generator token usage through the logger. The CLI uses
// it where the server reports through metrics.
type UsageLogger struct {
	Logger *errors.Logger
}

func (u UsageLogger) RecordTokenUsage(_ context.Context, operation string, input, output, total int64) {
	u.Logger.Info("AI token usage",
		"operation", operation,
		"input_tokens", input,
		"output_tokens", output,
		"total_tokens", total)
}
