package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// loadPromptFiles replaces inline prompt text with file content for every
// operation that names a prompt file. Files win over inline text.
func (c *Config) loadPromptFiles() error {
	ops := map[string]*OperationAIConfig{
		OperationOptimize: &c.AI.Optimize,
		OperationAnalyze:  &c.AI.Analyze,
		OperationRephrase: &c.AI.Rephrase,
	}
	for name, op := range ops {
		if op.Prompts.SystemFile != "" {
			content, err := loadPromptFromFile(op.Prompts.SystemFile, "system", name)
			if err != nil {
				return err
			}
			op.Prompts.System = content
		}
		if op.Prompts.UserFile != "" {
			content, err := loadPromptFromFile(op.Prompts.UserFile, "user", name)
			if err != nil {
				return err
			}
			op.Prompts.User = content
		}
	}
	return nil
}

func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
		}
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	trimmed := strings.TrimSpace(string(content))
	if trimmed == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	log.Printf("[CONFIG] Loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmed))
	return trimmed, nil
}
