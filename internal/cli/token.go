package cli

import (
	"fmt"
	"time"

	"atsmatch/internal/errors"
	"atsmatch/internal/server"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the HTTP API",
	Long: `Issue an HS256 bearer token signed with server.jwtSecret. Send it as
"Authorization: Bearer <token>".`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

var (
	tokenSubject string
	tokenTTL     time.Duration
)

func init() {
	tokenCmd.Flags().StringVarP(&tokenSubject, "subject", "s", "atsmatch-client", "Token subject")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, logger, err := fromContext(cmd)
	if err != nil {
		return err
	}
	if cfg.Server.JWTSecret == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "server.jwtSecret is not configured", nil)
	}
	if tokenTTL <= 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "ttl must be positive", nil)
	}

	token, err := server.IssueToken(tokenSubject, []byte(cfg.Server.JWTSecret), tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}
	logger.Debug("Issued API token", "subject", tokenSubject, "ttl", tokenTTL)
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
