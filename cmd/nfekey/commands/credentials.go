package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Shimizu-Technology/nfe-key-api/internal/config"
	"github.com/Shimizu-Technology/nfe-key-api/internal/middleware"
)

var (
	tokenSubject string
	tokenTTL     time.Duration
)

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key <raw-key>",
	Short: "Print the bcrypt hash of an API key for API_KEY_HASHES",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := middleware.HashKey(args[0])
		if err != nil {
			return fmt.Errorf("hash key: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a JWT signed with JWT_SECRET",
	RunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			secret = config.DefaultJWTSecret
			fmt.Fprintln(cmd.ErrOrStderr(), "⚠️  JWT_SECRET not set, signing with the development secret")
		}

		token, expires, err := middleware.GenerateJWT(tokenSubject, secret, tokenTTL)
		if err != nil {
			return fmt.Errorf("generate token: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]any{"token": token, "expires_at": expires})
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "token subject, usually a client name (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", middleware.TokenTTL, "token lifetime")
	tokenCmd.MarkFlagRequired("subject")

	rootCmd.AddCommand(hashKeyCmd, tokenCmd)
}
