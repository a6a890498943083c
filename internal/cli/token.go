package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"amciuday/internal/auth"
	"amciuday/internal/config"

	"github.com/spf13/cobra"
)

// TokenCommand returns the "token" command.
func TokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an admin token for the import and renormalize endpoints",
		Long: "Sign an HS256 admin token with ADMIN_JWT_SECRET (or --secret) and\n" +
			"print it. Send it as \"Authorization: Bearer <token>\".",
		Args:         cobra.NoArgs,
		RunE:         runToken,
		SilenceUsage: true,
	}
	cmd.Flags().String("subject", "admin", "Subject recorded in the token and in API logs")
	cmd.Flags().Duration("ttl", config.AdminTokenTTL(), "Token lifetime")
	cmd.Flags().String("secret", os.Getenv("ADMIN_JWT_SECRET"), "Signing secret")
	return cmd
}

func runToken(cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	secret, _ := cmd.Flags().GetString("secret")
	if secret == "" {
		return errors.New("no secret: set ADMIN_JWT_SECRET or pass --secret")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive, got %s", ttl)
	}

	token, exp, err := auth.IssueAdminToken(secret, subject, ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "expires: %s\n", time.Unix(exp, 0).UTC().Format(time.RFC3339))
	return nil
}
