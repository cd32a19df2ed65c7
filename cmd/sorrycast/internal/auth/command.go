package auth

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sorrycast/cmd/sorrycast/internal"
	authpkg "sorrycast/pkg/auth"
)

func NewAuthCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the sorrycast backend credential",
	}

	cmd.AddCommand(newLoginCommand(), newStatusCommand())

	return cmd
}

func newLoginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store a backend access token",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cred, err := authpkg.LoginPasteToken(os.Stdin)
			if err != nil {
				return err
			}
			path := internal.GetCredentialPath()
			if err := authpkg.SaveCredential(path, cred); err != nil {
				return fmt.Errorf("saving credential: %w", err)
			}
			fmt.Printf("%s Credential saved to %s\n", internal.Logo, path)
			return nil
		},
	}
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a credential is stored",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cred, err := authpkg.LoadCredential(internal.GetCredentialPath())
			if err != nil {
				return err
			}
			if cred == nil {
				fmt.Println("No credential stored. Run `sorrycast auth login`.")
				return nil
			}
			fmt.Printf("Credential present (method: %s)\n", cred.AuthMethod)
			return nil
		},
	}
}
