// Sorrycast - apology video client for detected angry messages.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sorrycast/cmd/sorrycast/internal"
	"sorrycast/cmd/sorrycast/internal/auth"
	"sorrycast/cmd/sorrycast/internal/inbox"
	"sorrycast/cmd/sorrycast/internal/onboard"
	"sorrycast/cmd/sorrycast/internal/version"
	"sorrycast/cmd/sorrycast/internal/wizard"
)

func NewSorrycastCommand() *cobra.Command {
	short := fmt.Sprintf("%s sorrycast - Apology Video Assistant v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "sorrycast",
		Short:   short,
		Example: "sorrycast inbox list",
	}

	cmd.AddCommand(
		auth.NewAuthCommand(),
		onboard.NewOnboardCommand(),
		inbox.NewInboxCommand(),
		wizard.NewWizardCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewSorrycastCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
