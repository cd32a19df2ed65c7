package wizard

import (
	"github.com/spf13/cobra"
)

func NewWizardCommand() *cobra.Command {
	var messageID string

	cmd := &cobra.Command{
		Use:     "wizard",
		Aliases: []string{"w"},
		Short:   "Walk one detected message through the apology flow",
		Example: "sorrycast wizard --message m1",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return wizardCmd(messageID)
		},
	}

	cmd.Flags().StringVarP(&messageID, "message", "m", "", "ID of the detected message to apologize for")

	return cmd
}
