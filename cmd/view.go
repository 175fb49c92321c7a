package cmd

import (
	"github.com/spf13/cobra"
)

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "View recorded ranking runs",
		Long:  "View the ranking runs recorded in the history store.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			wf, done, err := openWorkflow(cmd, workflowNeeds{history: true})
			if err != nil {
				return err
			}
			defer done()

			return wf.View(cmd.Context())
		},
	}
}

func init() {
	rootCmd.AddCommand(newViewCmd())
}
