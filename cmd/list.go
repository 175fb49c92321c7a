package cmd

import (
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [report]",
		Short: "List covered files and line counts",
		Long:  "List every covered file of a test run with its number of covered lines and of lines covered by a failing test.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, done, err := openWorkflow(cmd, workflowNeeds{})
			if err != nil {
				return err
			}
			defer done()

			return wf.List(cmd.Context(), inputArgs(args))
		},
	}

	configureInputFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(newListCmd())
}
