package cmd

import (
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [report]",
		Short: "Rank again whenever the report changes",
		Long:  "Rank the report, then watch it and rank again every time it is rewritten. Stop with Ctrl+C.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rankArgs, err := rankArgsFromConfig(args)
			if err != nil {
				return err
			}

			wf, done, err := openWorkflow(cmd, workflowNeeds{history: true, cache: true, watcher: true})
			if err != nil {
				return err
			}
			defer done()

			return wf.Watch(cmd.Context(), rankArgs)
		},
	}

	configureRankFlags(cmd)
	configureInputFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(newWatchCmd())
}
