package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"afluent.dev/pkg/afluent/internal/domain"
	m "afluent.dev/pkg/afluent/internal/model"
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <out> <report>...",
		Short: "Merge sharded per-test reports",
		Long: `Merge the per-test reports of several shards into one afluent report.
Test case ids must be unique across the shards.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, done, err := openWorkflow(cmd, workflowNeeds{})
			if err != nil {
				return err
			}
			defer done()

			inputs := make([]domain.InputArgs, 0, len(args)-1)
			for _, path := range args[1:] {
				inputs = append(inputs, domain.InputArgs{
					Path:       m.Path(path),
					Format:     viper.GetString(inputFormatKey),
					ProfileDir: viper.GetString(inputProfilesKey),
					TrimPrefix: viper.GetString(inputTrimKey),
				})
			}

			return wf.Merge(cmd.Context(), domain.MergeArgs{
				Output: m.Path(args[0]),
				Inputs: inputs,
			})
		},
	}

	configureInputFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(newMergeCmd())
}
