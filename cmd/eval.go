package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"afluent.dev/pkg/afluent/internal/domain"
)

const evalLongDescription = `Evaluate the formulas against a known faulty line.

For every recorded run the EXAM score of the line is computed per formula:
the percentage of ranked lines a developer would not inspect before reaching
it. A run where no test covered the line scores 0; runs that never ranked
by a formula are left out of its summary. --source keeps only the runs
ranked from that input. The mean and sample standard deviation over the
counted runs are shown.`

func newEvalCmd() *cobra.Command {
	var bug, source string

	cmd := &cobra.Command{
		Use:   "eval --bug path:line",
		Short: "Score formulas against a known bug",
		Long:  evalLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			formulas, err := domain.ParseFormulas(viper.GetStringSlice(methodsKey))
			if err != nil {
				return err
			}

			wf, done, err := openWorkflow(cmd, workflowNeeds{history: true})
			if err != nil {
				return err
			}
			defer done()

			return wf.Eval(cmd.Context(), domain.EvalArgs{
				Bug:      bug,
				Formulas: formulas,
				Source:   source,
			})
		},
	}

	loadConfig()

	cmd.Flags().StringVar(&bug, bugFlagName, "", "faulty line as path:line")
	cobra.CheckErr(cmd.MarkFlagRequired(bugFlagName))
	cmd.Flags().StringVar(&source, sourceFlagName, "", "only count runs ranked from this input")
	cmd.Flags().StringSliceP(methodsFlagName, "m", viper.GetStringSlice(methodsKey), "formulas to evaluate")

	return cmd
}

func init() {
	rootCmd.AddCommand(newEvalCmd())
}
