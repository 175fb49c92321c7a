package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"afluent.dev/pkg/afluent/internal/domain"
	m "afluent.dev/pkg/afluent/internal/model"
)

const rankLongDescription = `Rank the covered lines of a test run by suspiciousness.

Every line is scored with the --methods formulas and ordered by the
--primary one (default: the first method). Lines with equal scores are
ordered by the --tiebreaker strategy:
  random      shuffle, reproducible with --seed
  cyclomatic  cyclomatic complexity of the enclosing function
  logical     number of mutable operators on the line
  enhanced    operators on the line and its enclosing constructs

Every run is recorded in the history store so "afluent eval" can score the
formulas against a known bug later.`

func newRankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rank [report]",
		Aliases: []string{"run"},
		Short:   "Rank lines by suspiciousness",
		Long:    rankLongDescription,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rankArgs, err := rankArgsFromConfig(args)
			if err != nil {
				return err
			}

			wf, done, err := openWorkflow(cmd, workflowNeeds{history: true, cache: true})
			if err != nil {
				return err
			}
			defer done()

			return wf.Rank(cmd.Context(), rankArgs)
		},
	}

	configureRankFlags(cmd)
	configureInputFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(newRankCmd())
}

func configureRankFlags(cmd *cobra.Command) {
	loadConfig()

	cmd.Flags().StringSliceP(methodsFlagName, "m", viper.GetStringSlice(methodsKey), "suspiciousness formulas to compute, in display order")
	cmd.Flags().StringP(primaryFlagName, "p", viper.GetString(primaryKey), "formula to rank by (default: first method)")
	cmd.Flags().Float64(dstarPowFlagName, viper.GetFloat64(dstarPowKey), "power of the DStar formula")
	cmd.Flags().IntP(resultsFlagName, "n", viper.GetInt(resultsKey), "number of lines to show, 0 for all")
	cmd.Flags().StringP(tiebreakerFlagName, "t", viper.GetString(tiebreakerKey), "tie-break strategy: random, cyclomatic, logical or enhanced")
	cmd.Flags().Int64(seedFlagName, viper.GetInt64(seedKey), "seed of the random tie-break, 0 for a fresh one")
	cmd.Flags().StringP(reportFlagName, "r", viper.GetString(reportKey), "also write a json, csv or sarif report to the output directory")
	cmd.Flags().Int(parallelFlagName, viper.GetInt(parallelKey), "number of files analyzed in parallel for tie-breaks")
	cmd.Flags().String(rootFlagName, viper.GetString(analysisRootKey), "directory covered paths are relative to")
	cmd.Flags().String(tiebreakDataFlag, viper.GetString(datasetKey), "YAML file with precomputed tie-break datasets instead of source analysis")
}

func rankArgsFromConfig(args []string) (domain.RankArgs, error) {
	formulas, err := domain.ParseFormulas(viper.GetStringSlice(methodsKey))
	if err != nil {
		return domain.RankArgs{}, err
	}

	if len(formulas) == 0 {
		formulas = m.DefaultFormulas()
	}

	primary := m.Formula(viper.GetString(primaryKey))
	if primary == "" {
		primary = formulas[0]
	}

	tiebreak, err := domain.ParseTiebreak(viper.GetString(tiebreakerKey))
	if err != nil {
		return domain.RankArgs{}, err
	}

	return domain.RankArgs{
		Input:       inputArgs(args),
		Formulas:    formulas,
		Primary:     primary,
		Power:       viper.GetFloat64(dstarPowKey),
		Tiebreak:    tiebreak,
		Seed:        viper.GetInt64(seedKey),
		Limit:       viper.GetInt(resultsKey),
		Root:        m.Path(viper.GetString(analysisRootKey)),
		Threads:     viper.GetInt(parallelKey),
		DatasetFile: viper.GetString(datasetKey),
		Report:      viper.GetString(reportKey),
		Output:      m.Path(viper.GetString(outputFlagName)),
		Version:     buildVersion(),
	}, nil
}
