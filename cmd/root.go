// Package cmd provides the root command and CLI setup for afluent.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"afluent.dev/pkg/afluent/internal/adapter"
	"afluent.dev/pkg/afluent/internal/controller"
	"afluent.dev/pkg/afluent/internal/domain"
	m "afluent.dev/pkg/afluent/internal/model"
)

// outputDirFlag is a root-level flag shared by commands that write files.
var outputDirFlag string

// noCacheFlag disables the tie-break dataset cache when set.
var noCacheFlag bool

// excludePatterns drops coverage of matching files for applicable commands.
var excludePatterns []string

var verboseFlag bool

const rootLongDescription = `afluent localizes faults from the results of a test run: it combines
which tests passed or failed with which lines every test covered, scores
each line with spectrum-based suspiciousness formulas and ranks the lines
most likely to hold the bug.

Input is either an afluent per-test JSON report or "go test -json" output
together with one coverprofile per test (--format go --profiles DIR).`

// workflowOpener builds the workflow for a command and returns a cleanup
// func releasing its stores. Tests replace it.
type workflowOpener func(cmd *cobra.Command, needs workflowNeeds) (domain.Workflow, func(), error)

// workflowNeeds selects which stores a command opens.
type workflowNeeds struct {
	history bool
	cache   bool
	watcher bool
}

var openWorkflow workflowOpener = openLocalWorkflow

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	loadConfig()

	cmd := &cobra.Command{
		Use:           "afluent",
		Short:         "Spectrum-based fault localization for Go test runs",
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindLocalFlags(cmd.LocalNonPersistentFlags()); err != nil {
				return err
			}

			configureLogger(viper.GetString(logFilenameKey), viper.GetBool(logVerboseKey))

			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	configureRootFlags(cmd)

	return cmd
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVarP(
			&outputDirFlag, outputFlagName, "o",
			viper.GetString(outputFlagName),
			"output directory for reports",
		)
	bindFlagToConfig(cmd.PersistentFlags().Lookup(outputFlagName), outputFlagName)

	cmd.PersistentFlags().BoolVar(&noCacheFlag, noCacheFlagName, viper.GetBool(noCacheFlagName), "recompute tie-break datasets instead of using the cache")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(noCacheFlagName), noCacheFlagName)

	cmd.PersistentFlags().StringArrayVarP(&excludePatterns, excludeFlagName, "x", viper.GetStringSlice(excludeConfigKey), "exclude covered files matching regex (can be repeated)")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(excludeFlagName), excludeConfigKey)

	cmd.PersistentFlags().BoolVarP(&verboseFlag, verboseFlagName, "v", viper.GetBool(logVerboseKey), "log at debug level")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(verboseFlagName), logVerboseKey)
}

// bindFlagToConfig wires a Cobra flag to a Viper key so config/env values feed the flag.
func bindFlagToConfig(flag *pflag.Flag, key string) {
	if flag == nil {
		cobra.CheckErr(fmt.Errorf("flag for config key %q not found", key))
		return
	}

	cobra.CheckErr(viper.BindPFlag(key, flag))
}

// openLocalWorkflow wires the workflow to the local file system and the
// stores under the output directory.
func openLocalWorkflow(cmd *cobra.Command, needs workflowNeeds) (domain.Workflow, func(), error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func() error

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	fsAdapter := adapter.NewLocalSourceFSAdapter()
	ui := controller.NewUI(cmd, controller.IsTTY(os.Stdout))

	var cache adapter.TiebreakCache = adapter.NopTiebreakCache{}

	if needs.cache && !viper.GetBool(noCacheFlagName) {
		path := viper.GetString(cachePathKey)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, nil, fmt.Errorf("create cache directory: %w", err)
		}

		boltCache, err := adapter.NewBoltTiebreakCache(path)
		if err != nil {
			return nil, nil, err
		}

		cache = boltCache
		closers = append(closers, boltCache.Close)
	}

	analyzer := domain.NewTiebreakAnalyzer(fsAdapter, adapter.NewLocalGoFileAdapter(), cache)

	var history adapter.HistoryStore

	if needs.history {
		path := viper.GetString(historyPathKey)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("create history directory: %w", err)
		}

		store, err := adapter.NewSQLiteHistoryStore(ctx, path)
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		history = store
		closers = append(closers, store.Close)
	}

	var watcher adapter.FileWatcher
	if needs.watcher {
		watcher = adapter.NewFSNotifyWatcher(adapter.DefaultDebounce)
	}

	return domain.NewWorkflow(fsAdapter, ui, analyzer, history, watcher), cleanup, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		stop()
		os.Exit(1)
	}
}

// inputArgs collects the input flags shared by the commands reading a run.
func inputArgs(args []string) domain.InputArgs {
	path := viper.GetString(inputPathKey)
	if len(args) > 0 {
		path = args[0]
	}

	return domain.InputArgs{
		Path:       m.Path(path),
		Format:     viper.GetString(inputFormatKey),
		ProfileDir: viper.GetString(inputProfilesKey),
		TrimPrefix: viper.GetString(inputTrimKey),
		Exclude:    viper.GetStringSlice(excludeConfigKey),
	}
}

func configureInputFlags(cmd *cobra.Command) {
	loadConfig()

	cmd.Flags().StringP(formatFlagName, "f", viper.GetString(inputFormatKey), `input format: "afluent" per-test JSON or "go" test2json events`)
	cmd.Flags().String(profilesFlagName, viper.GetString(inputProfilesKey), "directory of per-test coverprofiles, <Package>/<Test>.cover or <Test>.cover (go format)")
	cmd.Flags().String(trimPrefixFlagName, viper.GetString(inputTrimKey), "prefix cut from coverprofile paths, usually the module path (go format)")
}

func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" {
		return "unknown"
	}

	return info.Main.Version
}
