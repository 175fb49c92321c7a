package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"afluent.dev/pkg/afluent/internal/adapter"
	"afluent.dev/pkg/afluent/internal/domain"
	m "afluent.dev/pkg/afluent/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "afluent"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName     = "output"
	noCacheFlagName    = "no-cache"
	excludeFlagName    = "exclude"
	verboseFlagName    = "verbose"
	methodsFlagName    = "methods"
	primaryFlagName    = "primary"
	dstarPowFlagName   = "dstar-pow"
	resultsFlagName    = "results"
	tiebreakerFlagName = "tiebreaker"
	seedFlagName       = "seed"
	reportFlagName     = "report"
	formatFlagName     = "format"
	profilesFlagName   = "profiles"
	trimPrefixFlagName = "trim-prefix"
	parallelFlagName   = "parallel"
	rootFlagName       = "root"
	tiebreakDataFlag   = "tiebreak-data"
	bugFlagName        = "bug"
	sourceFlagName     = "source"
	historyFlagName    = "history"
	cacheFlagName      = "cache"

	methodsKey       = "methods"
	primaryKey       = "primary"
	dstarPowKey      = "dstar_pow"
	resultsKey       = "results"
	tiebreakerKey    = "tiebreaker"
	seedKey          = "seed"
	reportKey        = "report"
	excludeConfigKey = "paths.exclude"
	inputPathKey     = "input.path"
	inputFormatKey   = "input.format"
	inputProfilesKey = "input.profiles"
	inputTrimKey     = "input.trim_prefix"
	parallelKey      = "analysis.parallel"
	analysisRootKey  = "analysis.root"
	datasetKey       = "analysis.dataset"
	historyPathKey   = "history.path"
	cachePathKey     = "cache.path"

	defaultOutputDir   = ".afluent"
	defaultInputPath   = "afluent_per_test_report.json"
	defaultResults     = 20
	defaultTiebreaker  = m.TiebreakRandom
	defaultNoCache     = false
	defaultHistoryFile = "history.db"
	defaultCacheFile   = "tiebreaks.db"

	envPrefix = "AFLUENT"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".afluent.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var (
	globalLogger *slog.Logger
	configOnce   sync.Once
)

func init() {
	loadConfig()
}

// loadConfig sets the defaults and reads afluent.yaml once. Flag
// constructors call it so flag defaults reflect the config file.
func loadConfig() {
	configOnce.Do(readConfig)
}

func readConfig() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Debug("config file not loaded", "error", err)
		}
	}
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultOutputDir)
	viper.SetDefault(noCacheFlagName, defaultNoCache)
	viper.SetDefault(excludeConfigKey, []string{})

	viper.SetDefault(methodsKey, formulaNames(m.DefaultFormulas()))
	viper.SetDefault(primaryKey, "")
	viper.SetDefault(dstarPowKey, domain.DefaultDStarPower)
	viper.SetDefault(resultsKey, defaultResults)
	viper.SetDefault(tiebreakerKey, string(defaultTiebreaker))
	viper.SetDefault(seedKey, int64(0))
	viper.SetDefault(reportKey, "")

	viper.SetDefault(inputPathKey, defaultInputPath)
	viper.SetDefault(inputFormatKey, adapter.FormatAFLuent)
	viper.SetDefault(inputProfilesKey, "")
	viper.SetDefault(inputTrimKey, "")

	viper.SetDefault(parallelKey, runtime.NumCPU())
	viper.SetDefault(analysisRootKey, ".")
	viper.SetDefault(datasetKey, "")

	viper.SetDefault(historyPathKey, filepath.Join(defaultOutputDir, defaultHistoryFile))
	viper.SetDefault(cachePathKey, filepath.Join(defaultOutputDir, defaultCacheFile))

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// localFlagKeys maps command-local flags to their config keys. Several
// commands share a key, so the binding happens when a command runs.
var localFlagKeys = map[string]string{
	methodsFlagName:    methodsKey,
	primaryFlagName:    primaryKey,
	dstarPowFlagName:   dstarPowKey,
	resultsFlagName:    resultsKey,
	tiebreakerFlagName: tiebreakerKey,
	seedFlagName:       seedKey,
	reportFlagName:     reportKey,
	formatFlagName:     inputFormatKey,
	profilesFlagName:   inputProfilesKey,
	trimPrefixFlagName: inputTrimKey,
	parallelFlagName:   parallelKey,
	rootFlagName:       analysisRootKey,
	tiebreakDataFlag:   datasetKey,
	historyFlagName:    historyPathKey,
	cacheFlagName:      cachePathKey,
}

// bindLocalFlags binds the running command's local flags to viper.
func bindLocalFlags(flags *pflag.FlagSet) error {
	var err error

	flags.VisitAll(func(flag *pflag.Flag) {
		key, ok := localFlagKeys[flag.Name]
		if !ok || err != nil {
			return
		}

		err = viper.BindPFlag(key, flag)
	})

	return err
}

func formulaNames(formulas []m.Formula) []string {
	names := make([]string, 0, len(formulas))
	for _, formula := range formulas {
		names = append(names, string(formula))
	}

	return names
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels, e.g. -4 for debug.
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the default slog logger at a rotated log file.
// It logs at the configured level, or Debug when verbose is set.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
