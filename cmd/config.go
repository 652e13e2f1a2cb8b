package cmd

import (
	"log/slog"
	"runtime"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	jobsFlagName    = "jobs"
	formatFlagName  = "format"
	colorFlagName   = "color"
	regionFlagName  = "region"
	countFlagName   = "count"
	forceFlagName   = "force"
	verboseFlagName = "verbose"

	jobsConfigKey = "jobs"

	envPrefix = "RATCHET"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".ratchet.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// Project documents (ratchet.toml, ratchet-counts.toml, rule files) are
// parsed by the adapter package; viper only layers environment variables
// and flags over built-in defaults (e.g. RATCHET_JOBS feeds the jobs key).
func init() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(jobsConfigKey, runtime.NumCPU())

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// resolveLogLevel maps the RATCHET_LOG_LEVEL setting to a slog level. The
// --verbose flag overrides any configured level with debug. Named levels and
// raw slog numbers (e.g. -4) are both accepted; anything else falls back to
// info.
func resolveLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}

	switch name := strings.ToLower(strings.TrimSpace(viper.GetString(logLevelKey))); name {
	case "", "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		if n, err := strconv.Atoi(name); err == nil {
			return slog.Level(n)
		}
		return slog.LevelInfo
	}
}

// configureLogger routes slog through a rotating run log next to the project.
// Diagnostics never share stdout with check output, which must stay
// machine-parseable.
func configureLogger(verbose bool) {
	logWriter := &lumberjack.Logger{
		Filename:   viper.GetString(logFilenameKey),
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		Level: resolveLogLevel(verbose),
	})

	slog.SetDefault(slog.New(handler).With(slog.String("app", "ratchet")))
}
