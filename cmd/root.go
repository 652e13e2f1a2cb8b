// Package cmd provides the root command and CLI setup for ratchet.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	"ratchet.dev/pkg/ratchet/internal/domain"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

// jobsFlag is a root-level flag controlling how many files are evaluated
// concurrently.
var jobsFlag int

// verboseFlag switches file logging to debug level.
var verboseFlag bool

const rootLongDescription = `Ratchet enforces per-directory violation budgets for lint rules.

Budgets live in ratchet-counts.toml and can only move down: 'tighten'
lowers them to the currently observed counts, and raising one requires an
explicit 'bump'. A check fails as soon as any (rule, region) count climbs
above its budget, so existing debt is tolerated but new debt is not.`

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "ratchet",
		Short:        "Progressive lint budget enforcement",
		Long:         rootLongDescription,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			configureLogger(viper.GetBool(logVerboseKey))
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

func init() {
	configureRootFlags(rootCmd)
}

func configureRootFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().IntVarP(&jobsFlag, jobsFlagName, "j", viper.GetInt(jobsConfigKey), "number of parallel workers for file evaluation")
	bindFlagToConfig(cmd.PersistentFlags().Lookup(jobsFlagName), jobsConfigKey)

	cmd.PersistentFlags().BoolVar(&verboseFlag, verboseFlagName, viper.GetBool(logVerboseKey), "log at debug level")
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

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitStatus(err))
	}
}

// exitStatus maps an error to the process exit code: budget failures are 1,
// source parse failures are 3, and everything else (usage, config, counts,
// rule and io errors, unknown subcommands) is 2.
func exitStatus(err error) int {
	switch {
	case errors.Is(err, m.ErrBudgetExceeded):
		return 1
	case errors.Is(err, m.ErrParse):
		return 3
	default:
		return 2
	}
}

// workspace bundles everything loaded from the repository root that the
// subcommands share: the validated config, the counts document and the
// compiled rule registry.
type workspace struct {
	root     m.Path
	cfg      *adapter.Config
	counts   *adapter.CountsStore
	parsers  *domain.ParserCache
	registry *domain.Registry
}

func loadWorkspace() (*workspace, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("%w: resolving working directory: %v", m.ErrIO, err)
	}
	return loadWorkspaceAt(m.Path(dir))
}

func loadWorkspaceAt(root m.Path) (*workspace, error) {
	cfg, err := adapter.LoadConfig(m.Path(filepath.Join(root.String(), adapter.ConfigFileName)))
	if err != nil {
		return nil, err
	}
	counts, err := adapter.LoadCounts(m.Path(filepath.Join(root.String(), adapter.CountsFileName)))
	if err != nil {
		return nil, err
	}
	parsers := domain.NewParserCache()
	registry, err := domain.BuildRegistry(cfg, parsers, root)
	if err != nil {
		return nil, err
	}
	return &workspace{root: root, cfg: cfg, counts: counts, parsers: parsers, registry: registry}, nil
}

func (w *workspace) countsPath() m.Path {
	return m.Path(filepath.Join(w.root.String(), adapter.CountsFileName))
}
