package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	"ratchet.dev/pkg/ratchet/internal/controller"
	"ratchet.dev/pkg/ratchet/internal/domain"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

var checkFormatFlag string
var checkColorFlag string

// checkCmd represents the check command.
var checkCmd = newCheckCmd()

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Evaluate rules and compare counts against budgets",
		Long: `Walk the repository (or the given paths), evaluate every active rule and
compare the per-region violation counts against the budgets recorded in
ratchet-counts.toml. The command fails when any count exceeds its budget.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace()
			if err != nil {
				return err
			}

			format, err := resolveFormat(checkFormatFlag, ws.cfg.Format)
			if err != nil {
				return err
			}
			color, err := resolveColor(checkColorFlag, ws.cfg.Color)
			if err != nil {
				return err
			}

			report, err := ws.evaluate(cmd.Context(), args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			switch format {
			case "jsonl":
				for _, failure := range report.ParseFailures {
					fmt.Fprintf(errOut, "parse failure: %s: %s\n", failure.File, failure.Message)
				}
				if err := controller.WriteJSONL(out, report); err != nil {
					return fmt.Errorf("%w: %v", m.ErrIO, err)
				}
			default:
				controller.NewHumanRenderer(color).Render(out, errOut, report)
			}

			if report.Exceeded() {
				return fmt.Errorf("%w: %d rule(s) over budget", m.ErrBudgetExceeded, report.RulesExceeded())
			}
			if len(report.ParseFailures) > 0 {
				return fmt.Errorf("%w: %d file(s) could not be parsed", m.ErrParse, len(report.ParseFailures))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&checkFormatFlag, formatFlagName, "", "output format: human or jsonl (default from ratchet.toml)")
	cmd.Flags().StringVar(&checkColorFlag, colorFlagName, "", "colorize output: auto, always or never (default from ratchet.toml)")

	return cmd
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// evaluate runs the full check pipeline against the given paths (default:
// the whole repository) and aggregates the result into a report.
func (w *workspace) evaluate(ctx context.Context, paths []string) (*m.CheckReport, error) {
	walker, err := adapter.NewWalker(w.root, w.cfg.Include, w.cfg.Exclude)
	if err != nil {
		return nil, err
	}
	files, err := walker.Walk(paths)
	if err != nil {
		return nil, err
	}

	engine := domain.NewEngine(w.registry, w.parsers, viper.GetInt(jobsConfigKey))
	result, err := engine.Run(ctx, files)
	if err != nil {
		return nil, err
	}

	return domain.Aggregate(w.registry.Active(), result, w.counts, len(files)), nil
}

// resolveFormat picks the output format: the flag when given, otherwise the
// [output] section of ratchet.toml.
func resolveFormat(flag, configured string) (string, error) {
	switch flag {
	case "":
		return configured, nil
	case "human", "jsonl":
		return flag, nil
	default:
		return "", fmt.Errorf("%w: invalid format %q (want human or jsonl)", m.ErrUsage, flag)
	}
}

// resolveColor decides whether to colorize: auto means stdout is a terminal.
func resolveColor(flag, configured string) (bool, error) {
	setting := configured
	switch flag {
	case "":
	case "auto", "always", "never":
		setting = flag
	default:
		return false, fmt.Errorf("%w: invalid color %q (want auto, always or never)", m.ErrUsage, flag)
	}

	switch setting {
	case "always":
		return true, nil
	case "never":
		return false, nil
	default:
		return term.IsTerminal(int(os.Stdout.Fd())), nil
	}
}
