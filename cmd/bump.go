package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratchet.dev/pkg/ratchet/internal/domain"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

var bumpRegionFlag string
var bumpCountFlag int64

// bumpCmd represents the bump command.
var bumpCmd = newBumpCmd()

func newBumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bump <rule-id>",
		Short: "Raise the budget for one (rule, region)",
		Long: `Raise the budget for a rule in one region. Without --count the budget is
set to the currently observed violation count. Bump never creates regions
and refuses values below the current budget or the observed count.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace()
			if err != nil {
				return err
			}

			id := m.RuleID(args[0])
			if _, ok := ws.registry.Get(id); !ok {
				return fmt.Errorf("%w: unknown rule %q", m.ErrUsage, id)
			}
			region := m.NormalizeRegion(bumpRegionFlag)

			report, err := ws.evaluate(cmd.Context(), nil)
			if err != nil {
				return err
			}
			observed := observedCount(report, id, region)

			var count *int64
			if cmd.Flags().Changed(countFlagName) {
				count = &bumpCountFlag
			}

			change, err := domain.Bump(ws.counts, id, region, count, observed)
			if err != nil {
				return err
			}
			if err := ws.counts.Save(ws.countsPath()); err != nil {
				return err
			}

			cmd.Printf("bumped %s %s: %d -> %d\n", change.Rule, change.Region, change.Previous, change.Budget)
			return nil
		},
	}

	cmd.Flags().StringVar(&bumpRegionFlag, regionFlagName, "", "region whose budget to raise")
	cobra.CheckErr(cmd.MarkFlagRequired(regionFlagName))
	cmd.Flags().Int64Var(&bumpCountFlag, countFlagName, 0, "new budget (default: currently observed count)")

	return cmd
}

func init() {
	rootCmd.AddCommand(bumpCmd)
}

func observedCount(report *m.CheckReport, id m.RuleID, region m.RegionPath) int64 {
	for _, verdict := range report.Verdicts {
		if verdict.Rule == id && verdict.Region == region {
			return verdict.Count
		}
	}
	return 0
}
