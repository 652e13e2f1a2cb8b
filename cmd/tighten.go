package cmd

import (
	"github.com/spf13/cobra"

	"ratchet.dev/pkg/ratchet/internal/domain"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

var tightenRegionFlag string

// tightenCmd represents the tighten command.
var tightenCmd = newTightenCmd()

func newTightenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tighten [rule-id]",
		Short: "Lower budgets to the currently observed counts",
		Long: `Lower every budget that sits above its currently observed violation count.
An optional rule id and --region narrow the scope. If any in-scope count
exceeds its budget, nothing is written and the command fails.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace()
			if err != nil {
				return err
			}

			var rule m.RuleID
			if len(args) == 1 {
				rule = m.RuleID(args[0])
			}
			var region m.RegionPath
			if tightenRegionFlag != "" {
				region = m.NormalizeRegion(tightenRegionFlag)
			}

			report, err := ws.evaluate(cmd.Context(), nil)
			if err != nil {
				return err
			}

			changes, err := domain.Tighten(ws.counts, report.Verdicts, rule, region)
			if err != nil {
				return err
			}
			if len(changes) == 0 {
				cmd.Println("all budgets already match the observed counts")
				return nil
			}
			if err := ws.counts.Save(ws.countsPath()); err != nil {
				return err
			}

			for _, change := range changes {
				cmd.Printf("tightened %s %s: %d -> %d\n", change.Rule, change.Region, change.Previous, change.Budget)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&tightenRegionFlag, regionFlagName, "", "restrict tightening to one region")

	return cmd
}

func init() {
	rootCmd.AddCommand(tightenCmd)
}
