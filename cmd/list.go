package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratchet.dev/pkg/ratchet/internal/controller"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

var listFormatFlag string

// listCmd represents the list command.
var listCmd = newListCmd()

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the active rules",
		Long: `List every rule that survives the config and language filters: builtins,
disk overrides and user rules from the ratchets/ directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace()
			if err != nil {
				return err
			}
			format, err := resolveFormat(listFormatFlag, ws.cfg.Format)
			if err != nil {
				return err
			}

			if format == "jsonl" {
				if err := controller.WriteRuleJSONL(cmd.OutOrStdout(), ws.registry.Active()); err != nil {
					return fmt.Errorf("%w: %v", m.ErrIO, err)
				}
				return nil
			}
			controller.WriteRuleTable(cmd.OutOrStdout(), ws.registry.Active())
			return nil
		},
	}

	cmd.Flags().StringVar(&listFormatFlag, formatFlagName, "", "output format: human or jsonl (default from ratchet.toml)")

	return cmd
}

func init() {
	rootCmd.AddCommand(listCmd)
}
