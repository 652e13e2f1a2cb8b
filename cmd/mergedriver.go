package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	"ratchet.dev/pkg/ratchet/internal/domain"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

// mergeDriverCmd represents the merge-driver command.
var mergeDriverCmd = newMergeDriverCmd()

func newMergeDriverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge-driver <base> <ours> <theirs>",
		Short: "Git merge driver for the counts file",
		Long: `Merge two counts documents by taking the pointwise minimum budget for
every (rule, region) present on either side, and write the result to
<ours>. Budgets only move down, so the minimum is always the right answer
and the base version is not consulted. Register it in .gitattributes:

    ratchet-counts.toml merge=ratchet-counts

and in git config:

    [merge "ratchet-counts"]
        driver = ratchet merge-driver %O %A %B`,
		Args: cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			// Base must still parse: a corrupt input aborts the merge.
			if _, err := loadMergeInput(args[0]); err != nil {
				return err
			}
			ours, err := loadMergeInput(args[1])
			if err != nil {
				return err
			}
			theirs, err := loadMergeInput(args[2])
			if err != nil {
				return err
			}

			return domain.Merge(ours, theirs).Save(m.Path(args[1]))
		},
	}
}

func init() {
	rootCmd.AddCommand(mergeDriverCmd)
}

// loadMergeInput reads one merge side. Unlike LoadCounts a missing file is
// an error here: git hands the driver three existing temp files.
func loadMergeInput(path string) (*adapter.CountsStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading merge input %s: %v", m.ErrIO, path, err)
	}
	store, err := adapter.ParseCounts(data)
	if err != nil {
		return nil, fmt.Errorf("merge input %s: %w", path, err)
	}
	return store, nil
}
