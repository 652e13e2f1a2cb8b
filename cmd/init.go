package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ratchet.dev/pkg/ratchet/internal/adapter"
	"ratchet.dev/pkg/ratchet/internal/domain"
	m "ratchet.dev/pkg/ratchet/internal/model"
)

var initForceFlag bool

const defaultConfigDoc = `[ratchet]
version = "1"
# Trim this list to the languages your repository actually uses.
languages = ["rust", "typescript", "javascript", "python", "go"]
include = ["**/*"]
exclude = []

[rules]
# Builtin rules are enabled by default. Disable one with:
# no-todo-comments = false
# Or override its severity with:
# no-unwrap = { severity = "warning" }

[output]
format = "human"
color = "auto"
`

// initCmd represents the init command.
var initCmd = newInitCmd()

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the ratchet project files",
		Long: `Create ratchet.toml, an empty ratchet-counts.toml and the ratchets/
rule directories in the current working directory. Existing files are left
untouched unless --force is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("%w: resolving working directory: %v", m.ErrIO, err)
			}
			return initProject(cmd, dir, initForceFlag)
		},
	}

	cmd.Flags().BoolVar(&initForceFlag, forceFlagName, false, "overwrite existing files")

	return cmd
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initProject(cmd *cobra.Command, dir string, force bool) error {
	if err := writeProjectFile(cmd, filepath.Join(dir, adapter.ConfigFileName), []byte(defaultConfigDoc), force); err != nil {
		return err
	}

	counts := adapter.NewCountsStore().Serialize()
	if err := writeProjectFile(cmd, filepath.Join(dir, adapter.CountsFileName), []byte(counts), force); err != nil {
		return err
	}

	for _, sub := range []string{"regex", "ast"} {
		ruleDir := filepath.Join(dir, domain.UserDirName, sub)
		if err := os.MkdirAll(ruleDir, 0o755); err != nil {
			return fmt.Errorf("%w: creating %s: %v", m.ErrIO, ruleDir, err)
		}
	}
	cmd.Printf("created %s/\n", domain.UserDirName)

	return nil
}

func writeProjectFile(cmd *cobra.Command, path string, content []byte, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		cmd.Printf("skipped %s (exists)\n", filepath.Base(path))
		return nil
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", m.ErrIO, path, err)
	}
	cmd.Printf("created %s\n", filepath.Base(path))
	return nil
}
