package cmd

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version and build information",
		Long:  "Displays the ratchet release, the VCS revision it was built from, and the Go toolchain version.",
		Run: func(cmd *cobra.Command, _ []string) {
			release, revision, goVersion := buildMetadata()
			cmd.Printf("ratchet version %s\n", release)
			if revision != "" {
				cmd.Printf("  revision: %s\n", revision)
			}
			cmd.Printf("  go:       %s\n", goVersion)
		},
	}
}

// buildMetadata pulls the release and VCS details from the binary's embedded
// build info. Binaries built outside a released module report "devel".
func buildMetadata() (release, revision, goVersion string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "devel", "", runtime.Version()
	}

	release = info.Main.Version
	if release == "" || release == "(devel)" {
		release = "devel"
	}

	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if modified && revision != "" {
		revision += "-dirty"
	}

	return release, revision, info.GoVersion
}

var versionCmd = newVersionCmd()

func init() {
	rootCmd.AddCommand(versionCmd)
}
