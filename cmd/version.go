package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/gearstra/vtt-potion-toxicity-5e/internal/engine"

	"github.com/spf13/cobra"
)

var (
	// Version, Commit and BuildDate are set with -ldflags "-X ..." on release builds.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// buildMetadata is what `toxicity version` reports.
type buildMetadata struct {
	Version   string
	Commit    string
	BuildDate string
	Modified  bool
	GoVersion string
	Platform  string
}

// resolveBuild fills in whatever ldflags left at their defaults from the
// module and VCS stamps the go tool embeds.
func resolveBuild(info *debug.BuildInfo, ok bool) buildMetadata {
	m := buildMetadata{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if !ok || info == nil {
		return m
	}

	m.GoVersion = info.GoVersion
	if m.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		m.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if m.Commit == "none" {
				m.Commit = s.Value
			}
		case "vcs.time":
			if m.BuildDate == "unknown" {
				m.BuildDate = s.Value
			}
		case "vcs.modified":
			m.Modified = s.Value == "true"
		}
	}
	return m
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the application version",
	Long:  `Displays the current running version of toxicity alongside the build metadata.`,
	Run: func(cmd *cobra.Command, args []string) {
		m := resolveBuild(debug.ReadBuildInfo())
		if short, _ := cmd.Flags().GetBool("short"); short {
			fmt.Println(m.Version)
			return
		}

		commit := m.Commit
		if m.Modified {
			commit += " (modified)"
		}
		fmt.Printf("toxicity version %s\n", m.Version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Build date: %s\n", m.BuildDate)
		fmt.Printf("Go: %s %s\n", m.GoVersion, m.Platform)
		fmt.Printf("Overflow die: %s, %d severity tiers by default\n", engine.OverflowDie, len(engine.DefaultSeverityTable()))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("short", false, "print only the version")
}
