package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/echod/pkg/cli/internal/output"
)

// VersionOutput represents JSON output format
type VersionOutput struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show echod version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, _ := debug.ReadBuildInfo()
		out := resolveVersion(Version, Commit, BuildDate, info)
		if jsonOutput {
			return output.JSON(cmd.OutOrStdout(), out)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "echod %s (%s, %s)\n", displayVersion(out.Version), out.Commit, out.Date)
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s/%s\n", out.Go, out.OS, out.Arch)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// shortCommitLen matches the abbreviation git prints by default in most
// repositories of this size.
const shortCommitLen = 12

// resolveVersion merges the ldflags values with the module build info. An
// ldflags value wins whenever it was set; info may be nil.
func resolveVersion(version, commit, date string, info *debug.BuildInfo) VersionOutput {
	out := VersionOutput{
		Version: version,
		Commit:  commit,
		Date:    date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
	if info == nil {
		return out
	}

	// "(devel)" is what the toolchain reports for a plain go build.
	if out.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		out.Version = info.Main.Version
	}

	vcs := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}
	if out.Commit == "none" {
		if rev := vcs["vcs.revision"]; rev != "" {
			out.Commit = shorten(rev, shortCommitLen)
			if vcs["vcs.modified"] == "true" {
				out.Commit += "-dirty"
			}
		}
	}
	if out.Date == "unknown" && vcs["vcs.time"] != "" {
		out.Date = vcs["vcs.time"]
	}
	return out
}

// displayVersion prefixes release versions with "v".
func displayVersion(v string) string {
	if v == "" || v == "dev" || strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
