package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "echod",
	Short: "echod is a protobuf echo server over TCP",
	Long: `echod accepts TCP connections and answers every protobuf ClientMessage
with a ServerMessage: echo requests are returned unchanged and add requests
are answered with the sum.

Configuration can be provided via a YAML file, ECHOD_* environment variables,
or flags, with later sources overriding earlier ones.`,
	SilenceUsage:  true,
	SilenceErrors: true, // errors are printed by Execute
}

// Execute runs the root command and exits non-zero on error.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
}
