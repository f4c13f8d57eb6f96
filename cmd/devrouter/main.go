// Package main is the entry point for the devrouter development server.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %s\n", color.RedString("Error:"), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &serveFlags{}
	rootCmd := &cobra.Command{
		Use:   "devrouter [root]",
		Short: "Local web server with directory listings",
		Long: `devrouter serves a document root for local development.

Requests for files are served as-is, directories redirect to their
slash-terminated URL, index.php / index.html answer for their directory,
and directories without an index get a browsable listing.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          flags.run,
	}
	flags.register(rootCmd)

	rootCmd.AddCommand(
		serveCmd(),
		configCmd(),
		versionCmd(),
	)
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "devrouter %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("%s %s\n", color.YellowString("⚠"), fmt.Sprintf(format, args...))
}
