package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the mcp-ocm application.
var rootCmd = &cobra.Command{
	Use:   "mcp-ocm",
	Short: "MCP server for OpenShift Cluster Manager",
	Long: `mcp-ocm is a Model Context Protocol (MCP) server that exposes read-only
tools for OpenShift Cluster Manager (OCM): listing clusters, inspecting a
cluster and its add-ons, showing the current account and listing Fleet
Manager service clusters.

When run without subcommands, it starts the MCP server (equivalent to 'mcp-ocm serve').`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command.
// It is called from the main package to inject the version set at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcp-ocm version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newServeCmd())
}
