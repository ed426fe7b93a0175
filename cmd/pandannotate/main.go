package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sha1n/pandannotate/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "pandannotate"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Build a per-query annotation table",
		Long: `Merge the best hits of many sequence-annotation tools into one table
with a row per query sequence of the reference FASTA and a column per
(source, field) pair. Sources are declared in a control file.`,
		Version:      version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Context(), cmd.Flags(), version)
		},
	}
	rootCmd.SetVersionTemplate(`{{.Version}}
`)
	app.RegisterFlags(rootCmd.Flags())

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an annotation table over MCP (stdio)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveWithFlags(cmd.Context(), cmd.Flags(), version)
		},
	}
	app.RegisterServeFlags(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

func runWithFlags(ctx context.Context, flags *pflag.FlagSet, version string) error {
	return app.RunWithDeps(ctx, app.DefaultRunParams(), flags, version)
}

func serveWithFlags(ctx context.Context, flags *pflag.FlagSet, version string) error {
	return app.RunServe(ctx, app.DefaultServeParams(), flags, version)
}
