package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	version = "dev" // semantic version (e.g., "v1.2.3")
	commit  string  // git commit SHA
	date    string  // build timestamp
)

// SetVersion sets the version information displayed by --version. It is
// called by the main package with values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the prototypyside CLI and returns an error if any command
// fails. SIGINT and SIGTERM cancel the command context.
//
// Logging goes to stderr at info level, or debug level with --verbose (-v).
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var verbose bool

	root := &cobra.Command{
		Use:          "prototypyside",
		Short:        "Prototypyside turns card templates and CSV data into print-ready pages",
		Long:         `Prototypyside is a CLI tool for tabletop game prototyping: it merges CSV datasets into component templates, paginates the results onto layout grids, and exports print-ready PDF or PNG pages.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("prototypyside %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newExportCmd())
	root.AddCommand(newPagesCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newCacheCmd())

	return root.ExecuteContext(ctx)
}
