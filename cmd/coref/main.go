// Command coref resolves coreference in annotated documents, from the
// command line, over HTTP, or from a watched directory.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configPath string
	seedPath   string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "coref",
		Short: "Rule-based coreference resolution for annotated documents",
		Long: `coref links mentions in a parsed, entity-tagged document into chains
that refer to the same thing, using a fixed sequence of deterministic sieves.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "YAML config file (COREF_* env vars still apply)")
	pf.StringVar(&flags.seedPath, "gazetteer-seed", "", "YAML/JSON gazetteer entries imported at startup")
	pf.StringVar(&flags.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newResolveCmd(flags),
		newServeCmd(flags),
		newWatchCmd(flags),
		newSievesCmd(flags),
		newGazetteerCmd(flags),
	)
	return root
}
