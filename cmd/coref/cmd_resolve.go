package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrypster/coref/internal/docio"
)

func newResolveCmd(flags *rootFlags) *cobra.Command {
	var (
		trace   bool
		write   bool
		withDoc bool
	)
	cmd := &cobra.Command{
		Use:   "resolve FILE...",
		Short: "Resolve document files and print the results as JSON",
		Long: `Resolve reads each JSON or YAML document, runs the sieves and prints one
JSON result per file. With --write the result is stored next to the input
as <file>.coref.json instead.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			failed := 0
			for _, path := range args {
				doc, err := docio.LoadFile(path)
				if err != nil {
					a.log.Error("cannot load document", "path", path, "error", err)
					failed++
					continue
				}

				out := docio.Resolved{}
				if trace {
					var debug any
					out.Result, debug, err = a.resolver.DebugResolve(cmd.Context(), doc)
					out.Debug = debug
				} else {
					out.Result, err = a.resolver.Resolve(cmd.Context(), doc)
				}
				if err != nil {
					a.log.Error("resolve failed", "path", path, "error", err)
					failed++
					continue
				}
				if withDoc || write {
					out.Document = doc
				}

				if write {
					if err := docio.WriteFile(docio.OutputPath(path), out); err != nil {
						return err
					}
					continue
				}
				if err := docio.Encode(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "include the per-sieve trace")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write <file>.coref.json next to each input")
	cmd.Flags().BoolVar(&withDoc, "document", false, "include the annotated document in the output")
	return cmd
}

func newSievesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sieves",
		Short: "List the sieves in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()
			for i, name := range a.resolver.Sieves() {
				fmt.Fprintf(cmd.OutOrStdout(), "%2d  %s\n", i+1, name)
			}
			return nil
		},
	}
}
