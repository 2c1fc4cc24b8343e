package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scrypster/coref/internal/gazetteer"
	"github.com/scrypster/coref/internal/storage"
)

func newGazetteerCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gazetteer",
		Short: "Manage the gender and number gazetteer",
	}
	cmd.AddCommand(newGazetteerImportCmd(flags), newGazetteerLookupCmd(flags))
	return cmd
}

func newGazetteerImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE...",
		Short: "Import YAML or JSON entries into the configured store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			total := 0
			for _, path := range args {
				entries, err := gazetteer.ReadEntriesFile(path)
				if err != nil {
					return err
				}
				n, err := a.gazetteer.Import(cmd.Context(), entries)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				total += n
			}
			count, err := a.gazetteer.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries (%d in %s store)\n", total, count, a.cfg.Gazetteer.Backend)
			return nil
		},
	}
}

func newGazetteerLookupCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup TEXT...",
		Short: "Show the gender and multiplicity recorded for a phrase",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			text := strings.Join(args, " ")
			e, err := a.gazetteer.Lookup(cmd.Context(), text)
			switch {
			case errors.Is(err, storage.ErrNotFound):
				fmt.Fprintf(cmd.OutOrStdout(), "%q: no entry\n", text)
				return nil
			case err != nil:
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q: term=%q match=%s gender=%s multiplicity=%s\n",
				text, e.Term, e.Match, e.Gender, e.Multiplicity)
			return nil
		},
	}
}
