package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	"github.com/spf13/cobra"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "List the configured persona catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		reg, err := persona.NewRegistry(cfg.Personas)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tDEFAULT")
		for _, p := range reg.All() {
			def := ""
			if p.ID == reg.Default().ID {
				def = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Label, def)
		}
		return w.Flush()
	},
}
