package preview

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newFeedbackCmd() *cobra.Command {
	var personaName, copyText, copyFile string

	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Generate feedback for a piece of UX copy and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = e.log.Sync() }()

			p, err := e.resolve(personaName)
			if err != nil {
				return err
			}
			text, err := readText(e.fs, copyText, copyFile)
			if err != nil {
				return err
			}
			if strings.TrimSpace(text) == "" {
				return errNoCopy
			}

			fb := e.generator().Generate(cmd.Context(), text, p)
			fmt.Fprintf(cmd.OutOrStdout(), "Persona: %s\n\n%s\n", fb.Persona, fb.Text)
			if fb.Fallback {
				return fmt.Errorf("generation failed: %w", fb.Err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&personaName, "persona", "", "persona id or label (default persona when empty)")
	cmd.Flags().StringVar(&copyText, "copy", "", "UX copy to evaluate")
	cmd.Flags().StringVar(&copyFile, "copy-file", "", "read UX copy from file")
	return cmd
}
