package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/jmehdipour/ux-autorater/internal/report"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newRenderCmd() *cobra.Command {
	var personaName, copyText, copyFile, feedbackFile, out string
	var generate bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a report PDF locally",
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

			var fb model.Feedback
			switch {
			case generate:
				fb = e.generator().Generate(cmd.Context(), text, p)
			case feedbackFile != "":
				body, err := readText(e.fs, "", feedbackFile)
				if err != nil {
					return err
				}
				fb = model.Feedback{Persona: p.Label, Text: body}
			default:
				return fmt.Errorf("no feedback: use --feedback-file or --generate")
			}

			order := model.Order{Persona: p.ID, SubmittedCopy: text, CreatedAt: time.Now()}
			data, err := report.New(nil, report.OptionsFromConfig(e.cfg.Report), e.log).Document(order, fb)
			if err != nil {
				return err
			}
			if err := afero.WriteFile(e.fs, out, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&personaName, "persona", "", "persona id or label (default persona when empty)")
	cmd.Flags().StringVar(&copyText, "copy", "", "UX copy to evaluate")
	cmd.Flags().StringVar(&copyFile, "copy-file", "", "read UX copy from file")
	cmd.Flags().StringVar(&feedbackFile, "feedback-file", "", "use feedback text from file")
	cmd.Flags().BoolVar(&generate, "generate", false, "call the language model for feedback")
	cmd.Flags().StringVar(&out, "out", "report.pdf", "output path")
	return cmd
}
