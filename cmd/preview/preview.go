package preview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/feedback"
	"github.com/jmehdipour/ux-autorater/internal/logger"
	"github.com/jmehdipour/ux-autorater/internal/persona"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewPreviewCmd returns the parent "preview" command: local runs of single
// pipeline stages, with no payment and no email.
func NewPreviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Run pipeline stages locally",
	}
	// attach subcommands
	cmd.AddCommand(newFeedbackCmd())
	cmd.AddCommand(newRenderCmd())

	return cmd
}

// env is what every preview subcommand needs.
type env struct {
	cfg      config.Config
	log      *zap.Logger
	personas *persona.Registry
	fs       afero.Fs
}

func setup(cmd *cobra.Command) (*env, error) {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.NewConsole(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	reg, err := persona.NewRegistry(cfg.Personas)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, personas: reg, fs: afero.NewOsFs()}, nil
}

// resolve is strict: a typo on the command line is an error, not a silent default.
func (e *env) resolve(name string) (persona.Persona, error) {
	if strings.TrimSpace(name) == "" {
		return e.personas.Default(), nil
	}
	return e.personas.Lookup(name)
}

func (e *env) generator() *feedback.Generator {
	var completer feedback.Completer
	if c := feedback.NewOpenAIClient(e.cfg.OpenAI); c != nil {
		completer = c
	}
	breaker := feedback.NewBreaker(e.cfg.OpenAI.Breaker.FailThreshold, e.cfg.OpenAI.Breaker.OpenFor)
	return feedback.New(completer, feedback.OptionsFromConfig(e.cfg.OpenAI), breaker, e.log)
}

// readText returns inline text, or the file contents when path is set.
func readText(fs afero.Fs, inline, path string) (string, error) {
	if path != "" {
		b, err := afero.ReadFile(fs, path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return inline, nil
}

var errNoCopy = errors.New("no copy given: use --copy or --copy-file")
