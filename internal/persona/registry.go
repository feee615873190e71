// Package persona holds the catalog of evaluation viewpoints and their prompt templates.
package persona

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jmehdipour/ux-autorater/internal/config"
	"github.com/jmehdipour/ux-autorater/internal/model"
	"github.com/valyala/fasttemplate"
)

const copyTag = "copy"

var ErrUnknownPersona = errors.New("unknown persona")

// Persona is a named viewpoint with a prompt template containing {{copy}}.
type Persona struct {
	ID    string
	Label string
	tmpl  *fasttemplate.Template
}

// Prompt fills the template with the submitted copy.
func (p Persona) Prompt(copyText string) string {
	return p.tmpl.ExecuteString(map[string]interface{}{
		copyTag:   copyText,
		"persona": p.Label,
	})
}

type Registry struct {
	byKey   map[string]Persona
	ordered []Persona
	def     Persona
}

// NewRegistry validates the catalog. Any problem is a configuration error so the
// process refuses to start instead of failing on a later lookup.
func NewRegistry(cfg config.PersonasConfig) (*Registry, error) {
	if len(cfg.Catalog) == 0 {
		return nil, model.ConfigurationError("personas", errors.New("catalog is empty"))
	}

	r := &Registry{byKey: make(map[string]Persona, len(cfg.Catalog)*2)}
	for i, pc := range cfg.Catalog {
		id := strings.TrimSpace(pc.ID)
		if id == "" {
			return nil, model.ConfigurationError("personas", fmt.Errorf("entry %d has no id", i))
		}
		label := strings.TrimSpace(pc.Label)
		if label == "" {
			label = id
		}
		if !strings.Contains(pc.Template, "{{"+copyTag+"}}") {
			return nil, model.ConfigurationError("personas", fmt.Errorf("persona %q template lacks {{%s}}", id, copyTag))
		}
		tmpl, err := fasttemplate.NewTemplate(pc.Template, "{{", "}}")
		if err != nil {
			return nil, model.ConfigurationError("personas", fmt.Errorf("persona %q template: %w", id, err))
		}

		p := Persona{ID: id, Label: label, tmpl: tmpl}
		for _, k := range []string{key(id), key(label)} {
			if prev, dup := r.byKey[k]; dup && prev.ID != id {
				return nil, model.ConfigurationError("personas", fmt.Errorf("persona key %q used by %q and %q", k, prev.ID, id))
			}
			r.byKey[k] = p
		}
		r.ordered = append(r.ordered, p)
	}

	def, ok := r.byKey[key(cfg.Default)]
	if !ok {
		return nil, model.ConfigurationError("personas", fmt.Errorf("default persona %q is not in the catalog", cfg.Default))
	}
	r.def = def

	return r, nil
}

// Lookup matches an id or label, case-insensitively.
func (r *Registry) Lookup(name string) (Persona, error) {
	p, ok := r.byKey[key(name)]
	if !ok {
		return Persona{}, fmt.Errorf("%w: %q", ErrUnknownPersona, name)
	}
	return p, nil
}

// Resolve is Lookup with a fallback to the default persona; found reports whether
// the name matched.
func (r *Registry) Resolve(name string) (p Persona, found bool) {
	if p, err := r.Lookup(name); err == nil {
		return p, true
	}
	return r.def, false
}

func (r *Registry) Default() Persona { return r.def }

func (r *Registry) All() []Persona {
	out := make([]Persona, len(r.ordered))
	copy(out, r.ordered)
	return out
}

func key(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
