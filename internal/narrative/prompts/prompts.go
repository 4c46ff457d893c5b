// Package prompts holds the provider prompt templates for each narrative
// artifact kind, embedded at build time so deploys cannot drift from the code
// that parses the model output.
package prompts

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesFS embed.FS

// Template is one artifact kind's prompt pair. User text carries {{name}}
// placeholders filled by Render.
type Template struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

var (
	loadOnce sync.Once
	loaded   map[string]Template
	loadErr  error
)

func load() (map[string]Template, error) {
	loadOnce.Do(func() {
		raw, err := templatesFS.ReadFile("templates.yaml")
		if err != nil {
			loadErr = fmt.Errorf("read prompt templates: %w", err)
			return
		}
		var out map[string]Template
		if err := yaml.Unmarshal(raw, &out); err != nil {
			loadErr = fmt.Errorf("parse prompt templates: %w", err)
			return
		}
		for name, tpl := range out {
			if strings.TrimSpace(tpl.System) == "" || strings.TrimSpace(tpl.User) == "" {
				loadErr = fmt.Errorf("prompt template %q incomplete", name)
				return
			}
		}
		loaded = out
	})
	return loaded, loadErr
}

// Get returns the template for the named artifact kind.
func Get(kind string) (Template, error) {
	tpls, err := load()
	if err != nil {
		return Template{}, err
	}
	tpl, ok := tpls[kind]
	if !ok {
		return Template{}, fmt.Errorf("unknown prompt template %q", kind)
	}
	return tpl, nil
}

// Render fills {{name}} placeholders in the user text. Unknown placeholders
// are left in place so a mismatch is visible in the generated payload rather
// than silently dropped.
func (t Template) Render(vars map[string]string) (system, user string) {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.TrimSpace(t.System), strings.TrimSpace(strings.NewReplacer(pairs...).Replace(t.User))
}
