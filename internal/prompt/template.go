package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Template is a named, parameterized instruction string. Templates are
// immutable once loaded; agents only render them.
type Template struct {
	Name   string
	Text   string
	Params []string
}

// paramPlaceholder returns the placeholder syntax for a parameter name.
func paramPlaceholder(name string) string {
	return "{{" + name + "}}"
}

// Render substitutes the template parameters with the provided values. Every
// declared parameter must be supplied; unknown keys are rejected so typos in
// call sites surface immediately.
func (t Template) Render(vars map[string]string) (string, error) {
	declared := make(map[string]struct{}, len(t.Params))
	for _, param := range t.Params {
		declared[param] = struct{}{}
		if _, ok := vars[param]; !ok {
			return "", fmt.Errorf("prompt %q: missing parameter %q", t.Name, param)
		}
	}
	for key := range vars {
		if _, ok := declared[key]; !ok {
			return "", fmt.Errorf("prompt %q: unknown parameter %q", t.Name, key)
		}
	}

	out := t.Text
	for _, param := range t.Params {
		out = strings.ReplaceAll(out, paramPlaceholder(param), vars[param])
	}
	return out, nil
}

// Library holds the available templates by name.
type Library struct {
	templates map[string]Template
}

// NewLibrary returns a library seeded with the built-in templates.
func NewLibrary() *Library {
	lib := &Library{templates: make(map[string]Template)}
	for _, tmpl := range builtinTemplates() {
		lib.templates[tmpl.Name] = tmpl
	}
	return lib
}

// LoadDir overlays templates from dir. Each *.txt file becomes a template
// named after the file; its parameters are discovered from {{name}}
// placeholders in the body. Built-ins with the same name are replaced.
func (l *Library) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read prompt dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read prompt %q: %w", path, err)
		}
		name := strings.TrimSuffix(entry.Name(), ".txt")
		text := string(data)
		l.templates[name] = Template{
			Name:   name,
			Text:   text,
			Params: discoverParams(text),
		}
	}
	return nil
}

// Get returns the template with the given name.
func (l *Library) Get(name string) (Template, error) {
	tmpl, ok := l.templates[strings.TrimSpace(name)]
	if !ok {
		return Template{}, fmt.Errorf("prompt template %q not found", name)
	}
	return tmpl, nil
}

// Names returns the sorted template names, for diagnostics.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.templates))
	for name := range l.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func discoverParams(text string) []string {
	seen := map[string]struct{}{}
	var params []string
	rest := text
	for {
		start := strings.Index(rest, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(rest[start:], "}}")
		if end < 0 {
			break
		}
		name := strings.TrimSpace(rest[start+2 : start+end])
		rest = rest[start+end+2:]
		if name == "" || strings.ContainsAny(name, " \t\n") {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		params = append(params, name)
	}
	sort.Strings(params)
	return params
}
