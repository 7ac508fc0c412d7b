// Package prompt holds the named text templates sent to the generation
// service. The built-in set is embedded; a directory of *.tmpl files can
// replace any of them.
package prompt

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"text/template"
)

// Built-in template names.
const (
	NameValidate = "validate"
	NameDraft    = "draft"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// Data is what the built-in templates reference.
type Data struct {
	Query    string
	Language string
	Location string
	Crop     string
	Topics   string
	Draft    string
	// Evidence is one line per retrieved fact.
	Evidence []string
	// MissingCrops have no current price data and must not be priced.
	MissingCrops []string
}

// Manager is a concurrency-safe set of named templates. Executing a
// template with a missing key is an error rather than "<no value>".
type Manager struct {
	mu   sync.RWMutex
	set  map[string]*template.Template
	text map[string]string
}

func NewManager() *Manager {
	return &Manager{set: map[string]*template.Template{}, text: map[string]string{}}
}

// RegisterString parses content as a new template called name.
func (m *Manager) RegisterString(name, content string) error {
	return m.parse(name, content, false)
}

func (m *Manager) parse(name, content string, replace bool) error {
	if name == "" {
		return fmt.Errorf("prompt: empty template name")
	}
	t, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return fmt.Errorf("prompt: parse %s: %w", name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.set[name]; dup && !replace {
		return fmt.Errorf("prompt: %s already registered", name)
	}
	m.set[name] = t
	m.text[name] = content
	return nil
}

// LoadFS parses every *.tmpl file in fsys, named by its base name without
// the extension. Existing templates of the same name are replaced.
func (m *Manager) LoadFS(fsys fs.FS, dir string) error {
	files, err := fs.Glob(fsys, path.Join(dir, "*.tmpl"))
	if err != nil {
		return err
	}
	for _, f := range files {
		data, err := fs.ReadFile(fsys, f)
		if err != nil {
			return fmt.Errorf("prompt: read %s: %w", f, err)
		}
		if err := m.parse(strings.TrimSuffix(path.Base(f), ".tmpl"), string(data), true); err != nil {
			return err
		}
	}
	return nil
}

// Source returns the unparsed text of name.
func (m *Manager) Source(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.text[name]
	return s, ok
}

// Render executes name with data.
func (m *Manager) Render(name string, data any) (string, error) {
	m.mu.RLock()
	t, ok := m.set[name]
	m.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("prompt: template %s not found", name)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("prompt: render %s: %w", name, err)
	}
	return b.String(), nil
}

// List returns the registered names, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.set))
	for name := range m.set {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Default returns a manager holding the built-in templates.
func Default() *Manager {
	m := NewManager()
	if err := m.LoadFS(builtin, "templates"); err != nil {
		panic(err)
	}
	return m
}

// Load returns the built-in templates overridden by the *.tmpl files in
// dir. An empty dir gives Default.
func Load(dir string) (*Manager, error) {
	m := Default()
	if dir == "" {
		return m, nil
	}
	if err := m.LoadFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return m, nil
}
