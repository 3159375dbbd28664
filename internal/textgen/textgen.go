// Package textgen renders the text screens shown by the player (idle screen
// and transitions) from subtitle templates, and resolves the background
// images they are displayed on.
package textgen

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"text/template"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"karaoke-player/internal/playlist"
)

// Screen names.
const (
	Idle       = "idle"
	Transition = "transition"
)

const iconMapFile = "resources/icons.json"

//go:embed resources
var resources embed.FS

// DefaultFilenames returns the template file of each screen.
func DefaultFilenames() map[string]string {
	return map[string]string{
		Idle:       "idle.ass",
		Transition: "transition.ass",
	}
}

// IdleData is passed to the idle template.
type IdleData struct {
	Notes []string
}

// TransitionData is passed to the transition template.
type TransitionData struct {
	Entry playlist.Entry
}

// Generator renders text screens. Templates are looked up in a custom
// directory first, then in the embedded defaults.
type Generator struct {
	fs        afero.Fs
	directory string
	filenames map[string]string
	log       logrus.FieldLogger

	icons     map[string]string
	templates map[string]*template.Template
}

// New creates a generator. An empty directory disables custom templates.
func New(fsys afero.Fs, directory string, filenames map[string]string, log logrus.FieldLogger) *Generator {
	if filenames == nil {
		filenames = DefaultFilenames()
	}
	return &Generator{
		fs:        fsys,
		directory: directory,
		filenames: filenames,
		log:       log.WithField("component", "textgen"),
		templates: make(map[string]*template.Template),
	}
}

// Load reads the icon map and parses every template.
func (g *Generator) Load() error {
	raw, err := resources.ReadFile(iconMapFile)
	if err != nil {
		return fmt.Errorf("read icon map: %w", err)
	}
	if err := json.Unmarshal(raw, &g.icons); err != nil {
		return fmt.Errorf("parse icon map: %w", err)
	}

	g.log.Debug("Loading text templates")
	for name, file := range g.filenames {
		content, err := g.readTemplate(name, file)
		if err != nil {
			return err
		}

		tmpl, err := template.New(file).Funcs(g.funcs()).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse %s template: %w", name, err)
		}
		g.templates[name] = tmpl
	}
	return nil
}

func (g *Generator) readTemplate(name, file string) ([]byte, error) {
	if g.directory != "" {
		path := filepath.Join(g.directory, file)
		exists, err := afero.Exists(g.fs, path)
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", path, err)
		}
		if exists {
			g.log.Debugf("Loading custom %s text template file '%s'", name, file)
			return afero.ReadFile(g.fs, path)
		}
	}

	content, err := fs.ReadFile(resources, "resources/"+file)
	if err == nil {
		g.log.Debugf("Loading default %s text template file '%s'", name, file)
		return content, nil
	}

	return nil, &TemplateNotFoundError{Name: name, File: file}
}

func (g *Generator) funcs() template.FuncMap {
	return template.FuncMap{
		"icon":         g.icon,
		"linkTypeName": playlist.LinkTypeName,
		"add":          func(a, b int) int { return a + b },
		"mul":          func(a, b int) int { return a * b },
		"hueColor":     hueColor,
	}
}

// hueColor converts a tag hue (0-360) to an ASS color (&HBBGGRR&).
func hueColor(hue int) string {
	r, g, b := colorful.Hsv(float64(hue%360), 0.55, 0.95).Clamped().RGB255()
	return fmt.Sprintf("&H%02X%02X%02X&", b, g, r)
}

// icon converts an icon name to its glyph. Unknown names give a space.
func (g *Generator) icon(name string) string {
	if name == "" {
		return ""
	}

	code, ok := g.icons[name]
	if !ok {
		code = "0020"
	}
	r, err := strconv.ParseInt(code, 16, 32)
	if err != nil {
		return " "
	}
	return string(rune(r))
}

// Render executes the named template with data.
func (g *Generator) Render(name string, data any) (string, error) {
	tmpl, ok := g.templates[name]
	if !ok {
		return "", fmt.Errorf("template %q not loaded", name)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderToFile renders the named template into path.
func (g *Generator) RenderToFile(name string, data any, path string) error {
	text, err := g.Render(name, data)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(g.fs, path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("write %s screen: %w", name, err)
	}
	return nil
}

// TemplateNotFoundError is returned by Load when a template is neither in
// the custom directory nor in the defaults.
type TemplateNotFoundError struct {
	Name string
	File string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("no %s text template file found for '%s'", e.Name, e.File)
}
