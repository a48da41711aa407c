package render

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"tile_iocgen/internal/ioc"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateRenderer renders payloads through the embedded per-type
// config templates. It satisfies ioc.Renderer.
type TemplateRenderer struct {
	templates *template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	t, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse config templates: %w", err)
	}
	return &TemplateRenderer{templates: t}, nil
}

func (r *TemplateRenderer) Render(name string, payload ioc.Payload) (string, error) {
	var b strings.Builder
	if err := r.templates.ExecuteTemplate(&b, name+".cfg.tmpl", payload); err != nil {
		return "", err
	}
	return b.String(), nil
}

// DirSink writes config files into one target directory. Per-controller
// config files are always overwritten; the generation run owns them.
type DirSink struct {
	dir string
}

func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: strings.TrimRight(dir, "/")}
}

func (s *DirSink) Dir() string {
	return s.dir
}

func (s *DirSink) WriteConfig(filename, content string) error {
	return os.WriteFile(filepath.Join(s.dir, filename), []byte(content), 0o644)
}
