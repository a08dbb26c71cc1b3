package view

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
)

// Renderer reads view templates from Dir on every call.
type Renderer struct {
	Dir string
}

// NewRenderer returns a renderer rooted at dir.
func NewRenderer(dir string) *Renderer {
	return &Renderer{Dir: dir}
}

// Render loads name beneath the views directory and executes it with data.
// The file is read and parsed on each call so edits show up without a restart.
// Errors from reading, parsing or executing are returned unchanged.
func (r *Renderer) Render(name string, data any) (string, error) {
	text, err := os.ReadFile(filepath.Join(r.Dir, name))
	if err != nil {
		return "", err
	}
	tmpl, err := template.New(name).Parse(string(text))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
