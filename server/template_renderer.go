package server

import (
	"bytes"
	"strings"

	"github.com/gofiber/template/html/v2"
)

// TemplateRenderer renders views to strings for pushing over the view socket
type TemplateRenderer struct {
	engine *html.Engine
}

func NewTemplateRenderer(engine *html.Engine) *TemplateRenderer {
	return &TemplateRenderer{engine: engine}
}

func (tr *TemplateRenderer) RenderToString(name string, binding any) (string, error) {
	buf := new(bytes.Buffer)
	if err := tr.engine.Render(buf, name, binding); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToSingleLine renders a view and collapses all whitespace runs,
// newlines included, to single spaces
func (tr *TemplateRenderer) RenderToSingleLine(name string, binding any) (string, error) {
	out, err := tr.RenderToString(name, binding)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(out), " "), nil
}
