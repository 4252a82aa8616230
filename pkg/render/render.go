// Package render turns tooltip data into markup.
package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/oakwood-commons/tokentip/pkg/attribute"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const tooltipTemplate = "token-tooltip.html.tmpl"

// Data is everything the tooltip template sees.
type Data struct {
	ID          string
	ModuleID    string
	ActiveClass string
	PosX        int
	PosY        int
	Header      string
	Pills       []attribute.Value
	Rows        []attribute.Value
	ColumnCount int
}

// Renderer produces tooltip markup.
type Renderer interface {
	Render(ctx context.Context, data Data) (string, error)
}

// HTMLRenderer renders the embedded HTML template.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer parses the embedded template.
func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse tooltip template: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(ctx context.Context, data Data) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, tooltipTemplate, data); err != nil {
		return "", fmt.Errorf("render tooltip: %w", err)
	}
	return buf.String(), nil
}
