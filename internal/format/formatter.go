// Package format renders exception details into message text.
package format

import (
	"strconv"

	"crashgram/internal/exception"
)

const (
	DefaultLocale     = "en"
	DefaultTemplateID = "exception"
)

// Renderer produces text for a template id and a field mapping.
type Renderer interface {
	Render(templateID string, fields map[string]string) (string, error)
}

// Formatter maps Details onto template fields and delegates rendering.
type Formatter struct {
	renderer Renderer
}

func NewFormatter(renderer Renderer) *Formatter {
	return &Formatter{renderer: renderer}
}

// Format renders details with the template templateID.
func (f *Formatter) Format(details exception.Details, templateID string) (string, error) {
	return f.renderer.Render(templateID, Fields(details))
}

// Fields returns the template field mapping for details.
func Fields(d exception.Details) map[string]string {
	return map[string]string{
		"message": d.Message,
		"file":    d.SourceFile,
		"line":    strconv.Itoa(d.SourceLine),
		"class":   d.Classification,
		"url":     d.Context,
		"env":     d.Environment,
		"user":    d.Actor,
		"ip":      d.NetworkAddress,
	}
}
