package format

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Catalog renders templates stored per locale. A template missing from the
// selected locale falls back to the fallback locale.
type Catalog struct {
	locale    string
	fallback  string
	templates map[string]map[string]*template.Template
}

// DefaultCatalog returns the built-in catalog for locale.
func DefaultCatalog(locale string) (*Catalog, error) {
	return ParseCatalog(defaultTemplates, locale)
}

// LoadCatalog reads a YAML catalog from path. Templates it does not define
// are taken from the built-in catalog.
func LoadCatalog(path, locale string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read templates file: %w", err)
	}
	c, err := DefaultCatalog(locale)
	if err != nil {
		return nil, err
	}
	if err := c.merge(data); err != nil {
		return nil, err
	}
	return c, nil
}

// ParseCatalog parses a YAML document of the form
//
//	<locale>:
//	  <template id>: <text/template source>
func ParseCatalog(data []byte, locale string) (*Catalog, error) {
	c := &Catalog{
		locale:    strings.ToLower(strings.TrimSpace(locale)),
		fallback:  DefaultLocale,
		templates: make(map[string]map[string]*template.Template),
	}
	if c.locale == "" {
		c.locale = DefaultLocale
	}
	if err := c.merge(data); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) merge(data []byte) error {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	for locale, byID := range raw {
		locale = strings.ToLower(locale)
		if c.templates[locale] == nil {
			c.templates[locale] = make(map[string]*template.Template)
		}
		for id, src := range byID {
			tmpl, err := template.New(locale + "." + id).Option("missingkey=zero").Parse(src)
			if err != nil {
				return fmt.Errorf("failed to parse template %s.%s: %w", locale, id, err)
			}
			c.templates[locale][id] = tmpl
		}
	}
	return nil
}

// Render executes the template templateID with fields.
func (c *Catalog) Render(templateID string, fields map[string]string) (string, error) {
	tmpl := c.lookup(templateID)
	if tmpl == nil {
		return "", fmt.Errorf("template %q not found for locale %q", templateID, c.locale)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, fields); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", templateID, err)
	}
	return sb.String(), nil
}

func (c *Catalog) lookup(templateID string) *template.Template {
	for _, locale := range []string{c.locale, c.fallback} {
		if tmpl, ok := c.templates[locale][templateID]; ok {
			return tmpl
		}
	}
	return nil
}
