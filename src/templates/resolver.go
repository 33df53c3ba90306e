// Package templates renders notification messages from a locale-keyed table
// loaded once at startup.
package templates

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"text/template"

	"github.com/pelletier/go-toml/v2"
	"github.com/theleywin/Backend-Pitch-Review/src/models"
	"golang.org/x/text/language"
)

//go:embed templates.toml
var embeddedTable []byte

var (
	ErrTemplateNotFound = errors.New("templates: no template for type")
	ErrRender           = errors.New("templates: render failed")
)

// Context keys understood by the templates.
const (
	KeyRequesterName = "RequesterName"
	KeyResponderName = "ResponderName"
	KeyPitchTitle    = "PitchTitle"
	KeyLink          = "Link"
)

// Context carries the values interpolated into a template.
type Context map[string]any

type table struct {
	DefaultLocale string                       `toml:"default_locale"`
	Templates     map[string]map[string]string `toml:"templates"`
}

// Resolver is immutable once built.
type Resolver struct {
	defaultTag language.Tag
	tags       []language.Tag
	matcher    language.Matcher
	entries    map[string]map[models.NotificationType]*template.Template
}

// LoadDefault builds a resolver from the table shipped with the binary.
func LoadDefault(defaultLocale string) (*Resolver, error) {
	return Load(embeddedTable, defaultLocale)
}

func LoadFile(path, defaultLocale string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}
	return Load(data, defaultLocale)
}

// Load parses a TOML table. Every template is parsed and test-rendered so a
// placeholder outside the known context keys fails here instead of at send time.
func Load(data []byte, defaultLocale string) (*Resolver, error) {
	var t table
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if defaultLocale == "" {
		defaultLocale = t.DefaultLocale
	}
	if defaultLocale == "" {
		return nil, errors.New("templates: no default locale")
	}
	defaultTag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("default locale %q: %w", defaultLocale, err)
	}

	r := &Resolver{
		defaultTag: defaultTag,
		entries:    make(map[string]map[models.NotificationType]*template.Template),
	}

	locales := make([]string, 0, len(t.Templates))
	for locale := range t.Templates {
		locales = append(locales, locale)
	}
	sort.Strings(locales)

	// The default locale goes first so the matcher falls back to it.
	r.tags = append(r.tags, defaultTag)
	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("locale %q: %w", locale, err)
		}
		entries := make(map[models.NotificationType]*template.Template, len(t.Templates[locale]))
		for key, text := range t.Templates[locale] {
			name := locale + "/" + key
			tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
			if err != nil {
				return nil, fmt.Errorf("parse template %s: %w", name, err)
			}
			if err := tmpl.Execute(&bytes.Buffer{}, Preview()); err != nil {
				return nil, fmt.Errorf("template %s: %w", name, err)
			}
			entries[models.NotificationType(key)] = tmpl
		}
		r.entries[tag.String()] = entries
		if tag != defaultTag {
			r.tags = append(r.tags, tag)
		}
	}
	if _, ok := r.entries[defaultTag.String()]; !ok {
		return nil, fmt.Errorf("templates: default locale %q has no templates", defaultLocale)
	}
	r.matcher = language.NewMatcher(r.tags)
	return r, nil
}

// Render looks up the template for (typ, locale), falling back to the default
// locale, and interpolates ctx. Missing context keys are errors.
func (r *Resolver) Render(typ models.NotificationType, locale string, ctx Context) (string, error) {
	tmpl, err := r.lookup(typ, locale)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, map[string]any(ctx)); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrRender, typ, err)
	}
	return buf.String(), nil
}

func (r *Resolver) lookup(typ models.NotificationType, locale string) (*template.Template, error) {
	if tag := r.match(locale); tag != r.defaultTag {
		if tmpl, ok := r.entries[tag.String()][typ]; ok {
			return tmpl, nil
		}
	}
	if tmpl, ok := r.entries[r.defaultTag.String()][typ]; ok {
		return tmpl, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, typ)
}

func (r *Resolver) match(locale string) language.Tag {
	if locale == "" {
		return r.defaultTag
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return r.defaultTag
	}
	_, index, confidence := r.matcher.Match(tag)
	if confidence == language.No {
		return r.defaultTag
	}
	return r.tags[index]
}

// Check reports the types missing from the default locale.
func (r *Resolver) Check(types []models.NotificationType) error {
	var missing []error
	for _, typ := range types {
		if _, ok := r.entries[r.defaultTag.String()][typ]; !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrTemplateNotFound, typ))
		}
	}
	return errors.Join(missing...)
}

// Locales lists the loaded locales, default first.
func (r *Resolver) Locales() []string {
	out := make([]string, 0, len(r.tags))
	for _, tag := range r.tags {
		out = append(out, tag.String())
	}
	return out
}

// Preview is the context used to validate templates and print previews.
func Preview() Context {
	return Context{
		KeyRequesterName: "Ada",
		KeyResponderName: "Grace",
		KeyPitchTitle:    "Orbital",
		KeyLink:          "https://example.com",
	}
}
