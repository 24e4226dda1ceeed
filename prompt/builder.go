// Package prompt renders a content request into a model-ready prompt.
// Templates are resolved by (country, platform, industry) with a fixed
// fallback order down to a generic default.
package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"inkforge/content"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// ErrTemplateNotFound means even the generic default template is missing.
// That is a configuration defect, not a runtime condition to retry.
var ErrTemplateNotFound = errors.New("prompt template not found")

// Prompt is the rendered text plus the template and bindings that
// produced it. It belongs to exactly one generation attempt and is never
// mutated after creation.
type Prompt struct {
	Text         string
	TemplateName string
	Bindings     Bindings
}

// Bindings is the variable set available inside templates.
type Bindings struct {
	Topic              string
	Country            string
	Language           string
	Industry           string
	Platform           string
	Tone               string
	Goal               string
	Keywords           []string
	Length             int
	CustomInstructions string
}

// Builder resolves and renders templates. The zero value is not usable;
// call NewBuilder or NewBuilderFromDir.
type Builder struct {
	fsys fs.FS
}

// NewBuilder uses the embedded default templates.
func NewBuilder() *Builder {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	return &Builder{fsys: sub}
}

// NewBuilderFromFS uses an external template tree, e.g. os.DirFS for a
// user-supplied template directory.
func NewBuilderFromFS(fsys fs.FS) *Builder {
	return &Builder{fsys: fsys}
}

// Build resolves the template for the request and renders it. The
// fallback order is exact (country, platform, industry), then
// (country, platform), then (country), then the generic default.
func (b *Builder) Build(req content.Request) (Prompt, error) {
	name, tmpl, err := b.resolve(req)
	if err != nil {
		return Prompt{}, err
	}

	bindings := Bindings{
		Topic:              req.Topic,
		Country:            string(req.Country),
		Language:           req.Language,
		Industry:           string(req.Industry),
		Platform:           string(req.Platform),
		Tone:               string(req.Tone),
		Goal:               string(req.Goal),
		Keywords:           req.Keywords,
		Length:             req.Length,
		CustomInstructions: req.CustomInstructions,
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, bindings); err != nil {
		return Prompt{}, fmt.Errorf("render template %s: %w", name, err)
	}

	text := strings.TrimSpace(sb.String())
	if mods := b.renderModifiers(req, bindings); len(mods) > 0 {
		text += "\n\nAdditional Requirements:\n- " + strings.Join(mods, "\n- ")
	}

	return Prompt{Text: text, TemplateName: name, Bindings: bindings}, nil
}

// retryDirectives are appended one per retry so consecutive attempts never
// reuse the same prompt. The list cycles if retries outnumber it.
var retryDirectives = []string{
	"IMPORTANT: Please ensure the content is well-structured with clear headings and paragraphs.",
	"IMPORTANT: Make sure to include engaging elements like questions and direct reader address.",
	"IMPORTANT: Focus on creating valuable, in-depth content that meets the requested word count.",
}

// Variant derives the prompt for retry attempt n (n >= 1) from the base
// prompt. Each retry appends a different directive, so attempt n always
// differs from attempt n-1.
func (b *Builder) Variant(base Prompt, n int) Prompt {
	if n < 1 {
		return base
	}
	directive := retryDirectives[(n-1)%len(retryDirectives)]
	return Prompt{
		Text:         base.Text + "\n\n" + directive,
		TemplateName: base.TemplateName,
		Bindings:     base.Bindings,
	}
}

func (b *Builder) resolve(req content.Request) (string, *template.Template, error) {
	candidates := []string{
		fmt.Sprintf("%s_%s_%s.tmpl", req.Country, req.Platform, req.Industry),
		fmt.Sprintf("%s_%s.tmpl", req.Country, req.Platform),
		fmt.Sprintf("%s.tmpl", req.Country),
		"default.tmpl",
	}
	for _, name := range candidates {
		data, err := fs.ReadFile(b.fsys, name)
		if err != nil {
			continue
		}
		tmpl, err := template.New(name).Parse(string(data))
		if err != nil {
			return "", nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		return name, tmpl, nil
	}
	return "", nil, fmt.Errorf("%w: no template for %s/%s/%s and no default",
		ErrTemplateNotFound, req.Country, req.Platform, req.Industry)
}

// renderModifiers renders the optional platform/industry/tone/goal
// modifier templates. A missing modifier is not an error.
func (b *Builder) renderModifiers(req content.Request, bindings Bindings) []string {
	names := []string{
		fmt.Sprintf("platform_%s.tmpl", req.Platform),
		fmt.Sprintf("industry_%s.tmpl", req.Industry),
		fmt.Sprintf("tone_%s.tmpl", req.Tone),
		fmt.Sprintf("goal_%s.tmpl", req.Goal),
	}
	var out []string
	for _, name := range names {
		data, err := fs.ReadFile(b.fsys, name)
		if err != nil {
			continue
		}
		tmpl, err := template.New(name).Parse(string(data))
		if err != nil {
			continue
		}
		var sb strings.Builder
		if err := tmpl.Execute(&sb, bindings); err != nil {
			continue
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			out = append(out, s)
		}
	}
	return out
}
