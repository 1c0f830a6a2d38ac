package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"os"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

//go:embed templates
var embedded embed.FS

// DefaultLocale is used when the requested locale has no templates.
const DefaultLocale = "bg"

type RendererOptions struct {
	// Locale selects templates/<locale>/. Falls back to DefaultLocale.
	Locale string
	// Dir overrides the embedded templates with a directory laid out the same way.
	Dir string
	// SiteName is available to templates as {{site}}.
	SiteName string
	// Location is used by {{when}} to format times. Defaults to UTC.
	Location *time.Location
}

// Renderer renders localized subjects, text bodies and optional HTML bodies.
//
// Each kind is defined in templates/<locale>/<kind>.txt.tmpl as "<kind>.subject"
// and "<kind>.text", and optionally in <kind>.html.tmpl as "<kind>.html".
type Renderer struct {
	locale string
	text   *texttemplate.Template
	html   *htmltemplate.Template
}

func NewRenderer(opts RendererOptions) (*Renderer, error) {
	var fsys fs.FS
	if opts.Dir != "" {
		fsys = os.DirFS(opts.Dir)
	} else {
		sub, err := fs.Sub(embedded, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	locale := strings.ToLower(strings.TrimSpace(opts.Locale))
	if locale == "" || !hasTemplates(fsys, locale+"/*.txt.tmpl") {
		locale = DefaultLocale
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps()),
	)
	when := func(t time.Time) string { return t.In(loc).Format("02.01.2006 15:04") }
	site := func() string { return opts.SiteName }

	text, err := texttemplate.New("text").
		Funcs(texttemplate.FuncMap{"when": when, "site": site}).
		ParseFS(fsys, locale+"/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse text templates (%s): %w", locale, err)
	}

	r := &Renderer{locale: locale, text: text}
	if hasTemplates(fsys, locale+"/*.html.tmpl") {
		html, err := htmltemplate.New("html").
			Funcs(htmltemplate.FuncMap{
				"when": when,
				"site": site,
				"markdown": func(src string) (htmltemplate.HTML, error) {
					var buf bytes.Buffer
					if err := md.Convert([]byte(src), &buf); err != nil {
						return "", err
					}
					// goldmark escapes raw HTML unless WithUnsafe is set.
					return htmltemplate.HTML(buf.String()), nil
				},
			}).
			ParseFS(fsys, locale+"/*.html.tmpl")
		if err != nil {
			return nil, fmt.Errorf("parse html templates (%s): %w", locale, err)
		}
		r.html = html
	}

	for _, k := range Kinds {
		for _, name := range []string{string(k) + ".subject", string(k) + ".text"} {
			if r.text.Lookup(name) == nil {
				return nil, fmt.Errorf("locale %s: missing template %q", locale, name)
			}
		}
	}
	return r, nil
}

// Locale returns the locale actually in use.
func (r *Renderer) Locale() string { return r.locale }

func (r *Renderer) Subject(kind Kind, data any) (string, error) {
	s, err := r.execText(string(kind)+".subject", data)
	if err != nil {
		return "", err
	}
	// Subjects are single-line.
	return strings.Join(strings.Fields(s), " "), nil
}

func (r *Renderer) RenderText(kind Kind, data any) (string, error) {
	s, err := r.execText(string(kind)+".text", data)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s) + "\n", nil
}

// TryRenderHTML renders the HTML alternative. ok is false when the kind has no
// HTML template; err reports a template that exists but failed to execute.
func (r *Renderer) TryRenderHTML(kind Kind, data any) (string, bool, error) {
	if r.html == nil {
		return "", false, nil
	}
	t := r.html.Lookup(string(kind) + ".html")
	if t == nil {
		return "", false, nil
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", false, fmt.Errorf("render %s html: %w", kind, err)
	}
	return buf.String(), true, nil
}

func (r *Renderer) execText(name string, data any) (string, error) {
	t := r.text.Lookup(name)
	if t == nil {
		return "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func hasTemplates(fsys fs.FS, pattern string) bool {
	matches, err := fs.Glob(fsys, pattern)
	return err == nil && len(matches) > 0
}
