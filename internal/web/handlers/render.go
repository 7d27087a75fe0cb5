package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames lists the templates that render a full page.
var pageNames = []string{
	"home", "introduce", "city", "permissions", "image", "selfie", "demographics", "summary",
}

var templateFuncs = template.FuncMap{
	"upper": strings.ToUpper,
	"num": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 3, 64)
	},
	"pct": func(v float64) string {
		return strconv.FormatFloat(v*100, 'f', 2, 64)
	},
	"withQuery": func(path, query string) string {
		if query == "" {
			return path
		}
		return path + "?" + query
	},
}

// renderer holds one parsed template set per page, each combined with the shared layout.
type renderer struct {
	pages map[string]*template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(templateFuncs).ParseFS(templateFS,
			"templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// render executes the page into a buffer first so template errors never
// produce a half-written response.
func (r *renderer) render(w http.ResponseWriter, status int, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("rendering %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
