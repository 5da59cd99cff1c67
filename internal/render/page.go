package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFS embed.FS

// Basemap is the tile layer drawn under every map.
type Basemap struct {
	URL         string
	Attribution string
}

// ViewInfo describes one assistant view for the page header and form.
type ViewInfo struct {
	Path        string
	Title       string
	Intro       string
	Placeholder string
}

// PageData is everything one view page renders.
type PageData struct {
	View     ViewInfo
	Text     string
	Messages []string
	Error    string
	Map      *Map
}

type pageTemplateData struct {
	PageData
	Views   []ViewInfo
	Basemap Basemap
	MapJSON template.JS
}

// Pages renders the HTML views.
type Pages struct {
	tmpl    *template.Template
	basemap Basemap
	views   []ViewInfo
}

// NewPages parses the embedded templates.
func NewPages(basemap Basemap, views []ViewInfo) (*Pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl, basemap: basemap, views: views}, nil
}

// Index writes the landing page linking every view.
func (p *Pages) Index(w io.Writer) error {
	return p.tmpl.ExecuteTemplate(w, "index.html", pageTemplateData{
		Views:   p.views,
		Basemap: p.basemap,
	})
}

// View writes one assistant view, with results when data carries them.
func (p *Pages) View(w io.Writer, data PageData) error {
	td := pageTemplateData{
		PageData: data,
		Views:    p.views,
		Basemap:  p.basemap,
	}
	if data.Map != nil && !data.Map.Empty() {
		// encoding/json escapes <, > and &, so the output is safe inside <script>.
		raw, err := data.Map.GeoJSON()
		if err != nil {
			return fmt.Errorf("render: encode map: %w", err)
		}
		td.MapJSON = template.JS(raw)
	}
	return p.tmpl.ExecuteTemplate(w, "view.html", td)
}
