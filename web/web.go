// Package web embeds the HTML templates rendered by the server.
package web

import (
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"isodate": func(t time.Time) string { return t.Format("2006-01-02") },
	"isImage": func(s string) bool { return strings.HasPrefix(s, "data:image/") },
	// imgsrc marks a data URL as safe for an img src attribute.
	"imgsrc": func(s string) template.URL {
		if strings.HasPrefix(s, "data:image/") {
			return template.URL(s)
		}
		return ""
	},
}

// Templates parses every page template. Pages are looked up by file name,
// e.g. "index.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(files, "templates/*.html")
}
