// Package static embeds the html page templates of the web interface.
package static

import (
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
)

//go:embed templates/*.html
var TemplatesFS embed.FS

// Templates parses all embedded page templates. Pages are addressed by their file name.
func Templates() (*template.Template, error) {
	tmpl, err := template.New("").Funcs(FuncMap()).ParseFS(TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}
	return tmpl, nil
}

// FuncMap returns the helpers available in the page templates.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"relativeTime": FormatRelativeTime,
		"measurement":  FormatMeasurement,
	}
}

// FormatRelativeTime formats a time.Time as a relative time string like "3 minutes ago"
func FormatRelativeTime(t time.Time) string {
	return timediff.TimeDiff(t)
}

// FormatMeasurement renders an optional reading with one decimal, or "--" if it is missing.
func FormatMeasurement(v *float64, unit string) string {
	if v == nil {
		return "--"
	}
	return humanize.FtoaWithDigits(*v, 1) + unit
}
