// Package view 内嵌 HTML 模板并提供渲染所需的模板函数。
package view

import (
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/tribuna/internal/locale"
)

//go:embed templates/*.html
var templateFS embed.FS

// FuncMap returns the helpers available to every template.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"formatDate": func(t time.Time) string {
			return locale.FormatDate(t)
		},
		"formatDateTime": func(t time.Time) string {
			return locale.FormatDateTime(t)
		},
		"fileSize": locale.FormatFileSize,
		"icon": func(key string) template.HTML {
			return template.HTML(IconSVG(key))
		},
		"iconLabel": IconLabel,
		"htmlLang": func() string {
			return locale.HTMLLang
		},
		"placeholder": PlaceholderIcon,
		"imageURL": imageURL,
	}
}

const pngDataURLPrefix = "data:image/png;base64,"

// imageURL 只放行本地生成的 PNG data URL，其余地址仍由 html/template 过滤。
func imageURL(raw string) interface{} {
	if strings.HasPrefix(raw, pngDataURLPrefix) {
		return template.URL(raw)
	}
	return raw
}

// Templates parses every embedded template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(templateFS, "templates/*.html")
}

// MustTemplates is Templates for program start-up.
func MustTemplates() *template.Template {
	return template.Must(Templates())
}
