package view

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
)

type cardStub struct {
	ID           uint
	Title        string
	Date         string
	Description  template.HTML
	ThumbnailURL string
	ViewerPath   string
	DownloadURL  string
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	for _, name := range []string{"editions.html", "edition_cards.html", "edition_viewer.html", "admin_editions.html", "admin_edition_row.html", "admin_form_feedback.html", "admin_link_check.html", "login.html", "login_error.html", "head", "foot"} {
		if tmpl.Lookup(name) == nil {
			t.Fatalf("expected template %s to be defined", name)
		}
	}
}

func TestEditionCardsRendering(t *testing.T) {
	tmpl := MustTemplates()

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "edition_cards.html", map[string]interface{}{
		"cards": []cardStub{
			{ID: 1, Title: "Edição 1", Date: "15 de março de 2024", ThumbnailURL: "data:image/png;base64,AAAA", ViewerPath: "/edicoes/viewer?url=x", DownloadURL: "/uploads/a.pdf"},
			{ID: 2, Title: "Edição 2", Date: "14 de março de 2024", ViewerPath: "/edicoes/viewer?url=y", DownloadURL: "/uploads/b.pdf"},
		},
		"hasMore": true,
		"visible": 6,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	body := buf.String()

	if got := strings.Count(body, `class="edition-card"`); got != 2 {
		t.Fatalf("expected 2 cards, got %d", got)
	}
	if !strings.Contains(body, `src="data:image/png;base64,AAAA"`) {
		t.Fatal("expected data url cover to be kept")
	}
	if !strings.Contains(body, `class="edition-placeholder"`) {
		t.Fatal("expected placeholder for card without cover")
	}
	if !strings.Contains(body, `/edicoes/more?visible=6`) {
		t.Fatal("expected load more control")
	}
}

func TestIconFallback(t *testing.T) {
	if IconSVG("unknown") != placeholderIcon.SVG {
		t.Fatal("expected unknown icons to fall back to the document icon")
	}
	if IconSVG(" Eye ") == placeholderIcon.SVG {
		t.Fatal("expected eye icon to resolve")
	}
	if IconLabel("download") != "Download" {
		t.Fatalf("unexpected label %q", IconLabel("download"))
	}
}

func TestAdminEditionsFormWiring(t *testing.T) {
	tmpl := MustTemplates()

	var buf bytes.Buffer
	err := tmpl.ExecuteTemplate(&buf, "admin_editions.html", map[string]interface{}{
		"title":       "Gerenciar edições",
		"siteName":    "Jornal Tribuna",
		"maxUploadMB": 25,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	body := buf.String()

	for _, want := range []string{`<html lang="pt-BR">`, `hx-disabled-elt="find button[type=submit]"`, `hx-target="#edition-rows"`, `id="edition-empty"`, "htmx:beforeSwap"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected admin page to contain %s", want)
		}
	}
}

func TestImageURLTrustsOnlyPNGDataURLs(t *testing.T) {
	tmpl := template.Must(template.New("img").Funcs(FuncMap()).Parse(`<img src="{{imageURL .}}">`))

	tests := []struct {
		in   string
		want string
	}{
		{in: "data:image/png;base64,AAAA", want: `<img src="data:image/png;base64,AAAA">`},
		{in: "https://drive.google.com/thumbnail?id=1AbCdEfGhIjK&sz=w800", want: `<img src="https://drive.google.com/thumbnail?id=1AbCdEfGhIjK&amp;sz=w800">`},
		{in: "javascript:alert(1)", want: `<img src="#ZgotmplZ">`},
		{in: "data:text/html;base64,PHNjcmlwdD4=", want: `<img src="#ZgotmplZ">`},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, tt.in); err != nil {
			t.Fatalf("execute %q: %v", tt.in, err)
		}
		if buf.String() != tt.want {
			t.Fatalf("imageURL(%q) rendered %q, want %q", tt.in, buf.String(), tt.want)
		}
	}
}
