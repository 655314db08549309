package storage

import (
	"testing"
	"time"
)

func TestSanitizeFilename(t *testing.T) {
	now := time.UnixMilli(1710504000000)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "accents and spaces", in: "Edição Março 2024.pdf", want: "1710504000000-edicao-marco-2024.pdf"},
		{name: "special characters collapse", in: "Tribuna  #12 (final)!.PDF", want: "1710504000000-tribuna-12-final-.pdf"},
		{name: "already clean", in: "edicao-123.pdf", want: "1710504000000-edicao-123.pdf"},
		{name: "only symbols", in: "###", want: "1710504000000-edicao.pdf"},
		{name: "repeated dots collapse", in: "Edição 12..pdf", want: "1710504000000-edicao-12.pdf"},
		{name: "leading dots dropped", in: "...capa.pdf", want: "1710504000000-capa.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFilename(tt.in, now); got != tt.want {
				t.Fatalf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestThumbnailName(t *testing.T) {
	if got := ThumbnailName("1710504000000-edicao.pdf"); got != "1710504000000-edicao-thumb.png" {
		t.Fatalf("unexpected thumbnail name %q", got)
	}
	if got := ThumbnailName("scan"); got != "scan-thumb.png" {
		t.Fatalf("unexpected thumbnail name %q", got)
	}
}

func TestKeyFromPrefixedURL(t *testing.T) {
	tests := []struct {
		base, raw string
		want      string
		ok        bool
	}{
		{"/uploads", "/uploads/1-a.pdf", "1-a.pdf", true},
		{"/uploads/", "/uploads/1-a.pdf?v=2", "1-a.pdf", true},
		{"https://storage.googleapis.com/bucket", "https://storage.googleapis.com/bucket/1-a.pdf", "1-a.pdf", true},
		{"/uploads", "https://drive.google.com/file/d/abc/preview", "", false},
		{"/uploads", "/uploads/", "", false},
		{"/uploads", "/uploads/../secret", "", false},
		{"/uploads", "/uploads/..", "", false},
		{"/uploads", "/uploads/nested/1-a.pdf", "", false},
		{"/uploads", "/uploads/1-edicao-12..pdf", "1-edicao-12..pdf", true},
	}

	for _, tt := range tests {
		got, ok := keyFromPrefixedURL(tt.base, tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("keyFromPrefixedURL(%q, %q) = (%q, %v), want (%q, %v)", tt.base, tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}
