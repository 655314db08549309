package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
	repeatedHyphens = regexp.MustCompile(`-{2,}`)
	repeatedDots    = regexp.MustCompile(`\.{2,}`)
)

// SanitizeFilename 去除重音与特殊字符并加上毫秒时间戳前缀，
// 例如 "Edição Março.pdf" -> "1710504000000-edicao-marco.pdf"。
func SanitizeFilename(name string, now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), cleanName(name))
}

func cleanName(name string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, name)
	if err != nil {
		stripped = name
	}
	cleaned := unsafeNameChars.ReplaceAllString(stripped, "-")
	cleaned = repeatedDots.ReplaceAllString(cleaned, ".")
	cleaned = repeatedHyphens.ReplaceAllString(cleaned, "-")
	cleaned = strings.TrimLeft(strings.ToLower(cleaned), ".")
	if strings.Trim(cleaned, "-.") == "" {
		return "edicao.pdf"
	}
	return cleaned
}

// ThumbnailName derives the cover object key stored next to a PDF.
func ThumbnailName(pdfKey string) string {
	if strings.HasSuffix(strings.ToLower(pdfKey), ".pdf") {
		return pdfKey[:len(pdfKey)-len(".pdf")] + "-thumb.png"
	}
	return pdfKey + "-thumb.png"
}
