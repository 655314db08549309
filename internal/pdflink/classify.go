// Package pdflink recognises Google Drive share links for PDF editions and
// derives the preview, download and thumbnail URLs the site renders.
package pdflink

import (
	"net/url"
	"regexp"
	"strings"
)

// minFileIDLength is the shortest id accepted as a Drive file id.
const minFileIDLength = 10

const (
	MsgInvalidURL    = "URL inválida"
	MsgHostNotDrive  = "URL inválida. Use apenas links do Google Drive"
	MsgFileIDMissing = "ID do arquivo inválido ou não encontrado"
)

var (
	allowedHosts = []string{"drive.google.com", "docs.google.com"}

	filePathPattern = regexp.MustCompile(`/file/d/([^/?#]+)`)
	idQueryPattern  = regexp.MustCompile(`[?&]id=([^&#]+)`)
)

// Classification is the result of inspecting a candidate edition link.
type Classification struct {
	Valid  bool   `json:"valid"`
	FileID string `json:"file_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Classify checks that raw points at an allow-listed Drive host and extracts
// the file id. It performs no network I/O.
func Classify(raw string) Classification {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Classification{Error: MsgInvalidURL}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed == nil {
		return Classification{Error: MsgInvalidURL}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return Classification{Error: MsgInvalidURL}
	}

	if !IsDriveHost(parsed.Hostname()) {
		return Classification{Error: MsgHostNotDrive}
	}

	fileID := ExtractFileID(trimmed)
	if len(fileID) < minFileIDLength {
		return Classification{Error: MsgFileIDMissing}
	}

	return Classification{Valid: true, FileID: fileID}
}

// ExtractFileID tries the /file/d/<id> path form first, then the id query
// parameter. The first pattern that matches wins.
func ExtractFileID(raw string) string {
	if match := filePathPattern.FindStringSubmatch(raw); match != nil {
		return match[1]
	}
	if match := idQueryPattern.FindStringSubmatch(raw); match != nil {
		if decoded, err := url.QueryUnescape(match[1]); err == nil {
			return decoded
		}
		return match[1]
	}
	return ""
}

// IsDriveHost reports whether host is one of the Drive hosts or a subdomain.
func IsDriveHost(host string) bool {
	for _, domain := range allowedHosts {
		if isHostOrSubdomain(host, domain) {
			return true
		}
	}
	return false
}

func isHostOrSubdomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	domain = strings.ToLower(strings.TrimSpace(domain))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
