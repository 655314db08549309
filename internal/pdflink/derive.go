package pdflink

import (
	"fmt"
	"net/url"
	"time"
)

// ThumbnailWidth is the pixel width requested from Drive for edition covers.
const ThumbnailWidth = 800

// URLSet is the derived, renderable form of an edition link.
type URLSet struct {
	PreviewURL   string    `json:"previewUrl"`
	DownloadURL  string    `json:"downloadUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	SourceURL    string    `json:"sourceUrl"`
	ComputedAt   time.Time `json:"computedAt"`
}

// Derive builds the Drive preview, download and thumbnail URLs for fileID.
// It trusts its input; callers classify first.
func Derive(fileID string) URLSet {
	escaped := url.PathEscape(fileID)
	query := url.QueryEscape(fileID)
	return URLSet{
		PreviewURL:   fmt.Sprintf("https://drive.google.com/file/d/%s/preview", escaped),
		DownloadURL:  fmt.Sprintf("https://drive.google.com/uc?export=download&id=%s", query),
		ThumbnailURL: fmt.Sprintf("https://drive.google.com/thumbnail?id=%s&sz=w%d", query, ThumbnailWidth),
	}
}

// SameURLs reports whether two sets point at the same renderable URLs,
// ignoring bookkeeping fields.
func (s URLSet) SameURLs(other URLSet) bool {
	return s.PreviewURL == other.PreviewURL &&
		s.DownloadURL == other.DownloadURL &&
		s.ThumbnailURL == other.ThumbnailURL
}
