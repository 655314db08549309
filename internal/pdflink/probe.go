package pdflink

import (
	"context"
	"net/http"
	"time"
)

// Prober checks that a link answers a HEAD request. It is optional and never
// part of classification.
type Prober struct {
	client *http.Client
}

// NewProber returns a prober using client, or a client with a short timeout.
func NewProber(client *http.Client) *Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Prober{client: client}
}

// Probe reports whether url responds with a 2xx status.
func (p *Prober) Probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
