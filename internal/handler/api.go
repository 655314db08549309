package handler

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/tribuna/internal/locale"
	"github.com/tribuna/internal/pdflink"
	"github.com/tribuna/internal/service"
	"gorm.io/gorm"
)

const (
	defaultSiteName       = "Jornal Tribuna"
	defaultMaxUploadBytes = 25 << 20

	// 生成的封面按 PDF URL 缓存
	coverCacheSize = 256
	coverCacheTTL  = 6 * time.Hour
)

// coverGenerator renders covers for uploaded editions that have none stored.
type coverGenerator interface {
	GenerateAll(ctx context.Context, urls []string) map[string]string
}

// visitorCounter is the part of VisitorService the public pages use.
type visitorCounter interface {
	RecordVisit(ctx context.Context, visitorID string, now time.Time) (uint64, error)
}

// Options collects the collaborators of the HTTP handlers.
type Options struct {
	DB             *gorm.DB
	Editions       *service.EditionService
	Visitors       visitorCounter
	Prober         *pdflink.Prober
	Covers         coverGenerator
	SiteName       string
	SiteBaseURL    string
	MaxUploadBytes int64
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db             *gorm.DB
	editions       *service.EditionService
	resolver       *pdflink.Resolver
	visitors       visitorCounter
	prober         *pdflink.Prober
	covers         coverGenerator
	coverCache     *expirable.LRU[string, string]
	siteName       string
	siteBaseURL    string
	maxUploadBytes int64
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	editions := opts.Editions
	if editions == nil {
		editions = service.NewEditionService(opts.DB, nil, nil)
	}
	visitors := opts.Visitors
	if visitors == nil && opts.DB != nil {
		visitors = service.NewVisitorService(opts.DB)
	}
	siteName := opts.SiteName
	if siteName == "" {
		siteName = defaultSiteName
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	return &API{
		db:             opts.DB,
		editions:       editions,
		resolver:       editions.Resolver(),
		visitors:       visitors,
		prober:         opts.Prober,
		covers:         opts.Covers,
		coverCache:     expirable.NewLRU[string, string](coverCacheSize, nil, coverCacheTTL),
		siteName:       siteName,
		siteBaseURL:    strings.TrimRight(strings.TrimSpace(opts.SiteBaseURL), "/"),
		maxUploadBytes: maxUpload,
	}
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}
	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().In(locale.Location()).Year()
	}
	if a.siteBaseURL != "" {
		payload["canonicalURL"] = a.siteBaseURL + c.Request.URL.Path
	}

	c.HTML(status, template, payload)
}
