package handler

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/db"
	"github.com/tribuna/internal/locale"
	"github.com/tribuna/internal/pdflink"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const (
	visitorCookieName   = "tribuna_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60

	// editionPageSize 每次加载的卡片数量
	editionPageSize = 6
	// viewerMinLoading 查看器加载提示的最短展示时间
	viewerMinLoading = time.Second
)

// editionCard 是归档页单张卡片的展示数据。
type editionCard struct {
	ID           uint
	Title        string
	Date         string
	Description  template.HTML
	ThumbnailURL string
	ViewerPath   string
	DownloadURL  string
	External     bool
}

// archivePage 描述归档页中一次渲染的切片范围。
type archivePage struct {
	Start   int
	End     int
	Total   int
	HasMore bool
}

// paginateArchive returns the slice [start, start+count) clamped to total.
func paginateArchive(total, start, count int) archivePage {
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + count
	if end > total {
		end = total
	}
	return archivePage{Start: start, End: end, Total: total, HasMore: end < total}
}

// ShowEditions renders the public archive with the first visible editions.
func (a *API) ShowEditions(c *gin.Context) {
	ctx := c.Request.Context()
	visitorCount := a.recordVisit(c)

	editions, err := a.editions.FetchActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch editions failed")
		a.renderHTML(c, http.StatusInternalServerError, "editions.html", gin.H{
			"title":        "Edições",
			"error":        "Não foi possível carregar as edições",
			"visitorCount": visitorCount,
		})
		return
	}

	visible := visibleParam(c)
	page := paginateArchive(len(editions), 0, visible)

	a.renderHTML(c, http.StatusOK, "editions.html", gin.H{
		"title":        "Edições",
		"cards":        a.buildCards(ctx, editions[page.Start:page.End]),
		"total":        page.Total,
		"visible":      page.End,
		"hasMore":      page.HasMore,
		"visitorCount": visitorCount,
	})
}

// LoadMoreEditions returns the next slice of cards for HTMX.
func (a *API) LoadMoreEditions(c *gin.Context) {
	ctx := c.Request.Context()

	editions, err := a.editions.FetchActive(ctx)
	if err != nil {
		log.Error().Err(err).Msg("fetch editions failed")
		c.String(http.StatusInternalServerError, "")
		return
	}

	visible := visibleParam(c)
	page := paginateArchive(len(editions), visible, editionPageSize)

	c.HTML(http.StatusOK, "edition_cards.html", gin.H{
		"cards":   a.buildCards(ctx, editions[page.Start:page.End]),
		"total":   page.Total,
		"visible": page.End,
		"hasMore": page.HasMore,
	})
}

// ShowEditionViewer renders the viewer modal for a stored edition link.
func (a *API) ShowEditionViewer(c *gin.Context) {
	source := strings.TrimSpace(c.Query("url"))
	title := strings.TrimSpace(c.Query("title"))

	data := gin.H{
		"title":        title,
		"sourceURL":    source,
		"minLoadingMs": viewerMinLoading.Milliseconds(),
	}

	switch {
	case source == "":
		data["error"] = pdflink.MsgInvalidURL
	case a.ownsURL(source):
		data["previewURL"] = source
	default:
		resolution := a.resolver.Resolve(c.Request.Context(), source)
		if !resolution.Valid {
			data["error"] = resolution.Error
		} else {
			data["previewURL"] = resolution.URLs.PreviewURL
		}
	}

	c.HTML(http.StatusOK, "edition_viewer.html", data)
}

func (a *API) ownsURL(raw string) bool {
	store := a.editions.Store()
	if store == nil {
		return false
	}
	_, ok := store.KeyFromURL(raw)
	return ok
}

// buildCards 为每个期刊准备展示数据；单张卡片的失败只会回退到占位图标。
func (a *API) buildCards(ctx context.Context, editions []db.Edition) []editionCard {
	cards := make([]editionCard, 0, len(editions))
	missingCovers := make([]string, 0)

	for _, edition := range editions {
		card := editionCard{
			ID:          edition.ID,
			Title:       edition.Title,
			Date:        locale.FormatDate(edition.CreatedAt),
			Description: renderDescription(edition.Description),
			ViewerPath:  viewerPath(edition.PDFURL, edition.Title),
			DownloadURL: edition.PDFURL,
			External:    edition.IsExternal,
		}

		if edition.IsExternal {
			resolution := a.resolver.Resolve(ctx, edition.PDFURL)
			if resolution.Valid {
				card.ThumbnailURL = resolution.URLs.ThumbnailURL
				card.DownloadURL = resolution.URLs.DownloadURL
			} else {
				log.Warn().Uint("edition_id", edition.ID).Str("error", resolution.Error).Msg("stored edition link no longer classifies")
			}
		} else {
			card.ThumbnailURL = edition.CoverImageURL
			if card.ThumbnailURL == "" {
				missingCovers = append(missingCovers, edition.PDFURL)
			}
		}
		cards = append(cards, card)
	}

	if len(missingCovers) > 0 && a.covers != nil {
		generated := a.generateCovers(ctx, missingCovers)
		for i := range cards {
			if cards[i].External || cards[i].ThumbnailURL != "" {
				continue
			}
			if dataURL, ok := generated[cards[i].DownloadURL]; ok {
				cards[i].ThumbnailURL = dataURL
			}
		}
	}

	return cards
}

// generateCovers 只为未缓存的 PDF 调用生成器，失败的结果也会缓存为空串。
func (a *API) generateCovers(ctx context.Context, urls []string) map[string]string {
	result := make(map[string]string, len(urls))
	pending := make([]string, 0, len(urls))
	for _, pdfURL := range urls {
		if dataURL, ok := a.coverCache.Get(pdfURL); ok {
			if dataURL != "" {
				result[pdfURL] = dataURL
			}
			continue
		}
		pending = append(pending, pdfURL)
	}
	if len(pending) == 0 {
		return result
	}

	generated := a.covers.GenerateAll(ctx, pending)
	if ctx.Err() != nil {
		return result
	}
	for _, pdfURL := range pending {
		dataURL := generated[pdfURL]
		a.coverCache.Add(pdfURL, dataURL)
		if dataURL != "" {
			result[pdfURL] = dataURL
		}
	}
	return result
}

func viewerPath(source, title string) string {
	query := url.Values{}
	query.Set("url", source)
	if title != "" {
		query.Set("title", title)
	}
	return "/edicoes/viewer?" + query.Encode()
}

func renderDescription(content string) template.HTML {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	rendered, err := renderMarkdown(content)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return rendered
}

func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}

func (a *API) recordVisit(c *gin.Context) uint64 {
	if a.visitors == nil {
		return 0
	}
	count, err := a.visitors.RecordVisit(c.Request.Context(), a.ensureVisitorID(c), time.Now())
	if err != nil {
		log.Warn().Err(err).Msg("record visit failed")
		return 0
	}
	return count
}

func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	secure := c.Request.TLS != nil

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   visitorCookieMaxAge,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})

	return visitorID
}
