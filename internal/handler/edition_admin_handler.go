package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/pdflink"
	"github.com/tribuna/internal/service"
)

const (
	msgSaveFailed   = "Falha ao salvar edição"
	msgDeleteFailed = "Falha ao excluir edição"
	msgNotFound     = "Edição não encontrada"
	msgInvalidID    = "ID de edição inválido"
	msgCacheCleared = "Cache de links limpo"
)

// ShowAdminEditions 渲染后台期刊列表与发布表单
func (a *API) ShowAdminEditions(c *gin.Context) {
	session := sessions.Default(c)

	editions, err := a.editions.FetchActive(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("fetch editions failed")
		c.Error(err)
	}

	a.renderHTML(c, http.StatusOK, "admin_editions.html", gin.H{
		"title":       "Gerenciar edições",
		"username":    session.Get(sessionUsernameKey),
		"editions":    editions,
		"maxUploadMB": a.maxUploadBytes >> 20,
	})
}

// ListEditions returns active editions as JSON.
func (a *API) ListEditions(c *gin.Context) {
	editions, err := a.editions.FetchActive(c.Request.Context())
	if err != nil {
		a.respondEditionError(c, err, msgSaveFailed)
		return
	}
	c.JSON(http.StatusOK, gin.H{"editions": editions})
}

// CreateEdition accepts the multipart admin form.
func (a *API) CreateEdition(c *gin.Context) {
	meta := service.EditionMetadata{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		ExternalURL: c.PostForm("external_url"),
	}

	file, err := a.readUpload(c)
	if err != nil {
		a.respondEditionError(c, err, msgSaveFailed)
		return
	}

	submission, err := service.NewSubmission(meta, file)
	if err != nil {
		a.respondEditionError(c, err, msgSaveFailed)
		return
	}

	edition, err := a.editions.Create(c.Request.Context(), submission)
	if err != nil {
		a.respondEditionError(c, err, msgSaveFailed)
		return
	}

	if isHTMX(c) {
		c.Header("HX-Trigger", "edition-saved")
		c.HTML(http.StatusCreated, "admin_edition_row.html", edition)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"edition": edition})
}

// readUpload 读取可选的 file 字段，超过大小限制时返回校验错误。
func (a *API) readUpload(c *gin.Context) (*service.UploadFile, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, &service.ValidationError{Message: service.MsgNoFile}
	}
	if header.Size > a.maxUploadBytes {
		return nil, &service.ValidationError{Message: fmt.Sprintf(service.MsgFileTooLarge, a.maxUploadBytes>>20)}
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, a.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &service.UploadFile{Filename: header.Filename, Data: data}, nil
}

// UpdateEdition applies a JSON partial update.
func (a *API) UpdateEdition(c *gin.Context) {
	id, ok := editionIDParam(c)
	if !ok {
		return
	}

	var patch service.EditionPatch
	if !bindJSON(c, &patch, "Dados da edição inválidos") {
		return
	}

	edition, err := a.editions.Update(c.Request.Context(), id, patch)
	if err != nil {
		a.respondEditionError(c, err, msgSaveFailed)
		return
	}

	c.JSON(http.StatusOK, gin.H{"edition": edition})
}

// DeleteEdition removes an edition; the empty body lets HTMX drop the row.
func (a *API) DeleteEdition(c *gin.Context) {
	id, ok := editionIDParam(c)
	if !ok {
		return
	}

	if err := a.editions.Delete(c.Request.Context(), id); err != nil {
		a.respondEditionError(c, err, msgDeleteFailed)
		return
	}

	c.String(http.StatusOK, "")
}

type checkLinkRequest struct {
	ExternalURL string `json:"external_url" form:"external_url"`
	Probe       bool   `json:"probe" form:"probe"`
}

// CheckEditionLink classifies a link without saving it. The reachability
// probe is advisory and never changes the verdict.
func (a *API) CheckEditionLink(c *gin.Context) {
	var req checkLinkRequest
	if err := c.ShouldBind(&req); err != nil {
		respondError(c, http.StatusBadRequest, pdflink.MsgInvalidURL)
		return
	}

	resolution := a.resolver.Resolve(c.Request.Context(), req.ExternalURL)
	response := gin.H{
		"valid":  resolution.Valid,
		"fileId": resolution.FileID,
		"error":  resolution.Error,
	}
	if resolution.Valid {
		response["urls"] = resolution.URLs
		if req.Probe && a.prober != nil {
			response["probed"] = true
			response["reachable"] = a.prober.Probe(c.Request.Context(), resolution.URLs.PreviewURL)
		}
	}

	if isHTMX(c) {
		c.HTML(http.StatusOK, "admin_link_check.html", response)
		return
	}
	c.JSON(http.StatusOK, response)
}

// ClearLinkCache drops every cached link derivation.
func (a *API) ClearLinkCache(c *gin.Context) {
	a.resolver.ClearCache(c.Request.Context())
	if isHTMX(c) {
		c.HTML(http.StatusOK, "admin_form_feedback.html", gin.H{"message": msgCacheCleared})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msgCacheCleared})
}

func (a *API) respondEditionError(c *gin.Context, err error, fallback string) {
	if verr, ok := service.IsValidationError(err); ok {
		respondFormError(c, http.StatusBadRequest, verr.Message)
		return
	}

	switch {
	case errors.Is(err, service.ErrEditionNotFound):
		respondFormError(c, http.StatusNotFound, msgNotFound)
	default:
		event := log.Error().Err(err).Str("path", c.FullPath())
		if serr, ok := service.IsStorageError(err); ok {
			event = event.Str("op", serr.Op)
		}
		event.Msg("edition operation failed")
		respondFormError(c, http.StatusInternalServerError, fallback)
	}
}

// respondFormError 对 HTMX 请求返回可直接插入表单提示区的片段
func respondFormError(c *gin.Context, status int, message string) {
	if !isHTMX(c) {
		respondError(c, status, message)
		return
	}
	c.Header("HX-Retarget", "#form-feedback")
	c.Header("HX-Reswap", "innerHTML")
	c.HTML(status, "admin_form_feedback.html", gin.H{"message": message, "error": true})
}
