package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/tribuna/internal/db"
	"github.com/tribuna/internal/metrics"
	"github.com/tribuna/internal/pdflink"
	"github.com/tribuna/internal/storage"
	"gorm.io/gorm"
)

const (
	defaultMaxUploadBytes = 25 << 20
	pdfContentType        = "application/pdf"
	pngContentType        = "image/png"
)

func init() {
	// pdfcpu 默认会读写用户配置目录，在并发请求中禁用。
	pdfapi.DisableConfigDir()
}

// CoverRenderer renders the first page of a PDF as PNG bytes.
type CoverRenderer interface {
	RenderPNG(ctx context.Context, pdf []byte) ([]byte, error)
}

// EditionPatch carries the fields of a partial update; nil means unchanged.
type EditionPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	ExternalURL *string `json:"external_url"`
}

// EditionService 负责期刊的持久化、链接规范化以及上传文件的存储管理。
type EditionService struct {
	db             *gorm.DB
	resolver       *pdflink.Resolver
	store          storage.ObjectStore
	covers         CoverRenderer
	maxUploadBytes int64
	now            func() time.Time
}

// NewEditionService wires the repository with its collaborators. store may be
// nil when only external editions are accepted.
func NewEditionService(gdb *gorm.DB, resolver *pdflink.Resolver, store storage.ObjectStore) *EditionService {
	if resolver == nil {
		resolver = pdflink.NewResolver(nil)
	}
	return &EditionService{
		db:             gdb,
		resolver:       resolver,
		store:          store,
		maxUploadBytes: defaultMaxUploadBytes,
		now:            time.Now,
	}
}

// WithCoverRenderer enables cover generation for uploaded editions.
func (s *EditionService) WithCoverRenderer(r CoverRenderer) *EditionService {
	s.covers = r
	return s
}

// WithMaxUploadBytes overrides the 25MB upload limit.
func (s *EditionService) WithMaxUploadBytes(n int64) *EditionService {
	if n > 0 {
		s.maxUploadBytes = n
	}
	return s
}

// WithClock 允许测试固定文件名中的时间戳。
func (s *EditionService) WithClock(now func() time.Time) *EditionService {
	if now != nil {
		s.now = now
	}
	return s
}

// Resolver exposes the link resolver used for normalization.
func (s *EditionService) Resolver() *pdflink.Resolver {
	return s.resolver
}

// Store exposes the object store; nil when uploads are disabled.
func (s *EditionService) Store() storage.ObjectStore {
	return s.store
}

// FetchActive returns active editions, newest first.
func (s *EditionService) FetchActive(ctx context.Context) ([]db.Edition, error) {
	editions := make([]db.Edition, 0)
	err := s.db.WithContext(ctx).
		Where("status = ?", db.EditionStatusActive).
		Order("created_at DESC").
		Order("id DESC").
		Find(&editions).Error
	if err != nil {
		return nil, &StorageError{Op: "fetch", Message: "Erro ao buscar edições", Err: err}
	}
	return editions, nil
}

// Get loads one edition by id.
func (s *EditionService) Get(ctx context.Context, id uint) (*db.Edition, error) {
	var edition db.Edition
	if err := s.db.WithContext(ctx).First(&edition, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEditionNotFound
		}
		return nil, &StorageError{Op: "get", Message: "Erro ao buscar detalhes da edição", Err: err}
	}
	return &edition, nil
}

// Create persists a new edition from a validated submission.
func (s *EditionService) Create(ctx context.Context, submission Submission) (*db.Edition, error) {
	var (
		edition *db.Edition
		err     error
	)
	switch sub := submission.(type) {
	case ExternalLinkSubmission:
		edition, err = s.createExternal(ctx, sub)
	case FileUploadSubmission:
		edition, err = s.createUpload(ctx, sub)
	default:
		err = newValidationError(MsgSourceRequired)
	}
	recordOperation("create", err)
	return edition, err
}

func (s *EditionService) createExternal(ctx context.Context, sub ExternalLinkSubmission) (*db.Edition, error) {
	previewURL, classification := s.resolver.Normalize(ctx, sub.URL)
	if !classification.Valid {
		return nil, newValidationError(classification.Error)
	}

	edition := &db.Edition{
		Title:       sub.Meta.Title,
		Description: sub.Meta.Description,
		PDFURL:      previewURL,
		IsExternal:  true,
		SourceType:  db.SourceGoogleDrive,
		Status:      db.EditionStatusActive,
	}
	if err := s.db.WithContext(ctx).Create(edition).Error; err != nil {
		return nil, &StorageError{Op: "create", Message: "Erro ao salvar registro da edição", Err: err}
	}
	return edition, nil
}

func (s *EditionService) createUpload(ctx context.Context, sub FileUploadSubmission) (*db.Edition, error) {
	data := sub.File.Data
	if err := s.validatePDF(data); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, &StorageError{Op: "upload", Message: "Armazenamento de arquivos indisponível"}
	}

	key := storage.SanitizeFilename(sub.File.Filename, s.now())
	pdfURL, err := s.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), pdfContentType)
	if err != nil {
		return nil, &StorageError{Op: "upload", Message: "Erro ao fazer upload do arquivo", Err: err}
	}

	edition := &db.Edition{
		Title:            sub.Meta.Title,
		Description:      sub.Meta.Description,
		PDFURL:           pdfURL,
		CoverImageURL:    s.uploadCover(ctx, key, data),
		IsExternal:       false,
		SourceType:       db.SourceUpload,
		OriginalFilename: sub.File.Filename,
		FileSize:         int64(len(data)),
		PageCount:        countPages(data),
		Status:           db.EditionStatusActive,
	}

	if err := s.db.WithContext(ctx).Create(edition).Error; err != nil {
		s.removeObjects(ctx, edition)
		return nil, &StorageError{Op: "create", Message: "Erro ao salvar registro da edição", Err: err}
	}
	return edition, nil
}

func (s *EditionService) validatePDF(data []byte) error {
	if len(data) == 0 {
		return newValidationError(MsgNoFile)
	}
	if int64(len(data)) > s.maxUploadBytes {
		return newValidationError(fmt.Sprintf(MsgFileTooLarge, s.maxUploadBytes>>20))
	}
	if !mimetype.Detect(data).Is(pdfContentType) {
		return newValidationError(MsgNotPDF)
	}
	return nil
}

// uploadCover 生成并上传封面，失败时仅记录日志，卡片会回退到占位图标。
func (s *EditionService) uploadCover(ctx context.Context, pdfKey string, data []byte) string {
	if s.covers == nil {
		return ""
	}
	cover, err := s.covers.RenderPNG(ctx, data)
	if err != nil {
		log.Warn().Err(err).Str("key", pdfKey).Msg("cover render failed")
		return ""
	}
	coverURL, err := s.store.Upload(ctx, storage.ThumbnailName(pdfKey), bytes.NewReader(cover), int64(len(cover)), pngContentType)
	if err != nil {
		log.Warn().Err(err).Str("key", pdfKey).Msg("cover upload failed")
		return ""
	}
	return coverURL
}

func countPages(data []byte) (pages int) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Msg("pdf page count panicked")
			pages = 0
		}
	}()
	pages, err := pdfapi.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		log.Debug().Err(err).Msg("pdf page count unavailable")
		return 0
	}
	return pages
}

// Update applies a partial change. External links are re-normalized;
// uploaded editions cannot switch to a link.
func (s *EditionService) Update(ctx context.Context, id uint, patch EditionPatch) (*db.Edition, error) {
	edition, err := s.update(ctx, id, patch)
	recordOperation("update", err)
	return edition, err
}

func (s *EditionService) update(ctx context.Context, id uint, patch EditionPatch) (*db.Edition, error) {
	edition, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, newValidationError(MsgTitleRequired)
		}
		edition.Title = title
	}
	if patch.Description != nil {
		edition.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.ExternalURL != nil {
		if !edition.IsExternal {
			return nil, newValidationError(MsgUploadLinkReadonly)
		}
		previewURL, classification := s.resolver.Normalize(ctx, *patch.ExternalURL)
		if !classification.Valid {
			return nil, newValidationError(classification.Error)
		}
		edition.PDFURL = previewURL
	}

	if err := s.db.WithContext(ctx).Save(edition).Error; err != nil {
		return nil, &StorageError{Op: "update", Message: "Erro ao atualizar edição", Err: err}
	}
	return edition, nil
}

// Delete removes the row first, then cleans up owned objects. Cleanup
// failures are logged and never reported to the caller.
func (s *EditionService) Delete(ctx context.Context, id uint) error {
	err := s.delete(ctx, id)
	recordOperation("delete", err)
	return err
}

func (s *EditionService) delete(ctx context.Context, id uint) error {
	edition, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&db.Edition{}, edition.ID).Error; err != nil {
		return &StorageError{Op: "delete", Message: "Erro ao excluir registro da edição", Err: err}
	}

	if !edition.IsExternal {
		s.removeObjects(ctx, edition)
	}
	return nil
}

func (s *EditionService) removeObjects(ctx context.Context, edition *db.Edition) {
	if s.store == nil {
		return
	}

	keys := make([]string, 0, 2)
	if key, ok := s.store.KeyFromURL(edition.PDFURL); ok {
		keys = append(keys, key)
		if edition.CoverImageURL == "" {
			keys = append(keys, storage.ThumbnailName(key))
		}
	}
	if key, ok := s.store.KeyFromURL(edition.CoverImageURL); ok {
		keys = append(keys, key)
	}

	for _, key := range keys {
		if err := s.store.Remove(ctx, key); err != nil {
			log.Warn().Err(err).Uint("edition_id", edition.ID).Str("key", key).Msg("error deleting file from storage")
		}
	}
}

func recordOperation(op string, err error) {
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		if _, ok := IsValidationError(err); ok {
			result = metrics.ResultInvalid
		}
	}
	metrics.EditionOperations.WithLabelValues(op, result).Inc()
}
