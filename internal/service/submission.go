package service

import "strings"

// 后台表单的校验提示。
const (
	MsgTitleRequired      = "O título é obrigatório"
	MsgSourceRequired     = "É necessário fornecer um arquivo ou link"
	MsgSourceConflict     = "Forneça apenas um arquivo ou link, não ambos"
	MsgNoFile             = "Nenhum arquivo selecionado"
	MsgNotPDF             = "O arquivo deve ser um PDF"
	MsgFileTooLarge       = "O arquivo não pode ser maior que %dMB"
	MsgUploadLinkReadonly = "Edições enviadas por arquivo não aceitam link externo"
)

// EditionMetadata is what the admin form sends besides the PDF itself.
type EditionMetadata struct {
	Title       string
	Description string
	ExternalURL string
}

// UploadFile is an uploaded PDF already read into memory.
type UploadFile struct {
	Filename string
	Data     []byte
}

// Submission is either an ExternalLinkSubmission or a FileUploadSubmission.
type Submission interface {
	metadata() EditionMetadata
}

// ExternalLinkSubmission publishes an edition hosted on Google Drive.
type ExternalLinkSubmission struct {
	Meta EditionMetadata
	URL  string
}

func (s ExternalLinkSubmission) metadata() EditionMetadata { return s.Meta }

// FileUploadSubmission publishes an edition from an uploaded PDF.
type FileUploadSubmission struct {
	Meta EditionMetadata
	File UploadFile
}

func (s FileUploadSubmission) metadata() EditionMetadata { return s.Meta }

// NewSubmission 校验标题，并保证链接与文件二者恰好提供其一。
func NewSubmission(meta EditionMetadata, file *UploadFile) (Submission, error) {
	meta.Title = strings.TrimSpace(meta.Title)
	meta.Description = strings.TrimSpace(meta.Description)
	meta.ExternalURL = strings.TrimSpace(meta.ExternalURL)

	if meta.Title == "" {
		return nil, newValidationError(MsgTitleRequired)
	}

	hasFile := file != nil
	hasURL := meta.ExternalURL != ""

	switch {
	case !hasFile && !hasURL:
		return nil, newValidationError(MsgSourceRequired)
	case hasFile && hasURL:
		return nil, newValidationError(MsgSourceConflict)
	case hasURL:
		return ExternalLinkSubmission{Meta: meta, URL: meta.ExternalURL}, nil
	default:
		if len(file.Data) == 0 {
			return nil, newValidationError(MsgNoFile)
		}
		return FileUploadSubmission{Meta: meta, File: *file}, nil
	}
}
