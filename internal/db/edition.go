package db

import "time"

// Edition status values. Only active rows are listed publicly; archived is
// accepted by the column but no code path produces it.
const (
	EditionStatusActive   = "active"
	EditionStatusArchived = "archived"
	EditionStatusDeleted  = "deleted"
)

// Edition source types.
const (
	SourceGoogleDrive = "google_drive"
	SourceUpload      = "upload"
)

// Edition 定义一期报纸 PDF 版面的记录。
type Edition struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	Title            string    `gorm:"not null" json:"title"`
	Description      string    `json:"description"`
	PDFURL           string    `gorm:"column:pdf_url;not null" json:"pdf_url"`
	CoverImageURL    string    `json:"cover_image_url,omitempty"`
	IsExternal       bool      `gorm:"not null;default:false" json:"is_external"`
	SourceType       string    `gorm:"size:32" json:"source_type,omitempty"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	FileSize         int64     `json:"file_size,omitempty"`
	PageCount        int       `json:"page_count,omitempty"`
	Status           string    `gorm:"size:16;index;default:active" json:"status"`
	CreatedAt        time.Time `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName 指定自定义表名。
func (Edition) TableName() string {
	return "pdf_editions"
}
