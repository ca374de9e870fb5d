package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

type DocumentFormat string

const (
	FormatPDF       DocumentFormat = "pdf"
	FormatDOCX      DocumentFormat = "docx"
	FormatPlainText DocumentFormat = "plain_text"
	FormatUnknown   DocumentFormat = "unknown"
)

// DetectFormat derives the declared format from the filename suffix, ignoring case.
func DetectFormat(filename string) DocumentFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".txt":
		return FormatPlainText
	default:
		return FormatUnknown
	}
}

type DocumentStatus string

const (
	StatusQueued     DocumentStatus = "queued"
	StatusProcessing DocumentStatus = "processing"
	StatusIndexed    DocumentStatus = "indexed"
	StatusFailed     DocumentStatus = "failed"
)

// Document is a resume kept in the persistent index.
type Document struct {
	ID               uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Filename         string         `gorm:"type:text" json:"filename"`
	OriginalFileName string         `gorm:"type:text" json:"original_filename"`
	Format           DocumentFormat `gorm:"type:text" json:"format"`
	FilePath         string         `gorm:"type:text" json:"-"`
	Status           DocumentStatus `gorm:"not null;default:'queued'" json:"status"`
	Preview          *string        `gorm:"type:text" json:"preview,omitempty"`
	ErrorMessage     *string        `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"type:timestamp;default:now()" json:"updated_at"`
}

func (d *Document) TableName() string {
	return "documents"
}

// Upload is an in-memory document received with a match request.
type Upload struct {
	Filename string
	Content  []byte
}
