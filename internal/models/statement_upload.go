package models

// UploadStatus tracks a statement upload through the ingest pipeline.
type UploadStatus string

const (
	UploadStatusPending    UploadStatus = "pending"
	UploadStatusProcessing UploadStatus = "processing"
	UploadStatusCompleted  UploadStatus = "completed"
	UploadStatusFailed     UploadStatus = "failed"
)

// StatementUpload holds the raw text of an uploaded bank statement and the
// outcome of processing it. EntityMap stores the anonymization placeholders
// (JSON object of placeholder -> original value) so parsed transactions can
// be restored before insertion.
type StatementUpload struct {
	Base
	UserID           string       `gorm:"type:uuid;not null;index" json:"user_id"`
	RawText          string       `gorm:"type:text" json:"-"`
	EntityMap        string       `gorm:"type:text" json:"-"`
	Status           UploadStatus `gorm:"not null;default:pending" json:"status"`
	Error            string       `json:"error,omitempty"`
	TransactionCount int          `gorm:"default:0" json:"transaction_count"`
	DuplicateCount   int          `gorm:"default:0" json:"duplicate_count"`
}
