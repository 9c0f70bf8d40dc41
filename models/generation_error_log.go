package models

import "time"

// GenerationErrorLog is an append-only record of a failed generation.
type GenerationErrorLog struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"not null;size:36;index" json:"-"`
	ErrorCode      string    `gorm:"not null;size:64" json:"error_code"`
	ErrorMessage   string    `gorm:"not null" json:"error_message"`
	SourceTextHash string    `gorm:"not null;size:64;index" json:"source_text_hash"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}
