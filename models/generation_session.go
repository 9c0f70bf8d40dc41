package models

import "time"

// GenerationSession records one AI generation call. Rows are never updated.
type GenerationSession struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"not null;size:36;index" json:"-"`
	SourceTextHash string    `gorm:"not null;size:64;index" json:"source_text_hash"`
	Model          string    `gorm:"not null;size:255" json:"model"`
	GeneratedCount int       `gorm:"not null" json:"generated_count"`
	RejectedCount  int       `gorm:"not null;default:0" json:"rejected_count"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
}
