package models

import (
	"time"
)

// Source tells where a flashcard came from.
type Source string

const (
	SourceManual   Source = "manual"
	SourceAI       Source = "ai"
	SourceAIEdited Source = "ai-edited"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceAI, SourceAIEdited:
		return true
	}
	return false
}

// IsAI reports whether the source requires a generation session.
func (s Source) IsAI() bool {
	return s == SourceAI || s == SourceAIEdited
}

const (
	FrontMaxLength = 200
	BackMaxLength  = 500
)

// Flashcard represents an individual flashcard owned by a user
type Flashcard struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	Front        string    `gorm:"not null;size:200" json:"front"`
	Back         string    `gorm:"not null;size:500" json:"back"`
	Source       Source    `gorm:"not null;size:16;index" json:"source"`
	GenerationID *int64    `gorm:"index" json:"generation_id"`
	UserID       string    `gorm:"not null;size:36;index" json:"-"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	User       User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;" json:"-"`
	Generation *GenerationSession `gorm:"foreignKey:GenerationID;constraint:OnDelete:SET NULL;" json:"-"`
}
