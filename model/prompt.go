package model

import "time"

// Prompt is a stored enhancement result. The backing store defaults to an
// in-memory database, so records do not survive a restart.
type Prompt struct {
	ID           string    `json:"id" gorm:"primaryKey;type:text;not null"`
	OriginalText string    `json:"original_text" gorm:"type:text;not null"`
	EnhancedText string    `json:"enhanced_text" gorm:"type:text;not null"`
	Format       string    `json:"format" gorm:"size:32;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null"`
}
