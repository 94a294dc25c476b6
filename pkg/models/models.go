// Package models defines the persistent records for CodeScope.
package models

import "time"

// CodeSnapshot is one submitted piece of source code, kept so the editor
// can restore the last session.
type CodeSnapshot struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Code      string    `json:"code" gorm:"type:text;not null"`
	Language  string    `json:"language" gorm:"size:64"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a named, saved piece of code.
type Project struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	Code      string    `json:"code" gorm:"type:text;not null"`
	Language  string    `json:"language" gorm:"size:64"`
	Favorite  bool      `json:"favorite" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatMessage is one (user message, assistant reply) pair in the transcript.
type ChatMessage struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserMessage string    `json:"user_message" gorm:"type:text;not null"`
	AIResponse  string    `json:"ai_response" gorm:"type:text;not null"`
	CreatedAt   time.Time `json:"created_at"`
}
