package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session is a server-side browser session. Data is the session-scoped
// key-value store; anti-forgery tokens live there and die with the session.
type Session struct {
	ID        uuid.UUID         `json:"id" gorm:"type:char(36);primaryKey"`
	Token     string            `json:"token" gorm:"size:64;uniqueIndex;not null"`
	UserID    *uuid.UUID        `json:"userId" gorm:"type:char(36);index"`
	Data      datatypes.JSONMap `json:"data"`
	ExpiresAt time.Time         `json:"expiresAt" gorm:"index;not null"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`

	modified bool
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Get returns the string stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.Data[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// Set stores value under key and marks the session for saving.
func (s *Session) Set(key, value string) {
	if s.Data == nil {
		s.Data = datatypes.JSONMap{}
	}
	s.Data[key] = value
	s.modified = true
}

func (s *Session) Delete(key string) {
	if _, ok := s.Data[key]; !ok {
		return
	}
	delete(s.Data, key)
	s.modified = true
}

func (s *Session) IsAuthenticated() bool {
	return s.UserID != nil && *s.UserID != uuid.Nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) IsModified() bool {
	return s.modified
}

func (s *Session) MarkModified() {
	s.modified = true
}

func (s *Session) MarkSaved() {
	s.modified = false
}
