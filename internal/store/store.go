// Package store is the persistence gateway: typed CRUD operations over the
// code snapshot, project, and chat transcript tables. No business logic lives
// here; every operation is a single statement with auto-incrementing IDs and
// insertion-ordered listings.
package store

import (
	"fmt"

	"codescope/pkg/models"

	"gorm.io/gorm"
)

// Store provides typed access to the persistent tables.
type Store struct {
	db *gorm.DB
}

// New creates a store over an open GORM connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AppendChat records one (user message, assistant reply) pair in the
// transcript.
func (s *Store) AppendChat(userMessage, aiResponse string) error {
	msg := models.ChatMessage{
		UserMessage: userMessage,
		AIResponse:  aiResponse,
	}
	if err := s.db.Create(&msg).Error; err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// ListChat returns the full transcript in insertion order.
func (s *Store) ListChat() ([]models.ChatMessage, error) {
	var messages []models.ChatMessage
	if err := s.db.Order("id asc").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("failed to list chat messages: %w", err)
	}
	return messages, nil
}

// InsertCodeSnapshot saves a submitted piece of code.
func (s *Store) InsertCodeSnapshot(code, language string) (*models.CodeSnapshot, error) {
	snapshot := models.CodeSnapshot{
		Code:     code,
		Language: language,
	}
	if err := s.db.Create(&snapshot).Error; err != nil {
		return nil, fmt.Errorf("failed to insert code snapshot: %w", err)
	}
	return &snapshot, nil
}

// LatestSnapshot returns the most recently inserted snapshot, or
// gorm.ErrRecordNotFound when the table is empty.
func (s *Store) LatestSnapshot() (*models.CodeSnapshot, error) {
	var snapshot models.CodeSnapshot
	if err := s.db.Order("id desc").First(&snapshot).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// InsertProject saves a named project.
func (s *Store) InsertProject(name, code, language string) (*models.Project, error) {
	project := models.Project{
		Name:     name,
		Code:     code,
		Language: language,
	}
	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	return &project, nil
}

// ListProjects returns all saved projects in insertion order.
func (s *Store) ListProjects() ([]models.Project, error) {
	var projects []models.Project
	if err := s.db.Order("id asc").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// SetFavorite flips the favorite flag on a project.
func (s *Store) SetFavorite(id uint, favorite bool) error {
	result := s.db.Model(&models.Project{}).Where("id = ?", id).Update("favorite", favorite)
	if result.Error != nil {
		return fmt.Errorf("failed to update favorite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteProject removes a project by ID.
func (s *Store) DeleteProject(id uint) error {
	result := s.db.Delete(&models.Project{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
