package imaging

import (
	"sync"

	"nosferatu/internal/models"
)

// Store owns the working image state: the raw buffer from the last load and
// the derived buffer from the last filter application. Accessors return the
// held pointers as read-only views; a subsequent SetCurrent invalidates them.
type Store struct {
	mu      sync.RWMutex
	current *models.ImageData
	derived *models.ImageData
}

func NewStore() *Store {
	return &Store{}
}

// SetCurrent replaces the raw buffer. Any derived buffer is discarded:
// filters must be reapplied to a freshly loaded image.
func (s *Store) SetCurrent(img *models.ImageData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Close()
	s.derived.Close()
	s.current = img
	s.derived = nil
}

// SetDerived replaces the filtered buffer.
func (s *Store) SetDerived(img *models.ImageData) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.derived.Close()
	s.derived = img
}

func (s *Store) Current() *models.ImageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Derived() *models.ImageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.derived
}

// Displayable returns the buffer a caller should show or save: the derived
// buffer when a filter has been applied, otherwise the raw one. Nil when
// nothing is loaded.
func (s *Store) Displayable() *models.ImageData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.derived != nil {
		return s.derived
	}
	return s.current
}

// Reset releases all held buffers.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.Close()
	s.derived.Close()
	s.current = nil
	s.derived = nil
}
