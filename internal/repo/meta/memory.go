package meta

import (
	"context"
	"sync"

	"github.com/sir_venger/chunkd/internal/models"
)

// MemoryStore хранит записи об артефактах только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu        sync.RWMutex
	artifacts map[string]models.Artifact
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{artifacts: map[string]models.Artifact{}}
}

// Get возвращает запись об артефакте по имени или ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, name string) (models.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[name]
	if !ok {
		return models.Artifact{}, models.ErrNotFound
	}
	return a, nil
}

// Record сохраняет запись. Повторная запись с тем же именем не меняет первую.
func (s *MemoryStore) Record(_ context.Context, a models.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[a.Name]; ok {
		return nil
	}
	s.artifacts[a.Name] = a
	return nil
}

// Close ничего не делает.
func (s *MemoryStore) Close() {}
