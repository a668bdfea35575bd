package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// MediaStore writes generated narration audio and scene images to the
// filesystem and returns URL paths the presentation layer can serve.
type MediaStore struct {
	dir string
}

// NewMediaStore creates the media directory if needed.
func NewMediaStore(dir string) (*MediaStore, error) {
	if dir == "" {
		dir = "./data/media"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &MediaStore{dir: dir}, nil
}

// Dir returns the root directory served at /media/.
func (m *MediaStore) Dir() string { return m.dir }

// SaveAudio writes scene narration audio and returns its URL path.
func (m *MediaStore) SaveAudio(sessionID uuid.UUID, sceneIndex int, data []byte) (string, error) {
	return m.save(fmt.Sprintf("%s_scene_%d.mp3", sessionID, sceneIndex), data)
}

// SaveImage writes a scene image and returns its URL path.
func (m *MediaStore) SaveImage(sessionID uuid.UUID, sceneIndex int, data []byte) (string, error) {
	return m.save(fmt.Sprintf("%s_scene_%d.png", sessionID, sceneIndex), data)
}

func (m *MediaStore) save(name string, data []byte) (string, error) {
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	return "/media/" + name, nil
}
