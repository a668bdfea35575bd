package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
)

func TestMediaStore(t *testing.T) {
	media, err := NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore failed: %v", err)
	}

	id := uuid.New()

	t.Run("save audio", func(t *testing.T) {
		url, err := media.SaveAudio(id, 0, []byte("audio-bytes"))
		if err != nil {
			t.Fatalf("SaveAudio failed: %v", err)
		}
		want := "/media/" + id.String() + "_scene_0.mp3"
		if url != want {
			t.Errorf("Expected URL %s, got %s", want, url)
		}

		data, err := os.ReadFile(filepath.Join(media.Dir(), id.String()+"_scene_0.mp3"))
		if err != nil {
			t.Fatalf("Expected audio file: %v", err)
		}
		if string(data) != "audio-bytes" {
			t.Errorf("Unexpected file content %q", data)
		}
	})

	t.Run("save image", func(t *testing.T) {
		url, err := media.SaveImage(id, 3, []byte("image-bytes"))
		if err != nil {
			t.Fatalf("SaveImage failed: %v", err)
		}
		want := "/media/" + id.String() + "_scene_3.png"
		if url != want {
			t.Errorf("Expected URL %s, got %s", want, url)
		}
	})
}

func TestNewMediaStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "media")
	if _, err := NewMediaStore(dir); err != nil {
		t.Fatalf("NewMediaStore failed: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("Expected media dir created: %v", err)
	}
}
