package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

func testMediaStore(t *testing.T) *storage.MediaStore {
	t.Helper()
	media, err := storage.NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewMediaStore failed: %v", err)
	}
	return media
}

// enrichedEngine runs a one-player adventure to its opening scene with
// enrichment enabled and returns everything needed for assertions.
func enrichedEngine(t *testing.T, gen *services.MockGenerator) (*Engine, *session.AdventureSession, *storage.MediaStore) {
	t.Helper()
	gen.QueueText(
		scenarioJSON,
		storyJSON,
		characterSetJSON("Solo"),
		sceneJSON("The opening scene.", "", false),
	)

	media := testMediaStore(t)
	store := storage.NewMockStorage()
	enricher := NewEnricher(gen, gen, media, testLogger())
	eng := New(store, gen, enricher, 6, testLogger())

	sess, err := eng.CreateAdventure(context.Background(), 1)
	require.NoError(t, err)
	sess, err = eng.ChooseScenario(context.Background(), sess.ID, 0)
	require.NoError(t, err)
	sess, err = eng.ChooseCharacter(context.Background(), sess.ID, 0, 0)
	require.NoError(t, err)

	return eng, sess, media
}

func TestEnrichment_AttachesMedia(t *testing.T) {
	gen := services.NewMockGenerator()
	eng, sess, media := enrichedEngine(t, gen)

	// Scene text is available immediately, before enrichment lands.
	require.Len(t, sess.SceneHistory, 1)
	assert.Equal(t, "The opening scene.", sess.SceneHistory[0].Text)

	eng.enricher.Wait()

	enriched, err := eng.GetSession(context.Background(), sess.ID)
	require.NoError(t, err)
	scene := enriched.SceneHistory[0]
	assert.True(t, strings.HasPrefix(scene.NarrationAudio, "/media/"), "audio URL: %q", scene.NarrationAudio)
	assert.True(t, strings.HasPrefix(scene.Image, "/media/"), "image URL: %q", scene.Image)

	// The files actually exist under the media dir.
	for _, url := range []string{scene.NarrationAudio, scene.Image} {
		name := strings.TrimPrefix(url, "/media/")
		if _, err := os.Stat(filepath.Join(media.Dir(), name)); err != nil {
			t.Errorf("Expected media file %s: %v", name, err)
		}
	}

	// The directive's image prompt drove image generation.
	_, _, images := gen.Calls()
	require.Len(t, images, 1)
	assert.Equal(t, "a flooded plaza at dusk", images[0])
}

func TestEnrichment_FailuresAreNotFatal(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(*services.MockGenerator)
		wantAudio bool
		wantImage bool
	}{
		{
			name: "speech fails, image succeeds",
			setup: func(g *services.MockGenerator) {
				g.SetGenerateSpeechError(errors.New("tts down"))
			},
			wantAudio: false,
			wantImage: true,
		},
		{
			name: "image fails, speech succeeds",
			setup: func(g *services.MockGenerator) {
				g.SetGenerateImageError(errors.New("image service down"))
			},
			wantAudio: true,
			wantImage: false,
		},
		{
			name: "both fail",
			setup: func(g *services.MockGenerator) {
				g.SetGenerateSpeechError(errors.New("tts down"))
				g.SetGenerateImageError(errors.New("image service down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := services.NewMockGenerator()
			tt.setup(gen)
			eng, sess, _ := enrichedEngine(t, gen)

			eng.enricher.Wait()

			enriched, err := eng.GetSession(context.Background(), sess.ID)
			require.NoError(t, err)
			// The session is still playable regardless of media outcomes.
			assert.Equal(t, session.PhaseAwaitingAction, enriched.Phase)

			scene := enriched.SceneHistory[0]
			assert.Equal(t, tt.wantAudio, scene.NarrationAudio != "", "audio: %q", scene.NarrationAudio)
			assert.Equal(t, tt.wantImage, scene.Image != "", "image: %q", scene.Image)
		})
	}
}

func TestEnrichment_AbandonedSessionIsIgnored(t *testing.T) {
	gen := services.NewMockGenerator()
	// Block media generation until the session is gone.
	release := make(chan struct{})
	gen.GenerateSpeechFunc = func(ctx context.Context, text string) ([]byte, error) {
		<-release
		return []byte("late-audio"), nil
	}
	gen.GenerateImageFunc = func(ctx context.Context, description string) ([]byte, error) {
		<-release
		return []byte("late-image"), nil
	}

	eng, sess, _ := enrichedEngine(t, gen)
	require.NoError(t, eng.AbandonSession(context.Background(), sess.ID))
	close(release)
	eng.enricher.Wait()

	_, err := eng.GetSession(context.Background(), sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound, "late enrichment must not resurrect the session")
}

func TestEnricher_NilGenerators(t *testing.T) {
	enricher := NewEnricher(nil, nil, testMediaStore(t), testLogger())
	called := false
	enricher.Enrich(session.New().ID, 0, "text", "", func(ctx context.Context, update func(*session.Scene)) {
		called = true
	})
	enricher.Wait()
	assert.False(t, called, "no generators means no apply calls")
}

func TestDeriveImagePrompt(t *testing.T) {
	short := "a short scene"
	assert.Equal(t, short, deriveImagePrompt(short))

	long := strings.Repeat("x", 1000)
	derived := deriveImagePrompt(long)
	assert.Len(t, derived, imagePromptLimit)

	// Truncation must not split a multi-byte rune.
	multibyte := strings.Repeat("世", 200)
	derived = deriveImagePrompt(multibyte)
	assert.True(t, utf8.ValidString(derived), "truncated prompt must be valid UTF-8")
	assert.LessOrEqual(t, len(derived), imagePromptLimit)
}
