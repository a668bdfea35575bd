package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/session"
)

// EnrichTimeout bounds each narration/imagery generation call.
const EnrichTimeout = 90 * time.Second

// imagePromptLimit caps the fallback image description derived from scene
// text when the directive didn't supply one.
const imagePromptLimit = 400

// ApplyFunc attaches media to a stored scene. Implementations must only
// ever add data; a scene remains fully usable if enrichment never runs.
type ApplyFunc func(ctx context.Context, update func(*session.Scene))

// Enricher is the narration/imagery coordinator. For each generated scene
// it issues the speech and image calls as independent background tasks:
// neither call blocks phase progression, and the failure of one never
// invalidates the other's result.
type Enricher struct {
	speech services.SpeechGenerator
	image  services.ImageGenerator
	media  *storage.MediaStore
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewEnricher creates a coordinator. Either generator may be nil; the
// corresponding media is then skipped entirely.
func NewEnricher(speech services.SpeechGenerator, image services.ImageGenerator, media *storage.MediaStore, logger *slog.Logger) *Enricher {
	return &Enricher{
		speech: speech,
		image:  image,
		media:  media,
		logger: logger,
	}
}

// Enrich starts the speech and image generation tasks for a scene. The
// scene's text is already stored; each task, on success, writes its media
// file and attaches the URL through apply. Failures are logged as
// degraded results and are never fatal.
func (n *Enricher) Enrich(sessionID uuid.UUID, sceneIndex int, sceneText, imagePrompt string, apply ApplyFunc) {
	if n == nil || n.media == nil {
		return
	}

	if n.speech != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), EnrichTimeout)
			defer cancel()

			audio, err := n.speech.GenerateSpeech(ctx, sceneText)
			if err != nil {
				n.logger.Warn("Narration generation failed, scene continues without audio",
					"session", sessionID, "scene", sceneIndex, "error", err)
				return
			}
			url, err := n.media.SaveAudio(sessionID, sceneIndex, audio)
			if err != nil {
				n.logger.Error("Failed to store narration audio",
					"session", sessionID, "scene", sceneIndex, "error", err)
				return
			}
			apply(ctx, func(s *session.Scene) {
				if s.NarrationAudio == "" {
					s.NarrationAudio = url
				}
			})
		}()
	}

	if n.image != nil {
		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), EnrichTimeout)
			defer cancel()

			prompt := imagePrompt
			if prompt == "" {
				prompt = deriveImagePrompt(sceneText)
			}
			img, err := n.image.GenerateImage(ctx, prompt)
			if err != nil {
				n.logger.Warn("Image generation failed, scene continues without imagery",
					"session", sessionID, "scene", sceneIndex, "error", err)
				return
			}
			url, err := n.media.SaveImage(sessionID, sceneIndex, img)
			if err != nil {
				n.logger.Error("Failed to store scene image",
					"session", sessionID, "scene", sceneIndex, "error", err)
				return
			}
			apply(ctx, func(s *session.Scene) {
				if s.Image == "" {
					s.Image = url
				}
			})
		}()
	}
}

// Wait blocks until all in-flight enrichment tasks finish. Used on
// shutdown and in tests.
func (n *Enricher) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

// deriveImagePrompt falls back to the opening of the scene text when the
// directive carried no image description.
func deriveImagePrompt(text string) string {
	if len(text) <= imagePromptLimit {
		return text
	}
	cut := imagePromptLimit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
