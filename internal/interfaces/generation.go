package interfaces

import (
	"context"
	"errors"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// ErrGeneration marks every failure coming out of a generation provider.
// Implementations wrap it so callers can match with errors.Is.
var ErrGeneration = errors.New("generation failed")

// DialogueRequest carries everything the character needs to react to an answer
type DialogueRequest struct {
	PersonalityType models.PersonalityType
	Traits          models.TraitProfile
	Grade           models.Grade
	Question        string
	Answer          string
}

// DialogueGenerator produces a short in-character reply
type DialogueGenerator interface {
	GenerateDialogue(ctx context.Context, req *DialogueRequest) (string, error)
}

// PortraitRequest describes the character to draw
type PortraitRequest struct {
	Appearance      models.Appearance
	PersonalityType models.PersonalityType
}

// PortraitSet maps an expression to encoded image bytes. Slots may be missing.
type PortraitSet map[models.Expression][]byte

// Image returns the portrait for e, falling back to the neutral one.
// nil means the presentation layer should draw a placeholder.
func (s PortraitSet) Image(e models.Expression) []byte {
	if img := s[e]; len(img) > 0 {
		return img
	}
	return s[models.ExpressionNeutral]
}

// Usable reports whether at least one slot holds an image
func (s PortraitSet) Usable() bool {
	for _, img := range s {
		if len(img) > 0 {
			return true
		}
	}
	return false
}

// PortraitGenerator produces the expression set of a character
type PortraitGenerator interface {
	GeneratePortraitSet(ctx context.Context, req *PortraitRequest) (PortraitSet, error)
}

// ImageRequest represents a request to generate an image
type ImageRequest struct {
	Prompt         string
	NegativePrompt string
	Width          int
	Height         int
	Seed           int64
}

// ImageResponse represents the response from image generation
type ImageResponse struct {
	ImageData      []byte
	Seed           int64
	GenerationTime int64 // milliseconds
}

// ImageBackend renders a single image from a prompt
type ImageBackend interface {
	GenerateImage(ctx context.Context, req *ImageRequest) (*ImageResponse, error)

	// Name identifies the backend in cache keys and metrics
	Name() string
}

// EndingRecorder receives every finished game
type EndingRecorder interface {
	RecordEnding(ctx context.Context, p models.PersonalityType, kind models.EndingKind) error
}
