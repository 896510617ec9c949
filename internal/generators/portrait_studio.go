package generators

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/prompts"
)

// generatedExpressions are drawn; smile reuses the neutral portrait
var generatedExpressions = []models.Expression{
	models.ExpressionNeutral,
	models.ExpressionPout,
	models.ExpressionBigSmile,
}

// PortraitStudio draws every expression of a character independently with one
// shared seed, so only the expression wording differs between renders.
type PortraitStudio struct {
	backend   interfaces.ImageBackend
	cache     *ImageCache
	templates *prompts.TemplateEngine
	width     int
	height    int
	logger    *zap.Logger
}

// NewPortraitStudio creates a portrait generator. cache may be nil.
func NewPortraitStudio(backend interfaces.ImageBackend, cache *ImageCache, templates *prompts.TemplateEngine, width, height int, logger *zap.Logger) *PortraitStudio {
	return &PortraitStudio{
		backend:   backend,
		cache:     cache,
		templates: templates,
		width:     width,
		height:    height,
		logger:    logger.Named("portraits"),
	}
}

// GeneratePortraitSet renders the expression slots in parallel. Failed slots are
// left out; the set is an error only when nothing could be drawn.
func (s *PortraitStudio) GeneratePortraitSet(ctx context.Context, req *interfaces.PortraitRequest) (interfaces.PortraitSet, error) {
	seed := PortraitSeed(req.Appearance, req.PersonalityType)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		set  = make(interfaces.PortraitSet, len(models.AllExpressions))
		errs []error
	)

	for _, expr := range generatedExpressions {
		wg.Add(1)
		go func(expr models.Expression) {
			defer wg.Done()

			img, err := s.render(ctx, req, expr, seed)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.logger.Warn("portrait render failed", zap.String("expression", string(expr)), zap.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", expr, err))
				return
			}
			set[expr] = img
		}(expr)
	}
	wg.Wait()

	if !set.Usable() {
		if len(errs) == 0 {
			errs = append(errs, errors.New("no portrait rendered"))
		}
		return nil, fmt.Errorf("%w: %w", interfaces.ErrGeneration, errors.Join(errs...))
	}

	if neutral := set[models.ExpressionNeutral]; len(neutral) > 0 {
		set[models.ExpressionSmile] = neutral
	}
	return set, nil
}

func (s *PortraitStudio) render(ctx context.Context, req *interfaces.PortraitRequest, expr models.Expression, seed int64) ([]byte, error) {
	prompt, err := s.templates.RenderPortraitPrompt(prompts.CharacterPortrait, &prompts.PortraitPromptContext{
		Appearance:      req.Appearance,
		PersonalityType: req.PersonalityType,
		Expression:      expr,
	})
	if err != nil {
		return nil, err
	}

	imgReq := &interfaces.ImageRequest{
		Prompt:         prompt,
		NegativePrompt: prompts.NegativePortraitPrompt,
		Width:          s.width,
		Height:         s.height,
		Seed:           seed,
	}

	key := GenerateCacheKey(s.backend.Name(), imgReq)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			return data, nil
		}
	}

	resp, err := s.backend.GenerateImage(ctx, imgReq)
	if err != nil {
		return nil, err
	}
	if len(resp.ImageData) == 0 {
		return nil, errors.New("backend returned no image data")
	}

	if s.cache != nil {
		if err := s.cache.Put(ctx, key, resp.ImageData, s.backend.Name(), imgReq); err != nil {
			s.logger.Warn("failed to cache portrait", zap.String("key", key), zap.Error(err))
		}
	}
	return resp.ImageData, nil
}

// PortraitSeed derives a stable non-negative seed from the character's look and type
func PortraitSeed(a models.Appearance, p models.PersonalityType) int64 {
	h := fnv.New64a()
	for _, part := range []string{a.Gender, a.FaceType, a.Hair, a.Eyes, a.Outfit, a.Atmosphere, p.String()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return int64(h.Sum64() & 0x7fffffff)
}
