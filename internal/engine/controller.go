package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// Screen is the state of the controller
type Screen string

const (
	ScreenSetup  Screen = "setup"
	ScreenPlay   Screen = "play"
	ScreenEnding Screen = "ending"
)

// Catalog is everything the controller reads from the static game data
type Catalog interface {
	QuestionBank
	Trait(p models.PersonalityType) models.TraitProfile
}

// Controller drives one player through setup, play and ending.
// It is not safe for concurrent use; a play loop owns exactly one.
type Controller struct {
	catalog   Catalog
	dialogue  interfaces.DialogueGenerator
	portraits interfaces.PortraitGenerator
	recorder  interfaces.EndingRecorder
	rng       *rand.Rand
	logger    *zap.Logger

	screen    Screen
	session   *GameSession
	ending    models.EndingKind
	notice    string
	suggested models.PersonalityType
}

// Option configures a Controller
type Option func(*Controller)

// WithEndingRecorder reports finished games to r
func WithEndingRecorder(r interfaces.EndingRecorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets the controller's logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// NewController creates a controller on the setup screen
func NewController(
	cat Catalog,
	dialogue interfaces.DialogueGenerator,
	portraits interfaces.PortraitGenerator,
	rng *rand.Rand,
	opts ...Option,
) *Controller {
	c := &Controller{
		catalog:   cat,
		dialogue:  dialogue,
		portraits: portraits,
		rng:       rng,
		logger:    zap.NewNop(),
		screen:    ScreenSetup,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Screen returns the current screen
func (c *Controller) Screen() Screen {
	return c.screen
}

// Session returns the running session, nil on the setup screen
func (c *Controller) Session() *GameSession {
	return c.session
}

// SubmitSetup creates the session and draws the character's portraits.
// The controller stays on the setup screen when either step fails.
func (c *Controller) SubmitSetup(ctx context.Context, setup Setup) error {
	if c.screen != ScreenSetup {
		return fmt.Errorf("%w: submit setup on %s screen", ErrActionNotAllowed, c.screen)
	}

	session, err := NewSession(setup, c.catalog, c.rng)
	if err != nil {
		c.notice = setupNotice(err)
		return err
	}

	portraits, err := c.portraits.GeneratePortraitSet(ctx, &interfaces.PortraitRequest{
		Appearance:      session.Appearance,
		PersonalityType: session.PersonalityType,
	})
	if err != nil || !portraits.Usable() {
		c.notice = "캐릭터 이미지를 만들지 못했어요. 다시 시도해주세요."
		if err == nil {
			err = errors.New("no portrait in generated set")
		}
		c.logger.Warn("portrait generation failed",
			zap.String("personality_type", session.PersonalityType.String()),
			zap.Error(err))
		return fmt.Errorf("%w: %w", ErrPortraitUnavailable, err)
	}

	session.Portraits = portraits
	c.session = session
	c.screen = ScreenPlay
	c.notice = ""
	c.suggested = ""

	c.logger.Info("session started",
		zap.String("personality_type", session.PersonalityType.String()),
		zap.String("character", session.CharacterName),
		zap.Ints("question_order", session.QuestionOrder))
	return nil
}

func setupNotice(err error) string {
	switch {
	case errors.Is(err, ErrInvalidSetup):
		return "이름과 MBTI를 확인해주세요."
	case errors.Is(err, ErrInsufficientQuestions):
		return "질문 데이터가 부족해요."
	default:
		return err.Error()
	}
}

// SelectOption grades the chosen option of the current question and asks the
// character for a reaction. The canned fallback line replaces a failed generation.
func (c *Controller) SelectOption(ctx context.Context, index int) error {
	if c.screen != ScreenPlay {
		return fmt.Errorf("%w: select option on %s screen", ErrActionNotAllowed, c.screen)
	}
	s := c.session
	if s.AwaitingNext {
		return fmt.Errorf("%w: answer already given, continue first", ErrActionNotAllowed)
	}

	q := s.CurrentQuestion(c.catalog)
	if index < 0 || index >= len(q.Options) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidOption, index, len(q.Options))
	}
	opt := q.Options[index]

	grade := s.RecordAnswer(opt.Tags, q.Prompt, opt.Text)
	answersTotal.WithLabelValues(string(grade)).Inc()

	text, err := c.dialogue.GenerateDialogue(ctx, &interfaces.DialogueRequest{
		PersonalityType: s.PersonalityType,
		Traits:          c.catalog.Trait(s.PersonalityType),
		Grade:           grade,
		Question:        q.Prompt,
		Answer:          opt.Text,
	})
	text = strings.TrimSpace(text)
	if err != nil || text == "" {
		if err != nil {
			c.logger.Warn("dialogue generation failed, using fallback",
				zap.String("grade", string(grade)), zap.Error(err))
		}
		dialogueFallbacks.Inc()
		text = FallbackDialogue(grade, s.PlayerName)
	}

	s.LastDialogue = text
	s.LastGrade = grade
	s.AwaitingNext = true
	return nil
}

// Continue leaves the answer screen for the next question or the ending
func (c *Controller) Continue(ctx context.Context) error {
	if c.screen != ScreenPlay || !c.session.AwaitingNext {
		return fmt.Errorf("%w: nothing to continue", ErrActionNotAllowed)
	}

	kind, ended := c.session.Advance()
	if !ended {
		return nil
	}

	c.screen = ScreenEnding
	c.ending = kind
	endingsTotal.WithLabelValues(c.session.PersonalityType.String(), string(kind)).Inc()
	c.logger.Info("session ended",
		zap.String("personality_type", c.session.PersonalityType.String()),
		zap.String("ending", string(kind)),
		zap.Int("affection", c.session.Affection),
		zap.Int("answered", len(c.session.Log)))

	if c.recorder != nil {
		if err := c.recorder.RecordEnding(ctx, c.session.PersonalityType, kind); err != nil {
			c.logger.Warn("failed to record ending", zap.Error(err))
		}
	}
	return nil
}

// ReturnToLobby discards the session and goes back to setup
func (c *Controller) ReturnToLobby() {
	c.session = nil
	c.ending = ""
	c.notice = ""
	c.screen = ScreenSetup
}

// RandomPersonalityType picks one of the 16 codes for the setup form
func (c *Controller) RandomPersonalityType() models.PersonalityType {
	p := models.AllPersonalityTypes[c.rng.Intn(len(models.AllPersonalityTypes))]
	if c.screen == ScreenSetup {
		c.suggested = p
	}
	return p
}

// Ending returns the ending kind once the game is over
func (c *Controller) Ending() (models.EndingKind, bool) {
	return c.ending, c.screen == ScreenEnding
}
