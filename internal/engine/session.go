package engine

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// Session constants
const (
	InitialAffection    = 30
	MinAffection        = 0
	MaxAffection        = 100
	QuestionsPerSession = 12
	SuccessAffection    = 80
)

// QuestionSuffixes are the flavor endings appended to the player's name before a question
var QuestionSuffixes = []string{"..", "!", "~"}

var (
	femaleNames = []string{"서연", "지민", "유진", "하은", "수아", "민서", "채원", "지우", "예은", "시은"}
	maleNames   = []string{"민준", "서준", "도윤", "예준", "시우", "주원", "지호", "준서", "현우", "승현"}
)

// QuestionBank is the read side of the question catalog
type QuestionBank interface {
	QuestionCount() int
	Question(i int) models.Question
}

// Setup is what the player submits on the setup screen
type Setup struct {
	PlayerName      string            `json:"player_name"`
	PersonalityType string            `json:"personality_type"`
	Appearance      models.Appearance `json:"appearance"`
}

// LogEntry records one answered question
type LogEntry struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Grade    models.Grade `json:"grade"`
	Delta    int          `json:"delta"`
}

// GameSession is the state of one play-through
type GameSession struct {
	PlayerName      string
	PersonalityType models.PersonalityType
	Appearance      models.Appearance
	CharacterName   string

	Affection      int
	QuestionIndex  int
	TotalQuestions int
	QuestionOrder  []int

	Expression models.Expression
	Portraits  interfaces.PortraitSet

	AwaitingNext bool
	LastDialogue string
	LastGrade    models.Grade

	Log []LogEntry

	suffixes []string
	rng      *rand.Rand
}

// NewSession validates the setup and starts a fresh session.
// The question order and character name are drawn from rng.
func NewSession(setup Setup, bank QuestionBank, rng *rand.Rand) (*GameSession, error) {
	name := strings.TrimSpace(setup.PlayerName)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is empty", ErrInvalidSetup)
	}

	if strings.TrimSpace(setup.PersonalityType) == "" {
		return nil, fmt.Errorf("%w: personality type not chosen", ErrInvalidSetup)
	}
	ptype, err := models.ParsePersonalityType(setup.PersonalityType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}

	appearance, err := setup.Appearance.Normalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSetup, err)
	}

	count := bank.QuestionCount()
	if count < QuestionsPerSession {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientQuestions, count, QuestionsPerSession)
	}

	s := &GameSession{
		PlayerName:      name,
		PersonalityType: ptype,
		Appearance:      appearance,
		CharacterName:   pickName(appearance.Gender, rng),
		Affection:       InitialAffection,
		TotalQuestions:  QuestionsPerSession,
		QuestionOrder:   rng.Perm(count)[:QuestionsPerSession],
		Expression:      models.ExpressionNeutral,
		Log:             []LogEntry{},
		suffixes:        make([]string, QuestionsPerSession),
		rng:             rng,
	}
	s.showQuestion()

	return s, nil
}

func pickName(gender string, rng *rand.Rand) string {
	if gender == models.GenderFemale {
		return femaleNames[rng.Intn(len(femaleNames))]
	}
	return maleNames[rng.Intn(len(maleNames))]
}

// showQuestion fixes the suffix of the current question the first time it is shown
func (s *GameSession) showQuestion() {
	if s.suffixes[s.QuestionIndex] == "" {
		s.suffixes[s.QuestionIndex] = QuestionSuffixes[s.rng.Intn(len(QuestionSuffixes))]
	}
}

// CurrentQuestion returns the question at the current index
func (s *GameSession) CurrentQuestion(bank QuestionBank) models.Question {
	return bank.Question(s.QuestionOrder[s.QuestionIndex])
}

// Suffix returns the flavor suffix fixed for the current question
func (s *GameSession) Suffix() string {
	return s.suffixes[s.QuestionIndex]
}

// QuestionText renders the question as the character says it: "{player}{suffix} {prompt}"
func (s *GameSession) QuestionText(q models.Question) string {
	return s.PlayerName + s.Suffix() + " " + q.Prompt
}

// RecordAnswer grades the answer, moves affection within bounds,
// sets the reaction expression and appends to the log.
func (s *GameSession) RecordAnswer(tags []string, question, answerText string) models.Grade {
	grade, delta := Grade(s.PersonalityType, tags)

	s.Affection = clamp(s.Affection+delta, MinAffection, MaxAffection)
	s.Expression = grade.Expression()
	s.Log = append(s.Log, LogEntry{
		Question: question,
		Answer:   answerText,
		Grade:    grade,
		Delta:    delta,
	})

	return grade
}

// Advance moves to the next question and reports whether the game has ended.
// Advancing a finished session panics.
func (s *GameSession) Advance() (models.EndingKind, bool) {
	if s.QuestionIndex >= s.TotalQuestions {
		panic("engine: advancing past the last question")
	}

	s.QuestionIndex++
	s.Expression = models.ExpressionNeutral
	s.AwaitingNext = false

	kind, ended := EvaluateEnding(s.Affection, s.QuestionIndex, s.TotalQuestions)
	if !ended {
		s.showQuestion()
	}
	return kind, ended
}

// EvaluateEnding decides whether the game is over. The first matching rule wins:
// affection at the floor fails, affection at the ceiling succeeds, and after the
// last question the game succeeds only from SuccessAffection up.
func EvaluateEnding(affection, index, total int) (models.EndingKind, bool) {
	switch {
	case affection <= MinAffection:
		return models.EndingFailure, true
	case affection >= MaxAffection:
		return models.EndingSuccess, true
	case index >= total:
		if affection >= SuccessAffection {
			return models.EndingSuccess, true
		}
		return models.EndingFailure, true
	default:
		return "", false
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
