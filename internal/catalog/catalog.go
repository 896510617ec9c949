// Package catalog holds the static game data: the trait table keyed by
// personality type and the question bank. Both are loaded once at startup
// and are read-only afterwards.
package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// MinQuestions is the number of questions sampled for every session
const MinQuestions = 12

var (
	// ErrInsufficientQuestions is returned when the bank cannot fill a session
	ErrInsufficientQuestions = errors.New("question bank has fewer questions than a session needs")
	// ErrMissingTraits is returned when a personality type has no profile
	ErrMissingTraits = errors.New("trait table is missing a personality type")
	// ErrInvalidQuestion is returned for malformed questions or option tags
	ErrInvalidQuestion = errors.New("invalid question")
)

//go:embed data/questions.json data/mbti_traits.json
var defaultData embed.FS

// Catalog is the read-only trait table and question bank
type Catalog struct {
	traits    map[models.PersonalityType]models.TraitProfile
	questions []models.Question
}

type questionFile struct {
	Questions []models.Question `json:"questions"`
}

// New validates and builds a catalog from already-decoded data
func New(traits map[models.PersonalityType]models.TraitProfile, questions []models.Question) (*Catalog, error) {
	for _, p := range models.AllPersonalityTypes {
		if _, ok := traits[p]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingTraits, p)
		}
	}

	qs := make([]models.Question, len(questions))
	for i, q := range questions {
		if err := validateQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
		q.ID = i
		qs[i] = q
	}
	if len(qs) < MinQuestions {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientQuestions, len(qs), MinQuestions)
	}

	t := make(map[models.PersonalityType]models.TraitProfile, len(traits))
	for k, v := range traits {
		t[k] = v
	}

	return &Catalog{traits: t, questions: qs}, nil
}

// LoadDefault builds the catalog from the data embedded in the binary
func LoadDefault() (*Catalog, error) {
	qData, err := defaultData.ReadFile("data/questions.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded questions: %w", err)
	}
	tData, err := defaultData.ReadFile("data/mbti_traits.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded traits: %w", err)
	}
	return Parse(qData, tData)
}

// LoadFiles builds the catalog from JSON files on disk
func LoadFiles(questionsPath, traitsPath string) (*Catalog, error) {
	qData, err := os.ReadFile(questionsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read questions file: %w", err)
	}
	tData, err := os.ReadFile(traitsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read traits file: %w", err)
	}
	return Parse(qData, tData)
}

// Parse decodes the questions and traits documents
func Parse(questionsJSON, traitsJSON []byte) (*Catalog, error) {
	var qf questionFile
	if err := json.Unmarshal(questionsJSON, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse questions: %w", err)
	}

	var raw map[string]models.TraitProfile
	if err := json.Unmarshal(traitsJSON, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse traits: %w", err)
	}

	traits := make(map[models.PersonalityType]models.TraitProfile, len(raw))
	for code, profile := range raw {
		p, err := models.ParsePersonalityType(code)
		if err != nil {
			return nil, err
		}
		traits[p] = profile
	}

	return New(traits, qf.Questions)
}

func validateQuestion(q models.Question) error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) == 0 {
		return fmt.Errorf("%w: no options", ErrInvalidQuestion)
	}
	for i, o := range q.Options {
		if o.Text == "" {
			return fmt.Errorf("%w: option %d has no text", ErrInvalidQuestion, i)
		}
		if len(o.Tags) < 1 || len(o.Tags) > 4 {
			return fmt.Errorf("%w: option %d has %d tags", ErrInvalidQuestion, i, len(o.Tags))
		}
		for _, tag := range o.Tags {
			if !models.IsTag(tag) {
				return fmt.Errorf("%w: option %d has unknown tag %q", ErrInvalidQuestion, i, tag)
			}
		}
	}
	return nil
}

// Trait returns the profile of p. Every valid type has one once the catalog is built;
// an unknown type yields the zero profile.
func (c *Catalog) Trait(p models.PersonalityType) models.TraitProfile {
	return c.traits[p]
}

// Traits returns a copy of the whole trait table
func (c *Catalog) Traits() map[models.PersonalityType]models.TraitProfile {
	out := make(map[models.PersonalityType]models.TraitProfile, len(c.traits))
	for k, v := range c.traits {
		out[k] = v
	}
	return out
}

// Question returns the question at index i of the bank
func (c *Catalog) Question(i int) models.Question {
	return c.questions[i]
}

// QuestionCount returns the size of the bank
func (c *Catalog) QuestionCount() int {
	return len(c.questions)
}

// Questions returns a copy of the bank in order
func (c *Catalog) Questions() []models.Question {
	return append([]models.Question(nil), c.questions...)
}
