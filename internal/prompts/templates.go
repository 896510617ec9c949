package prompts

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// Template names registered by InitializeDefaultTemplates
const (
	DialogueResponse  = "dialogue_response"
	CharacterPortrait = "character_portrait"
)

// DialogueSystemPrompt is sent as the system message of every dialogue request
const DialogueSystemPrompt = "You are a character in a Korean dating simulation game. Respond naturally in Korean."

var varRegex = regexp.MustCompile(`\{\{(\w+)\}\}`)

// TemplateEngine manages prompt templates
type TemplateEngine struct {
	templates map[string]*Template
	mu        sync.RWMutex
}

// Template represents a prompt template with variables
type Template struct {
	Name        string   `json:"name"`
	Content     string   `json:"content"`
	Variables   []string `json:"variables"`
	Description string   `json:"description"`
}

// TemplateContext holds variables for dialogue rendering
type TemplateContext struct {
	PersonalityType models.PersonalityType
	Traits          models.TraitProfile
	Grade           models.Grade
	Question        string
	Answer          string
}

// PortraitPromptContext holds context for portrait prompts
type PortraitPromptContext struct {
	Appearance      models.Appearance
	PersonalityType models.PersonalityType
	Expression      models.Expression
}

// NewTemplateEngine creates a new template engine
func NewTemplateEngine() *TemplateEngine {
	return &TemplateEngine{
		templates: make(map[string]*Template),
	}
}

// RegisterTemplate registers a new template
func (e *TemplateEngine) RegisterTemplate(tmpl *Template) error {
	if tmpl.Name == "" {
		return fmt.Errorf("template name is empty")
	}
	if len(tmpl.Variables) == 0 {
		tmpl.Variables = ParseTemplateVariables(tmpl.Content)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.templates[tmpl.Name] = tmpl
	return nil
}

// GetTemplate retrieves a template by name
func (e *TemplateEngine) GetTemplate(name string) (*Template, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tmpl, ok := e.templates[name]
	if !ok {
		return nil, fmt.Errorf("template not found: %s", name)
	}
	return tmpl, nil
}

// Render renders a template with the given context
func (e *TemplateEngine) Render(templateName string, ctx *TemplateContext) (string, error) {
	tmpl, err := e.GetTemplate(templateName)
	if err != nil {
		return "", err
	}

	return replaceVariables(tmpl.Content, func(name string) (string, bool) {
		return ctx.value(name)
	}), nil
}

// RenderPortraitPrompt renders an image prompt for one expression of the character
func (e *TemplateEngine) RenderPortraitPrompt(templateName string, ctx *PortraitPromptContext) (string, error) {
	tmpl, err := e.GetTemplate(templateName)
	if err != nil {
		return "", err
	}

	a := ctx.Appearance
	replacements := map[string]string{
		"gender":           a.Gender,
		"face_type":        a.FaceType,
		"hair":             a.Hair,
		"eyes":             a.Eyes,
		"outfit":           a.Outfit,
		"atmosphere":       a.Atmosphere,
		"expression":       ExpressionDescriptor(ctx.Expression),
		"personality_type": ctx.PersonalityType.String(),
	}

	return replaceVariables(tmpl.Content, func(name string) (string, bool) {
		v, ok := replacements[name]
		return v, ok
	}), nil
}

// replaceVariables substitutes {{name}} placeholders; unknown names are kept as is
func replaceVariables(content string, lookup func(string) (string, bool)) string {
	return varRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := varRegex.FindStringSubmatch(match)[1]
		if v, ok := lookup(name); ok {
			return v
		}
		return match
	})
}

func (ctx *TemplateContext) value(name string) (string, bool) {
	switch name {
	case "mbti":
		return ctx.PersonalityType.String(), true
	case "character_name":
		return ctx.Traits.Name, true
	case "speech_style":
		return ctx.Traits.SpeechStyle, true
	case "values":
		return ctx.Traits.Values, true
	case "likes":
		return ctx.Traits.Likes, true
	case "dislikes":
		return ctx.Traits.Dislikes, true
	case "flirting_style":
		return ctx.Traits.FlirtingStyle, true
	case "sensitive_points":
		return ctx.Traits.SensitivePoints, true
	case "emotion":
		return string(ctx.Grade), true
	case "question":
		return ctx.Question, true
	case "answer":
		return ctx.Answer, true
	default:
		return "", false
	}
}

// ExpressionDescriptor returns the English wording used to ask for an expression
func ExpressionDescriptor(e models.Expression) string {
	switch e {
	case models.ExpressionPout:
		return "pouting, annoyed, sulking with puffed cheeks"
	case models.ExpressionSmile:
		return "soft pleased smile"
	case models.ExpressionBigSmile:
		return "very happy, bright beaming smile with eyes slightly closed from joy"
	default:
		return "neutral calm friendly expression with gentle smile"
	}
}

// InitializeDefaultTemplates registers the dialogue and portrait templates
func (e *TemplateEngine) InitializeDefaultTemplates() error {
	templates := []*Template{
		{
			Name:        DialogueResponse,
			Description: "In-character reaction to the player's answer",
			Content: `You are playing a character in a dating simulation game.

Character MBTI: {{mbti}} ({{character_name}})
Character personality traits:
- Speech style: {{speech_style}}
- Values: {{values}}
- Likes: {{likes}}
- Dislikes: {{dislikes}}
- Flirting style: {{flirting_style}}
- Sensitive points: {{sensitive_points}}

Current emotion based on player's answer: {{emotion}}
- "bad": feeling disappointed or annoyed (호감도 -10)
- "ok": feeling decent, mildly pleased (호감도 +10)
- "good": feeling happy and impressed (호감도 +30)

The player was asked: "{{question}}"
The player answered: "{{answer}}"

Generate a short response (2-4 sentences in Korean, informal 반말) that:
1. Reflects the tendencies of each of your four MBTI letters and your speech style
2. Matches your current emotional state ({{emotion}})
3. Reacts naturally to the player's answer
4. If "bad": show slight disappointment but don't be too harsh
5. If "ok": be pleasant but not overly enthusiastic
6. If "good": show genuine happiness and interest

Keep the response natural and conversational. Don't be robotic or overly dramatic.`,
		},
		{
			Name:        CharacterPortrait,
			Description: "Single upper-body portrait of the character with one expression",
			Content: `Create a single anime-style character portrait.

Character appearance:
- Gender: {{gender}}
- Face type: {{face_type}}
- Hair: {{hair}}
- Eyes: {{eyes}}
- Outfit: {{outfit}}
- Atmosphere/Vibe: {{atmosphere}}

Expression: {{expression}}

Style requirements:
- Clean anime art style
- Soft lighting
- Upper body portrait (chest up)
- Solid pastel background
- High detail on face and expression
- ONLY ONE CHARACTER in the image
- DO NOT show multiple expressions or multiple versions

This character has {{personality_type}} personality - reflect subtle personality traits in the portrait.`,
		},
	}

	for _, tmpl := range templates {
		if err := e.RegisterTemplate(tmpl); err != nil {
			return fmt.Errorf("failed to register template %s: %w", tmpl.Name, err)
		}
	}

	return nil
}

// ParseTemplateVariables extracts variables from a template
func ParseTemplateVariables(templateContent string) []string {
	matches := varRegex.FindAllStringSubmatch(templateContent, -1)

	seen := make(map[string]bool)
	vars := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) > 1 && !seen[match[1]] {
			seen[match[1]] = true
			vars = append(vars, match[1])
		}
	}

	return vars
}

// NegativePortraitPrompt is passed to backends that accept a negative prompt
const NegativePortraitPrompt = "multiple characters, multiple views, text, watermark, lowres, bad anatomy"
