package engine

import (
	"encoding/base64"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// Affection bands used by the gauge
const (
	BandLow  = "low"
	BandMid  = "mid"
	BandHigh = "high"
)

// View is the read-only snapshot the presentation layer renders
type View struct {
	Screen        Screen `json:"screen"`
	Notice        string `json:"notice,omitempty"`
	SuggestedType string `json:"suggested_type,omitempty"`

	PlayerName      string `json:"player_name,omitempty"`
	CharacterName   string `json:"character_name,omitempty"`
	PersonalityType string `json:"personality_type,omitempty"`

	Affection     int    `json:"affection"`
	AffectionBand string `json:"affection_band,omitempty"`

	QuestionIndex  int           `json:"question_index"`
	TotalQuestions int           `json:"total_questions"`
	Question       *QuestionView `json:"question,omitempty"`

	Expression          models.Expression `json:"expression,omitempty"`
	ExpressionLabel     string            `json:"expression_label,omitempty"`
	Portrait            string            `json:"portrait,omitempty"`
	PortraitPlaceholder bool              `json:"portrait_placeholder"`

	AwaitingNext bool         `json:"awaiting_next"`
	LastDialogue string       `json:"last_dialogue,omitempty"`
	LastGrade    models.Grade `json:"last_grade,omitempty"`

	Log    []LogEntry  `json:"log,omitempty"`
	Ending *EndingView `json:"ending,omitempty"`
}

// QuestionView is the current question as displayed
type QuestionView struct {
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

// EndingView describes the finished game
type EndingView struct {
	Kind      models.EndingKind `json:"kind"`
	Narration string            `json:"narration"`
	Line      string            `json:"line"`
	Summary   EndingSummary     `json:"summary"`
}

// EndingSummary aggregates the answer log
type EndingSummary struct {
	FinalAffection int                  `json:"final_affection"`
	Answered       int                  `json:"answered"`
	Counts         map[models.Grade]int `json:"counts"`
	DeltaSums      map[models.Grade]int `json:"delta_sums"`
	TotalDelta     int                  `json:"total_delta"`
}

// AffectionBand classifies affection for the gauge color
func AffectionBand(affection int) string {
	switch {
	case affection < 30:
		return BandLow
	case affection < 70:
		return BandMid
	default:
		return BandHigh
	}
}

// Summarize totals the log. Sums come from the logged deltas only.
func Summarize(log []LogEntry, finalAffection int) EndingSummary {
	sum := EndingSummary{
		FinalAffection: finalAffection,
		Answered:       len(log),
		Counts:         map[models.Grade]int{models.GradeGood: 0, models.GradeOK: 0, models.GradeBad: 0},
		DeltaSums:      map[models.Grade]int{models.GradeGood: 0, models.GradeOK: 0, models.GradeBad: 0},
	}
	for _, e := range log {
		sum.Counts[e.Grade]++
		sum.DeltaSums[e.Grade] += e.Delta
		sum.TotalDelta += e.Delta
	}
	return sum
}

// View builds the snapshot of the current state
func (c *Controller) View() View {
	v := View{
		Screen: c.screen,
		Notice: c.notice,
	}

	s := c.session
	if s == nil {
		v.SuggestedType = c.suggested.String()
		v.PortraitPlaceholder = true
		return v
	}

	v.PlayerName = s.PlayerName
	v.CharacterName = s.CharacterName
	v.PersonalityType = s.PersonalityType.String()
	v.Affection = s.Affection
	v.AffectionBand = AffectionBand(s.Affection)
	v.QuestionIndex = s.QuestionIndex
	v.TotalQuestions = s.TotalQuestions
	v.AwaitingNext = s.AwaitingNext
	v.LastDialogue = s.LastDialogue
	v.LastGrade = s.LastGrade
	v.Log = append([]LogEntry(nil), s.Log...)

	expression := s.Expression
	switch c.screen {
	case ScreenPlay:
		q := s.CurrentQuestion(c.catalog)
		qv := &QuestionView{Text: s.QuestionText(q), Options: make([]string, len(q.Options))}
		for i, o := range q.Options {
			qv.Options[i] = o.Text
		}
		v.Question = qv
	case ScreenEnding:
		if c.ending == models.EndingSuccess {
			expression = models.ExpressionBigSmile
		} else {
			expression = models.ExpressionPout
		}
		narration, line := EndingNarration(c.ending, s.CharacterName, s.PlayerName)
		v.Ending = &EndingView{
			Kind:      c.ending,
			Narration: narration,
			Line:      line,
			Summary:   Summarize(s.Log, s.Affection),
		}
	}

	v.Expression = expression
	v.ExpressionLabel = expression.DisplayName()
	if img := s.Portraits.Image(expression); len(img) > 0 {
		v.Portrait = base64.StdEncoding.EncodeToString(img)
	} else {
		v.PortraitPlaceholder = true
	}

	return v
}
