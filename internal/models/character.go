package models

// TraitProfile describes how a character of one personality type talks and what it cares about
type TraitProfile struct {
	Name            string `json:"name"`
	SpeechStyle     string `json:"speech_style"`
	Values          string `json:"values"`
	Likes           string `json:"likes"`
	Dislikes        string `json:"dislikes"`
	FlirtingStyle   string `json:"flirting_style"`
	SensitivePoints string `json:"sensitive_points"`
}

// Option is one answer choice; Tags are the dimension letters the answer expresses
type Option struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

// Question is a prompt with its ordered answer options
type Question struct {
	ID      int      `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Expression is the facial expression shown on the character portrait
type Expression string

const (
	ExpressionNeutral  Expression = "neutral"
	ExpressionPout     Expression = "pout"
	ExpressionSmile    Expression = "smile"
	ExpressionBigSmile Expression = "big_smile"
)

// AllExpressions lists every portrait slot
var AllExpressions = []Expression{ExpressionNeutral, ExpressionPout, ExpressionSmile, ExpressionBigSmile}

// DisplayName returns the Korean label shown next to the character's line
func (e Expression) DisplayName() string {
	switch e {
	case ExpressionPout:
		return "삐짐"
	case ExpressionSmile:
		return "미소"
	case ExpressionBigSmile:
		return "활짝"
	default:
		return "무표정"
	}
}

// Grade is the outcome of one answer
type Grade string

const (
	GradeBad  Grade = "bad"
	GradeOK   Grade = "ok"
	GradeGood Grade = "good"
)

// Expression maps a grade to the reaction it triggers
func (g Grade) Expression() Expression {
	switch g {
	case GradeBad:
		return ExpressionPout
	case GradeOK:
		return ExpressionSmile
	case GradeGood:
		return ExpressionBigSmile
	default:
		return ExpressionNeutral
	}
}

// EndingKind is the outcome of a finished game
type EndingKind string

const (
	EndingSuccess EndingKind = "success"
	EndingFailure EndingKind = "failure"
)
