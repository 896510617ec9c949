package models

import (
	"time"
)

// QuestionRecord is the database row for one question of the bank
type QuestionRecord struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Position  int            `gorm:"uniqueIndex" json:"position"`
	Prompt    string         `gorm:"type:text" json:"prompt"`
	Options   []OptionRecord `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"options"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// OptionRecord is the database row for one answer option
type OptionRecord struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	QuestionID uint   `gorm:"index" json:"question_id"`
	Position   int    `json:"position"`
	Text       string `gorm:"type:text" json:"text"`
	Tags       string `gorm:"size:16" json:"tags"` // letters without separator, e.g. "INF"
}

// TraitRecord is the database row for one personality type's trait profile
type TraitRecord struct {
	Code            string    `gorm:"primaryKey;size:4" json:"code"`
	Name            string    `gorm:"size:128" json:"name"`
	SpeechStyle     string    `gorm:"type:text" json:"speech_style"`
	Values          string    `gorm:"type:text" json:"values"`
	Likes           string    `gorm:"type:text" json:"likes"`
	Dislikes        string    `gorm:"type:text" json:"dislikes"`
	FlirtingStyle   string    `gorm:"type:text" json:"flirting_style"`
	SensitivePoints string    `gorm:"type:text" json:"sensitive_points"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ToQuestion converts the row into the in-memory question
func (r *QuestionRecord) ToQuestion() Question {
	q := Question{
		ID:      r.Position,
		Prompt:  r.Prompt,
		Options: make([]Option, 0, len(r.Options)),
	}
	for _, o := range r.Options {
		tags := make([]string, 0, len(o.Tags))
		for _, c := range o.Tags {
			tags = append(tags, string(c))
		}
		q.Options = append(q.Options, Option{Text: o.Text, Tags: tags})
	}
	return q
}

// NewQuestionRecord builds a row (with option rows) from a question at the given position
func NewQuestionRecord(position int, q Question) *QuestionRecord {
	rec := &QuestionRecord{
		Position: position,
		Prompt:   q.Prompt,
		Options:  make([]OptionRecord, 0, len(q.Options)),
	}
	for i, o := range q.Options {
		tags := ""
		for _, t := range o.Tags {
			tags += t
		}
		rec.Options = append(rec.Options, OptionRecord{Position: i, Text: o.Text, Tags: tags})
	}
	return rec
}

// ToProfile converts the row into a trait profile
func (r *TraitRecord) ToProfile() TraitProfile {
	return TraitProfile{
		Name:            r.Name,
		SpeechStyle:     r.SpeechStyle,
		Values:          r.Values,
		Likes:           r.Likes,
		Dislikes:        r.Dislikes,
		FlirtingStyle:   r.FlirtingStyle,
		SensitivePoints: r.SensitivePoints,
	}
}

// NewTraitRecord builds a row from a profile
func NewTraitRecord(code PersonalityType, p TraitProfile) *TraitRecord {
	return &TraitRecord{
		Code:            string(code),
		Name:            p.Name,
		SpeechStyle:     p.SpeechStyle,
		Values:          p.Values,
		Likes:           p.Likes,
		Dislikes:        p.Dislikes,
		FlirtingStyle:   p.FlirtingStyle,
		SensitivePoints: p.SensitivePoints,
	}
}
