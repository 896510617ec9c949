package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionRecord_KeepsOptionOrderAndTags(t *testing.T) {
	q := Question{
		Prompt: "주말에 뭐 할까?",
		Options: []Option{
			{Text: "집에서 책 읽기", Tags: []string{"I", "N"}},
			{Text: "친구들과 파티", Tags: []string{"E", "S", "P"}},
		},
	}

	rec := NewQuestionRecord(4, q)
	assert.Equal(t, 4, rec.Position)
	require.Len(t, rec.Options, 2)
	assert.Equal(t, "IN", rec.Options[0].Tags)
	assert.Equal(t, 1, rec.Options[1].Position)

	back := rec.ToQuestion()
	assert.Equal(t, 4, back.ID)
	assert.Equal(t, q.Prompt, back.Prompt)
	assert.Equal(t, q.Options, back.Options)
}

func TestTraitRecord_Profile(t *testing.T) {
	p := TraitProfile{Name: "중재자", SpeechStyle: "다정한 반말", SensitivePoints: "무시당하는 것"}
	rec := NewTraitRecord("INFP", p)
	assert.Equal(t, "INFP", rec.Code)
	assert.Equal(t, p, rec.ToProfile())
}
