package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppearance_NormalizeDefaults(t *testing.T) {
	a, err := Appearance{Hair: "은발"}.Normalize()
	require.NoError(t, err)

	assert.Equal(t, GenderFemale, a.Gender)
	assert.Equal(t, "귀여운 얼굴", a.FaceType)
	assert.Equal(t, "은발", a.Hair)
	assert.Equal(t, "갈색 눈", a.Eyes)
	assert.Equal(t, "캐주얼 의상", a.Outfit)
	assert.Equal(t, "따뜻하고 친근한", a.Atmosphere)
}

func TestAppearance_NormalizeRejectsUnknown(t *testing.T) {
	_, err := Appearance{Eyes: "빨간 눈"}.Normalize()
	assert.ErrorContains(t, err, "eyes")
}

func TestGetAppearanceOptions(t *testing.T) {
	opts := GetAppearanceOptions()
	assert.Equal(t, []string{"여성", "남성"}, opts.Gender)
	assert.Len(t, opts.Hair, 7)
	assert.Len(t, opts.Outfit, 6)
}
