package models

import "fmt"

// Appearance choices offered on the setup screen
var (
	GenderOptions     = []string{"여성", "남성"}
	FaceOptions       = []string{"귀여운 얼굴", "시크한 얼굴", "청순한 얼굴", "카리스마 있는 얼굴", "부드러운 얼굴"}
	HairOptions       = []string{"긴 검은 머리", "긴 갈색 머리", "단발 검은 머리", "짧은 검은 머리", "긴 금발", "짧은 갈색 머리", "은발"}
	EyeOptions        = []string{"갈색 눈", "검은 눈", "파란 눈", "초록 눈", "보라색 눈"}
	OutfitOptions     = []string{"캐주얼 의상", "정장", "교복", "원피스", "후드티와 청바지", "세미정장"}
	AtmosphereOptions = []string{"따뜻하고 친근한", "시크하고 도도한", "밝고 활발한", "차분하고 지적인", "신비롭고 몽환적인"}
)

// GenderFemale is the default gender choice
const GenderFemale = "여성"

// Appearance holds the player's preferences for the character's look
type Appearance struct {
	Gender     string `json:"gender"`
	FaceType   string `json:"face_type"`
	Hair       string `json:"hair"`
	Eyes       string `json:"eyes"`
	Outfit     string `json:"outfit"`
	Atmosphere string `json:"atmosphere"`
}

// AppearanceOptions groups the enumerations for clients building the setup form
type AppearanceOptions struct {
	Gender     []string `json:"gender"`
	FaceType   []string `json:"face_type"`
	Hair       []string `json:"hair"`
	Eyes       []string `json:"eyes"`
	Outfit     []string `json:"outfit"`
	Atmosphere []string `json:"atmosphere"`
}

// GetAppearanceOptions returns every appearance enumeration
func GetAppearanceOptions() AppearanceOptions {
	return AppearanceOptions{
		Gender:     GenderOptions,
		FaceType:   FaceOptions,
		Hair:       HairOptions,
		Eyes:       EyeOptions,
		Outfit:     OutfitOptions,
		Atmosphere: AtmosphereOptions,
	}
}

// Normalize fills empty fields with the first choice of each enumeration
// and rejects values outside the enumerations
func (a Appearance) Normalize() (Appearance, error) {
	fields := []struct {
		name    string
		value   *string
		choices []string
	}{
		{"gender", &a.Gender, GenderOptions},
		{"face_type", &a.FaceType, FaceOptions},
		{"hair", &a.Hair, HairOptions},
		{"eyes", &a.Eyes, EyeOptions},
		{"outfit", &a.Outfit, OutfitOptions},
		{"atmosphere", &a.Atmosphere, AtmosphereOptions},
	}

	for _, f := range fields {
		if *f.value == "" {
			*f.value = f.choices[0]
			continue
		}
		if !contains(f.choices, *f.value) {
			return Appearance{}, fmt.Errorf("unknown %s: %q", f.name, *f.value)
		}
	}
	return a, nil
}

func contains(choices []string, v string) bool {
	for _, c := range choices {
		if c == v {
			return true
		}
	}
	return false
}
