package engine

import (
	"strings"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

var fallbackTemplates = map[models.Grade]string{
	models.GradeGood: "{name}, 정말 좋아! 그렇게 생각해줘서 고마워 💕",
	models.GradeOK:   "음, 그렇구나~ 괜찮아, {name}!",
	models.GradeBad:  "{name}... 음... 그건 좀 아쉽네...",
}

// FallbackDialogue is the canned reply used when dialogue generation fails
func FallbackDialogue(grade models.Grade, playerName string) string {
	tmpl, ok := fallbackTemplates[grade]
	if !ok {
		tmpl = fallbackTemplates[models.GradeBad]
	}
	return strings.ReplaceAll(tmpl, "{name}", playerName)
}

// EndingNarration returns the closing narration and the character's last line
func EndingNarration(kind models.EndingKind, characterName, playerName string) (narration, line string) {
	if kind == models.EndingSuccess {
		return characterName + "이(가) 환하게 웃으며 " + playerName + "의 손을 잡았다.",
			playerName + "... 너랑 있으면 정말 행복해. 앞으로도 계속 함께하자, 응?"
	}
	return characterName + "이(가) 고개를 돌리며 말했다.",
		playerName + "... 우리 여기까지인 것 같아. 좋은 사람 만나."
}
