package engine

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/stretchr/testify/mock"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// Option indexes of every fixture question, graded against INFP
const (
	optGood = 0 // I N F
	optOK   = 1 // I N
	optBad  = 2 // E S
)

type fakeCatalog struct {
	questions []models.Question
}

func newFakeCatalog(n int) *fakeCatalog {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = models.Question{
			ID:     i,
			Prompt: fmt.Sprintf("질문 %d?", i),
			Options: []models.Option{
				{Text: fmt.Sprintf("좋은 답 %d", i), Tags: []string{"I", "N", "F"}},
				{Text: fmt.Sprintf("보통 답 %d", i), Tags: []string{"I", "N"}},
				{Text: fmt.Sprintf("나쁜 답 %d", i), Tags: []string{"E", "S"}},
			},
		}
	}
	return &fakeCatalog{questions: qs}
}

func (c *fakeCatalog) QuestionCount() int               { return len(c.questions) }
func (c *fakeCatalog) Question(i int) models.Question { return c.questions[i] }
func (c *fakeCatalog) Trait(p models.PersonalityType) models.TraitProfile {
	return models.TraitProfile{Name: "trait " + p.String()}
}

type mockDialogue struct {
	mock.Mock
}

func (m *mockDialogue) GenerateDialogue(ctx context.Context, req *interfaces.DialogueRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

type mockPortraits struct {
	mock.Mock
}

func (m *mockPortraits) GeneratePortraitSet(ctx context.Context, req *interfaces.PortraitRequest) (interfaces.PortraitSet, error) {
	args := m.Called(ctx, req)
	set, _ := args.Get(0).(interfaces.PortraitSet)
	return set, args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordEnding(ctx context.Context, p models.PersonalityType, kind models.EndingKind) error {
	return m.Called(ctx, p, kind).Error(0)
}

func fullPortraits() interfaces.PortraitSet {
	return interfaces.PortraitSet{
		models.ExpressionNeutral:  []byte("neutral"),
		models.ExpressionPout:     []byte("pout"),
		models.ExpressionSmile:    []byte("neutral"),
		models.ExpressionBigSmile: []byte("big_smile"),
	}
}

func infpSetup() Setup {
	return Setup{PlayerName: "지훈", PersonalityType: "INFP"}
}

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}
