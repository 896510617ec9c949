package engine

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/interfaces"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

type controllerFixture struct {
	ctrl      *Controller
	catalog   *fakeCatalog
	dialogue  *mockDialogue
	portraits *mockPortraits
	recorder  *mockRecorder
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()
	f := &controllerFixture{
		catalog:   newFakeCatalog(20),
		dialogue:  new(mockDialogue),
		portraits: new(mockPortraits),
		recorder:  new(mockRecorder),
	}
	f.ctrl = NewController(f.catalog, f.dialogue, f.portraits, seeded(11), WithEndingRecorder(f.recorder))
	return f
}

func (f *controllerFixture) start(t *testing.T) {
	t.Helper()
	f.portraits.On("GeneratePortraitSet", mock.Anything, mock.Anything).Return(fullPortraits(), nil)
	require.NoError(t, f.ctrl.SubmitSetup(context.Background(), infpSetup()))
	require.Equal(t, ScreenPlay, f.ctrl.Screen())
}

func (f *controllerFixture) answer(t *testing.T, option int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.ctrl.SelectOption(ctx, option))
	require.NoError(t, f.ctrl.Continue(ctx))
}

func TestController_InfpScenario(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)
	ctx := context.Background()

	f.dialogue.On("GenerateDialogue", mock.Anything, mock.MatchedBy(func(req *interfaces.DialogueRequest) bool {
		return req.Grade == models.GradeGood
	})).Return("정말? 나도 그래!", nil).Once()

	require.NoError(t, f.ctrl.SelectOption(ctx, optGood))
	s := f.ctrl.Session()
	assert.Equal(t, 60, s.Affection)
	assert.Equal(t, models.ExpressionBigSmile, s.Expression)
	assert.Equal(t, "정말? 나도 그래!", s.LastDialogue)
	assert.Equal(t, models.GradeGood, s.LastGrade)
	require.Len(t, s.Log, 1)
	assert.Equal(t, 30, s.Log[0].Delta)
	assert.Equal(t, models.GradeGood, s.Log[0].Grade)

	v := f.ctrl.View()
	assert.True(t, v.AwaitingNext)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("big_smile")), v.Portrait)
	assert.Equal(t, "활짝", v.ExpressionLabel)

	require.NoError(t, f.ctrl.Continue(ctx))
	assert.Equal(t, models.ExpressionNeutral, s.Expression)
	assert.Equal(t, 1, s.QuestionIndex)

	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("음...", nil).Once()
	require.NoError(t, f.ctrl.SelectOption(ctx, optBad))
	assert.Equal(t, 50, s.Affection)
	assert.Equal(t, models.ExpressionPout, s.Expression)
	assert.Equal(t, -10, s.Log[1].Delta)

	f.dialogue.AssertExpectations(t)
}

func TestController_DialogueRequestCarriesTraits(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)

	q := f.ctrl.Session().CurrentQuestion(f.catalog)
	f.dialogue.On("GenerateDialogue", mock.Anything, &interfaces.DialogueRequest{
		PersonalityType: "INFP",
		Traits:          models.TraitProfile{Name: "trait INFP"},
		Grade:           models.GradeOK,
		Question:        q.Prompt,
		Answer:          q.Options[optOK].Text,
	}).Return("그렇구나", nil).Once()

	require.NoError(t, f.ctrl.SelectOption(context.Background(), optOK))
	f.dialogue.AssertExpectations(t)
}

func TestController_LogKeepsPlainQuestion(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)

	q := f.ctrl.Session().CurrentQuestion(f.catalog)
	displayed := f.ctrl.View().Question.Text
	require.NotEqual(t, q.Prompt, displayed)

	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("응", nil).Once()
	require.NoError(t, f.ctrl.SelectOption(context.Background(), optGood))

	log := f.ctrl.Session().Log
	require.Len(t, log, 1)
	assert.Equal(t, q.Prompt, log[0].Question)
	assert.Equal(t, q.Options[optGood].Text, log[0].Answer)
}

func TestController_FallbackDialogueVerbatim(t *testing.T) {
	tests := []struct {
		option int
		want   string
	}{
		{optGood, "지훈, 정말 좋아! 그렇게 생각해줘서 고마워 💕"},
		{optOK, "음, 그렇구나~ 괜찮아, 지훈!"},
		{optBad, "지훈... 음... 그건 좀 아쉽네..."},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := newControllerFixture(t)
			f.start(t)
			f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).
				Return("", fmt.Errorf("%w: timeout", interfaces.ErrGeneration))

			require.NoError(t, f.ctrl.SelectOption(context.Background(), tt.option))
			assert.Equal(t, tt.want, f.ctrl.Session().LastDialogue)
			assert.True(t, f.ctrl.Session().AwaitingNext)
		})
	}
}

func TestController_EmptyDialogueUsesFallback(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)
	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("   ", nil)

	require.NoError(t, f.ctrl.SelectOption(context.Background(), optOK))
	assert.Equal(t, "음, 그렇구나~ 괜찮아, 지훈!", f.ctrl.Session().LastDialogue)
}

func TestController_SelectTwiceDoesNotRegrade(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)
	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("좋아", nil).Once()
	ctx := context.Background()

	require.NoError(t, f.ctrl.SelectOption(ctx, optGood))
	err := f.ctrl.SelectOption(ctx, optBad)
	assert.ErrorIs(t, err, ErrActionNotAllowed)

	s := f.ctrl.Session()
	assert.Len(t, s.Log, 1)
	assert.Equal(t, 60, s.Affection)
	assert.Equal(t, models.ExpressionBigSmile, s.Expression)
	f.dialogue.AssertNumberOfCalls(t, "GenerateDialogue", 1)
}

func TestController_InvalidOption(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)

	for _, idx := range []int{-1, 3, 99} {
		assert.ErrorIs(t, f.ctrl.SelectOption(context.Background(), idx), ErrInvalidOption)
	}
	assert.Empty(t, f.ctrl.Session().Log)
	assert.False(t, f.ctrl.Session().AwaitingNext)
}

func TestController_ActionsOutOfOrder(t *testing.T) {
	f := newControllerFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.ctrl.SelectOption(ctx, 0), ErrActionNotAllowed)
	assert.ErrorIs(t, f.ctrl.Continue(ctx), ErrActionNotAllowed)

	f.start(t)
	assert.ErrorIs(t, f.ctrl.Continue(ctx), ErrActionNotAllowed)
	assert.ErrorIs(t, f.ctrl.SubmitSetup(ctx, infpSetup()), ErrActionNotAllowed)
}

func TestController_InvalidSetupStaysOnSetup(t *testing.T) {
	f := newControllerFixture(t)

	err := f.ctrl.SubmitSetup(context.Background(), Setup{PlayerName: " ", PersonalityType: "INFP"})
	assert.ErrorIs(t, err, ErrInvalidSetup)
	assert.Equal(t, ScreenSetup, f.ctrl.Screen())
	assert.NotEmpty(t, f.ctrl.View().Notice)
	f.portraits.AssertNotCalled(t, "GeneratePortraitSet", mock.Anything, mock.Anything)
}

func TestController_PortraitFailureBlocksPlay(t *testing.T) {
	tests := []struct {
		name string
		set  interfaces.PortraitSet
		err  error
	}{
		{"gateway error", nil, fmt.Errorf("%w: backend down", interfaces.ErrGeneration)},
		{"empty set", interfaces.PortraitSet{}, nil},
		{"only empty slots", interfaces.PortraitSet{models.ExpressionNeutral: nil, models.ExpressionPout: {}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t)
			f.portraits.On("GeneratePortraitSet", mock.Anything, mock.Anything).Return(tt.set, tt.err)

			err := f.ctrl.SubmitSetup(context.Background(), infpSetup())
			assert.ErrorIs(t, err, ErrPortraitUnavailable)
			if tt.err != nil {
				assert.ErrorIs(t, err, interfaces.ErrGeneration)
			}
			assert.Equal(t, ScreenSetup, f.ctrl.Screen())
			assert.Nil(t, f.ctrl.Session())
			assert.NotEmpty(t, f.ctrl.View().Notice)
		})
	}
}

func TestController_RetryAfterPortraitFailure(t *testing.T) {
	f := newControllerFixture(t)
	f.portraits.On("GeneratePortraitSet", mock.Anything, mock.Anything).
		Return(nil, interfaces.ErrGeneration).Once()
	f.portraits.On("GeneratePortraitSet", mock.Anything, mock.Anything).
		Return(fullPortraits(), nil).Once()

	assert.Error(t, f.ctrl.SubmitSetup(context.Background(), infpSetup()))
	require.NoError(t, f.ctrl.SubmitSetup(context.Background(), infpSetup()))
	assert.Equal(t, ScreenPlay, f.ctrl.Screen())
	assert.Empty(t, f.ctrl.View().Notice)
}

func TestController_PartialPortraitsFallBackToNeutral(t *testing.T) {
	f := newControllerFixture(t)
	f.portraits.On("GeneratePortraitSet", mock.Anything, mock.Anything).
		Return(interfaces.PortraitSet{models.ExpressionNeutral: []byte("neutral")}, nil)
	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("흥", nil)

	require.NoError(t, f.ctrl.SubmitSetup(context.Background(), infpSetup()))
	require.NoError(t, f.ctrl.SelectOption(context.Background(), optBad))

	v := f.ctrl.View()
	assert.Equal(t, models.ExpressionPout, v.Expression)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("neutral")), v.Portrait)
	assert.False(t, v.PortraitPlaceholder)
}

func TestController_EarlyFailureAtZero(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)
	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("...", nil)
	f.recorder.On("RecordEnding", mock.Anything, models.PersonalityType("INFP"), models.EndingFailure).Return(nil).Once()

	f.answer(t, optBad) // 20
	f.answer(t, optBad) // 10
	assert.Equal(t, ScreenPlay, f.ctrl.Screen())
	f.answer(t, optBad) // 0

	kind, ended := f.ctrl.Ending()
	assert.True(t, ended)
	assert.Equal(t, models.EndingFailure, kind)
	assert.Equal(t, 3, f.ctrl.Session().QuestionIndex)
	f.recorder.AssertExpectations(t)

	v := f.ctrl.View()
	require.NotNil(t, v.Ending)
	assert.Nil(t, v.Question)
	assert.Equal(t, "지훈... 우리 여기까지인 것 같아. 좋은 사람 만나.", v.Ending.Line)
	assert.Equal(t, 3, v.Ending.Summary.Counts[models.GradeBad])
	assert.Equal(t, -30, v.Ending.Summary.DeltaSums[models.GradeBad])
}

func TestController_EarlySuccessAtHundred(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)
	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("!", nil)
	f.recorder.On("RecordEnding", mock.Anything, mock.Anything, models.EndingSuccess).Return(nil)

	f.answer(t, optGood) // 60
	f.answer(t, optGood) // 90
	f.answer(t, optGood) // 100

	kind, ended := f.ctrl.Ending()
	assert.True(t, ended)
	assert.Equal(t, models.EndingSuccess, kind)

	v := f.ctrl.View()
	narration := f.ctrl.Session().CharacterName + "이(가) 환하게 웃으며 지훈의 손을 잡았다."
	assert.Equal(t, narration, v.Ending.Narration)
	assert.Equal(t, 100, v.Ending.Summary.FinalAffection)
	// logged deltas, not the clamped gain
	assert.Equal(t, 90, v.Ending.Summary.TotalDelta)
}

func TestController_FullGameThresholds(t *testing.T) {
	tests := []struct {
		name    string
		answers []int
		final   int
		kind    models.EndingKind
	}{
		{
			name:    "ends at 90",
			answers: []int{optOK, optOK, optOK, optOK, optOK, optBad, optOK, optBad, optOK, optBad, optOK, optOK},
			final:   90,
			kind:    models.EndingSuccess,
		},
		{
			name:    "ends at 70",
			answers: []int{optOK, optOK, optOK, optOK, optBad, optOK, optBad, optOK, optBad, optOK, optBad, optOK},
			final:   70,
			kind:    models.EndingFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newControllerFixture(t)
			f.start(t)
			f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("응", nil)
			f.recorder.On("RecordEnding", mock.Anything, mock.Anything, tt.kind).Return(nil)

			for i, opt := range tt.answers {
				require.Equal(t, ScreenPlay, f.ctrl.Screen(), "answer %d", i)
				f.answer(t, opt)
			}

			kind, ended := f.ctrl.Ending()
			require.True(t, ended)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.final, f.ctrl.Session().Affection)
			assert.Len(t, f.ctrl.Session().Log, 12)
		})
	}
}

func TestController_RecorderErrorIsNotSurfaced(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)
	f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("...", nil)
	f.recorder.On("RecordEnding", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	f.answer(t, optBad)
	f.answer(t, optBad)
	require.NoError(t, f.ctrl.SelectOption(context.Background(), optBad))
	assert.NoError(t, f.ctrl.Continue(context.Background()))
	assert.Equal(t, ScreenEnding, f.ctrl.Screen())
}

func TestController_ReturnToLobbyDiscardsSession(t *testing.T) {
	ctx := context.Background()

	t.Run("from play", func(t *testing.T) {
		f := newControllerFixture(t)
		f.start(t)
		f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("좋아", nil)
		f.answer(t, optGood)

		f.ctrl.ReturnToLobby()
		assert.Equal(t, ScreenSetup, f.ctrl.Screen())
		assert.Nil(t, f.ctrl.Session())

		require.NoError(t, f.ctrl.SubmitSetup(ctx, infpSetup()))
		assert.Equal(t, 30, f.ctrl.Session().Affection)
		assert.Empty(t, f.ctrl.Session().Log)
		assert.Equal(t, 0, f.ctrl.Session().QuestionIndex)
	})

	t.Run("from ending", func(t *testing.T) {
		f := newControllerFixture(t)
		f.start(t)
		f.dialogue.On("GenerateDialogue", mock.Anything, mock.Anything).Return("좋아", nil)
		f.recorder.On("RecordEnding", mock.Anything, mock.Anything, mock.Anything).Return(nil)
		for i := 0; i < 3; i++ {
			f.answer(t, optGood)
		}
		require.Equal(t, ScreenEnding, f.ctrl.Screen())

		f.ctrl.ReturnToLobby()
		_, ended := f.ctrl.Ending()
		assert.False(t, ended)

		require.NoError(t, f.ctrl.SubmitSetup(ctx, infpSetup()))
		assert.Equal(t, 30, f.ctrl.Session().Affection)
		assert.Empty(t, f.ctrl.Session().Log)
		assert.Equal(t, models.ExpressionNeutral, f.ctrl.Session().Expression)
	})
}

func TestController_RandomPersonalityType(t *testing.T) {
	f := newControllerFixture(t)

	p := f.ctrl.RandomPersonalityType()
	assert.True(t, p.Valid())
	assert.Equal(t, p.String(), f.ctrl.View().SuggestedType)
}

func TestController_ViewKeepsQuestionTextStable(t *testing.T) {
	f := newControllerFixture(t)
	f.start(t)

	first := f.ctrl.View()
	require.NotNil(t, first.Question)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first.Question.Text, f.ctrl.View().Question.Text)
	}
	assert.Len(t, first.Question.Options, 3)
	assert.Equal(t, BandMid, first.AffectionBand)
}

func TestAffectionBand(t *testing.T) {
	assert.Equal(t, BandLow, AffectionBand(0))
	assert.Equal(t, BandLow, AffectionBand(29))
	assert.Equal(t, BandMid, AffectionBand(30))
	assert.Equal(t, BandMid, AffectionBand(69))
	assert.Equal(t, BandHigh, AffectionBand(70))
	assert.Equal(t, BandHigh, AffectionBand(100))
}
