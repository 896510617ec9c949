package web

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/engine"
)

// Play loop actions
const (
	ActionSubmitSetup   = "submit_setup"
	ActionSelectOption  = "select_option"
	ActionContinue      = "continue"
	ActionReturnToLobby = "return_to_lobby"
	ActionRandomType    = "random_type"
	ActionView          = "view"
)

// Error codes sent in error frames
const (
	CodeBadRequest          = "bad_request"
	CodeUnknownAction       = "unknown_action"
	CodeInvalidSetup        = "invalid_setup"
	CodeInsufficientData    = "insufficient_questions"
	CodePortraitUnavailable = "portrait_unavailable"
	CodeActionNotAllowed    = "action_not_allowed"
	CodeInvalidOption       = "invalid_option"
	CodeInternal            = "internal"
)

// ActionFrame is a client request on the play socket
type ActionFrame struct {
	Action string        `json:"action"`
	Setup  *engine.Setup `json:"setup,omitempty"`
	Option *int          `json:"option,omitempty"`
}

// ServerFrame is the reply to every action: the current view, plus the error when the action was rejected
type ServerFrame struct {
	Type    string      `json:"type"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	View    engine.View `json:"view"`
}

// playSession binds one controller to one connection
type playSession struct {
	ctx        context.Context
	controller *engine.Controller
	logger     *zap.Logger
}

// handle decodes, dispatches and answers one frame
func (p *playSession) handle(raw []byte) []byte {
	var frame ActionFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		playActionsTotal.WithLabelValues("invalid", CodeBadRequest).Inc()
		return p.encode(errorFrame(CodeBadRequest, "malformed action frame", p.controller.View()))
	}

	reply := p.dispatch(frame)
	result := "ok"
	if reply.Code != "" {
		result = reply.Code
	}
	playActionsTotal.WithLabelValues(frame.Action, result).Inc()
	return p.encode(reply)
}

func (p *playSession) dispatch(frame ActionFrame) ServerFrame {
	c := p.controller

	var err error
	switch frame.Action {
	case ActionSubmitSetup:
		if frame.Setup == nil {
			return errorFrame(CodeBadRequest, "setup is required", c.View())
		}
		err = c.SubmitSetup(p.ctx, *frame.Setup)
	case ActionSelectOption:
		if frame.Option == nil {
			return errorFrame(CodeBadRequest, "option is required", c.View())
		}
		err = c.SelectOption(p.ctx, *frame.Option)
	case ActionContinue:
		err = c.Continue(p.ctx)
	case ActionReturnToLobby:
		c.ReturnToLobby()
	case ActionRandomType:
		c.RandomPersonalityType()
	case ActionView:
	default:
		return errorFrame(CodeUnknownAction, "unknown action "+frame.Action, c.View())
	}

	if err != nil {
		code := errorCode(err)
		if code == CodeInternal {
			p.logger.Error("action failed", zap.String("action", frame.Action), zap.Error(err))
		}
		return errorFrame(code, err.Error(), c.View())
	}
	return ServerFrame{Type: "view", View: c.View()}
}

func (p *playSession) encode(frame ServerFrame) []byte {
	data, err := json.Marshal(frame)
	if err != nil {
		p.logger.Error("failed to marshal frame", zap.Error(err))
		return []byte(`{"type":"error","code":"internal"}`)
	}
	return data
}

func errorFrame(code, message string, view engine.View) ServerFrame {
	return ServerFrame{Type: "error", Code: code, Message: message, View: view}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, engine.ErrInvalidSetup):
		return CodeInvalidSetup
	case errors.Is(err, engine.ErrInsufficientQuestions):
		return CodeInsufficientData
	case errors.Is(err, engine.ErrPortraitUnavailable):
		return CodePortraitUnavailable
	case errors.Is(err, engine.ErrInvalidOption):
		return CodeInvalidOption
	case errors.Is(err, engine.ErrActionNotAllowed):
		return CodeActionNotAllowed
	default:
		return CodeInternal
	}
}
