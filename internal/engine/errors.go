package engine

import (
	"errors"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/catalog"
)

var (
	// ErrInvalidSetup is returned for an empty name, unknown type or appearance choice
	ErrInvalidSetup = errors.New("invalid setup")
	// ErrInsufficientQuestions is returned when the bank cannot fill a session
	ErrInsufficientQuestions = catalog.ErrInsufficientQuestions
	// ErrPortraitUnavailable blocks the move to play when no portrait could be drawn
	ErrPortraitUnavailable = errors.New("character portrait could not be generated")
	// ErrActionNotAllowed is returned for actions that do not fit the current screen
	ErrActionNotAllowed = errors.New("action not allowed in current state")
	// ErrInvalidOption is returned for an option index outside the current question
	ErrInvalidOption = errors.New("invalid option index")
)
