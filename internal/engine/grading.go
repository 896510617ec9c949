package engine

import (
	"fmt"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// Affection deltas per grade
const (
	DeltaGood = 30
	DeltaOK   = 10
	DeltaBad  = -10
)

// Grade scores an answer against the character's personality type.
// Each distinct tag that is one of the type's four letters counts as a match:
// three or more is good, exactly two is ok, anything less is bad.
// Grading an invalid type is a programming error and panics.
func Grade(p models.PersonalityType, tags []string) (models.Grade, int) {
	if !p.Valid() {
		panic(fmt.Sprintf("engine: grading invalid personality type %q", string(p)))
	}

	seen := make(map[string]struct{}, len(tags))
	matches := 0
	for _, tag := range tags {
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		if p.Has(tag) {
			matches++
		}
	}

	switch {
	case matches >= 3:
		return models.GradeGood, DeltaGood
	case matches == 2:
		return models.GradeOK, DeltaOK
	default:
		return models.GradeBad, DeltaBad
	}
}
