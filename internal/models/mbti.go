package models

import (
	"fmt"
	"strings"
)

// PersonalityType is a 4-letter MBTI code such as "INFP"
type PersonalityType string

// dimensionPairs lists the four binary dimensions in code order
var dimensionPairs = [4][2]byte{
	{'E', 'I'},
	{'S', 'N'},
	{'T', 'F'},
	{'J', 'P'},
}

// TagAlphabet holds every letter an answer option may be tagged with
const TagAlphabet = "EISNTFJP"

// AllPersonalityTypes is the fixed list of the 16 codes, in selection order
var AllPersonalityTypes = []PersonalityType{
	"INTJ", "INTP", "ENTJ", "ENTP",
	"INFJ", "INFP", "ENFJ", "ENFP",
	"ISTJ", "ISFJ", "ESTJ", "ESFJ",
	"ISTP", "ISFP", "ESTP", "ESFP",
}

// ParsePersonalityType normalizes and validates a code
func ParsePersonalityType(s string) (PersonalityType, error) {
	p := PersonalityType(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid personality type: %q", s)
	}
	return p, nil
}

// Valid reports whether p has exactly one letter from each dimension, in order
func (p PersonalityType) Valid() bool {
	if len(p) != 4 {
		return false
	}
	for i, pair := range dimensionPairs {
		if p[i] != pair[0] && p[i] != pair[1] {
			return false
		}
	}
	return true
}

// Has reports whether tag is one of the four letters of p
func (p PersonalityType) Has(tag string) bool {
	if len(tag) != 1 {
		return false
	}
	return strings.IndexByte(string(p), tag[0]) >= 0
}

// Letters returns the four dimension letters of p
func (p PersonalityType) Letters() []string {
	letters := make([]string, 0, len(p))
	for i := 0; i < len(p); i++ {
		letters = append(letters, string(p[i]))
	}
	return letters
}

func (p PersonalityType) String() string {
	return string(p)
}

// IsTag reports whether s is a single letter of the tag alphabet
func IsTag(s string) bool {
	return len(s) == 1 && strings.IndexByte(TagAlphabet, s[0]) >= 0
}
