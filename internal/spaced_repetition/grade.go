package spaced_repetition

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidGrade is returned for grade or quality values outside the supported set.
// It signals a caller error and is never retried.
var ErrInvalidGrade = errors.New("spaced_repetition: invalid grade")

// Grade is the learner's self-reported recall quality for one card
type Grade int

const (
	Again Grade = iota + 1 // Not recalled, card is shown again in the same session
	Hard                   // Recalled with significant effort
	Good                   // Recalled after some hesitation
	Easy                   // Recalled effortlessly
)

var gradeNames = [...]string{Again: "AGAIN", Hard: "HARD", Good: "GOOD", Easy: "EASY"}

// Quality codes used by the remote review API.
// The scale has no 2: HARD maps to 3 and no grade maps to 2.
var qualityByGrade = map[Grade]int{
	Again: 1,
	Hard:  3,
	Good:  4,
	Easy:  5,
}

var gradeByQuality = map[int]Grade{
	1: Again,
	3: Hard,
	4: Good,
	5: Easy,
}

// Grades lists every valid grade in ascending order
func Grades() []Grade {
	return []Grade{Again, Hard, Good, Easy}
}

// IsValid reports whether g is one of AGAIN, HARD, GOOD, EASY
func (g Grade) IsValid() bool {
	return g >= Again && g <= Easy
}

func (g Grade) String() string {
	if g.IsValid() {
		return gradeNames[g]
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// Quality returns the remote API quality code for g
func (g Grade) Quality() (int, error) {
	q, ok := qualityByGrade[g]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return q, nil
}

// GradeFromQuality converts a remote API quality code (1, 3, 4, 5) into a Grade
func GradeFromQuality(quality int) (Grade, error) {
	g, ok := gradeByQuality[quality]
	if !ok {
		return 0, fmt.Errorf("%w: quality %d", ErrInvalidGrade, quality)
	}
	return g, nil
}

// ParseGrade parses a grade name such as "GOOD" (case-sensitive)
func ParseGrade(s string) (Grade, error) {
	for _, g := range Grades() {
		if gradeNames[g] == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidGrade, s)
}

// MarshalJSON encodes the grade by name
func (g Grade) MarshalJSON() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidGrade, int(g))
	}
	return json.Marshal(gradeNames[g])
}

// UnmarshalJSON decodes a grade name
func (g *Grade) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidGrade, data)
	}
	v, err := ParseGrade(s)
	if err != nil {
		return err
	}
	*g = v
	return nil
}
