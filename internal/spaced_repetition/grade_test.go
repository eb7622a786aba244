package spaced_repetition

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestGradeQualityMapping(t *testing.T) {
	tests := []struct {
		g    Grade
		want int
	}{
		{Again, 1},
		{Hard, 3},
		{Good, 4},
		{Easy, 5},
	}
	for _, tt := range tests {
		q, err := tt.g.Quality()
		if err != nil {
			t.Fatalf("%s.Quality(): %v", tt.g, err)
		}
		if q != tt.want {
			t.Errorf("%s.Quality() = %d, want %d", tt.g, q, tt.want)
		}
		back, err := GradeFromQuality(q)
		if err != nil || back != tt.g {
			t.Errorf("GradeFromQuality(%d) = %v, %v; want %s", q, back, err, tt.g)
		}
	}
}

func TestGradeFromQualityRejectsGap(t *testing.T) {
	for _, q := range []int{0, 2, 6, -1} {
		if _, err := GradeFromQuality(q); !errors.Is(err, ErrInvalidGrade) {
			t.Errorf("GradeFromQuality(%d) error = %v, want ErrInvalidGrade", q, err)
		}
	}
}

func TestGradeString(t *testing.T) {
	if Again.String() != "AGAIN" || Easy.String() != "EASY" {
		t.Errorf("unexpected names %q %q", Again, Easy)
	}
	if got := Grade(9).String(); got != "Grade(9)" {
		t.Errorf("Grade(9).String() = %q", got)
	}
}

func TestGradeJSON(t *testing.T) {
	data, err := json.Marshal(Hard)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"HARD"` {
		t.Errorf("Marshal(Hard) = %s", data)
	}

	var g Grade
	if err := json.Unmarshal([]byte(`"EASY"`), &g); err != nil || g != Easy {
		t.Errorf("Unmarshal EASY = %v, %v", g, err)
	}
	if err := json.Unmarshal([]byte(`"MEDIUM"`), &g); !errors.Is(err, ErrInvalidGrade) {
		t.Errorf("Unmarshal MEDIUM error = %v", err)
	}
	if _, err := json.Marshal(Grade(0)); err == nil {
		t.Error("Marshal(Grade(0)) succeeded")
	}
}
