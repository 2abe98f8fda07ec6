package domain

import (
	"fmt"
	"strings"
)

// Outcome is the result of resolving a Candidate against stored questions
type Outcome string

const (
	OutcomeStored   Outcome = "stored"
	OutcomeSkipped  Outcome = "skipped"
	OutcomeDiverged Outcome = "diverged"
)

// Resolution describes what happened to a single candidate
type Resolution struct {
	Outcome  Outcome   `json:"outcome"`
	Question *Question `json:"question,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Diff     *Diff     `json:"diff,omitempty"`
}

// FieldDiff is one field that differs between an incoming and a stored question
type FieldDiff struct {
	Field    string `json:"field"`
	Received string `json:"received"`
	Existing string `json:"existing"`
}

// Diff lists the differences between a candidate and the stored question
// sharing its text
type Diff struct {
	Text   string      `json:"question"`
	Fields []FieldDiff `json:"fields"`
}

// Empty reports whether the candidate matched the stored question exactly
func (d *Diff) Empty() bool {
	return d == nil || len(d.Fields) == 0
}

// String renders the diff for operator review
func (d *Diff) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question already exists: %s", d.Text)
	for _, f := range d.Fields {
		switch f.Field {
		case "correct_answer":
			fmt.Fprintf(&b, "\nreceived %s: '%s', existing: '%s'", f.Field, f.Received, f.Existing)
		default:
			fmt.Fprintf(&b, "\nreceived %s: %s, existing: %s", f.Field, f.Received, f.Existing)
		}
	}
	return b.String()
}

func (d *Diff) add(field, received, existing string) {
	d.Fields = append(d.Fields, FieldDiff{Field: field, Received: received, Existing: existing})
}

// CompareQuestion compares a stored question with a candidate of the same
// text field by field. Incorrect answers are compared as sorted sets, so
// order and repeats do not count as differences.
func CompareQuestion(existing *Question, c Candidate) *Diff {
	d := &Diff{Text: c.Text}

	if existing.Difficulty != c.Difficulty {
		d.add("difficulty", c.Difficulty, existing.Difficulty)
	}
	if existing.Category != c.Category {
		d.add("category", c.Category, existing.Category)
	}
	if existing.Type != c.Type {
		d.add("type", c.Type, existing.Type)
	}
	if existing.CorrectAnswer != c.CorrectAnswer {
		d.add("correct_answer", c.CorrectAnswer, existing.CorrectAnswer)
	}

	have := sortedCopy(existing.IncorrectAnswers)
	got := sortedCopy(c.DistinctIncorrect())
	if len(have) != len(got) {
		d.add("incorrect_answers.length", fmt.Sprint(len(got)), fmt.Sprint(len(have)))
	}
	for i := 0; i < len(have) && i < len(got); i++ {
		if have[i] != got[i] {
			d.add("incorrect_answer", got[i], have[i])
		}
	}

	return d
}
