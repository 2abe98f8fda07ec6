package domain

import (
	"html"
	"sort"
	"strings"
)

// Answer is a shared answer text
type Answer struct {
	ID   int64  `json:"id" yaml:"id"`
	Text string `json:"answer" yaml:"answer"`
}

// Question is a stored question with its references resolved to names.
// Reference names are empty when the referenced row has been deleted.
type Question struct {
	ID               int64    `json:"id" yaml:"id"`
	Text             string   `json:"question" yaml:"question"`
	Difficulty       string   `json:"difficulty" yaml:"difficulty"`
	Category         string   `json:"category" yaml:"category"`
	Type             string   `json:"type" yaml:"type"`
	CorrectAnswer    string   `json:"correct_answer" yaml:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers" yaml:"incorrect_answers"`
}

// NewQuestion is the insert form of a Question, referencing rows by id
type NewQuestion struct {
	Text               string
	DifficultyID       int64
	CategoryID         int64
	TypeID             int64
	CorrectAnswerID    int64
	IncorrectAnswerIDs []int64
}

// Candidate is an incoming question from the remote source
type Candidate struct {
	Text             string   `json:"question"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

// Normalized returns a copy with surrounding whitespace trimmed from the
// question and answer texts, repeated incorrect answers dropped, and HTML
// entities decoded in the category.
// Only the category is decoded so it lines up with locally stored names;
// question and answer texts keep the entity encoding the source delivers.
func (c Candidate) Normalized() Candidate {
	out := Candidate{
		Text:          strings.TrimSpace(c.Text),
		Difficulty:    c.Difficulty,
		Category:      html.UnescapeString(c.Category),
		Type:          c.Type,
		CorrectAnswer: strings.TrimSpace(c.CorrectAnswer),
	}
	trimmed := make([]string, len(c.IncorrectAnswers))
	for i, a := range c.IncorrectAnswers {
		trimmed[i] = strings.TrimSpace(a)
	}
	out.IncorrectAnswers = distinct(trimmed)
	return out
}

// DistinctIncorrect returns the incorrect answers with repeats removed, in
// first-seen order. Stored questions link each answer at most once, so this
// is the form a candidate is stored and compared in.
func (c Candidate) DistinctIncorrect() []string {
	return distinct(c.IncorrectAnswers)
}

func distinct(s []string) []string {
	out := make([]string, 0, len(s))
	seen := make(map[string]struct{}, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// AnswerTexts returns the correct answer followed by the incorrect answers
func (c Candidate) AnswerTexts() []string {
	texts := make([]string, 0, 1+len(c.IncorrectAnswers))
	texts = append(texts, c.CorrectAnswer)
	return append(texts, c.IncorrectAnswers...)
}

// sortedCopy returns a sorted copy of s
func sortedCopy(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

// Candidate converts a stored question back into incoming form, for
// re-ingesting exported question banks
func (q Question) Candidate() Candidate {
	return Candidate{
		Text:             q.Text,
		Difficulty:       q.Difficulty,
		Category:         q.Category,
		Type:             q.Type,
		CorrectAnswer:    q.CorrectAnswer,
		IncorrectAnswers: append([]string(nil), q.IncorrectAnswers...),
	}
}

// QuestionBank is a portable export of stored questions
type QuestionBank struct {
	Questions []Question `json:"questions" yaml:"questions"`
}
