package domain

import (
	"reflect"
	"testing"
)

func TestCandidateNormalized(t *testing.T) {
	t.Run("trims question and answers", func(t *testing.T) {
		c := Candidate{
			Text:             "  What is 2+2? ",
			Difficulty:       "easy",
			Category:         "Science: Mathematics",
			Type:             "multiple",
			CorrectAnswer:    " 4",
			IncorrectAnswers: []string{"3 ", " 5", "22"},
		}
		got := c.Normalized()

		if got.Text != "What is 2+2?" {
			t.Errorf("expected trimmed text, got %q", got.Text)
		}
		if got.CorrectAnswer != "4" {
			t.Errorf("expected trimmed correct answer, got %q", got.CorrectAnswer)
		}
		want := []string{"3", "5", "22"}
		if !reflect.DeepEqual(got.IncorrectAnswers, want) {
			t.Errorf("expected %v, got %v", want, got.IncorrectAnswers)
		}
	})

	t.Run("decodes entities in category only", func(t *testing.T) {
		c := Candidate{
			Text:          "Who wrote &quot;Hamlet&quot;?",
			Category:      "Entertainment: Japanese Anime &amp; Manga",
			CorrectAnswer: "&quot;Shakespeare&quot;",
		}
		got := c.Normalized()

		if got.Category != "Entertainment: Japanese Anime & Manga" {
			t.Errorf("expected decoded category, got %q", got.Category)
		}
		if got.Text != c.Text {
			t.Errorf("expected question text untouched, got %q", got.Text)
		}
		if got.CorrectAnswer != c.CorrectAnswer {
			t.Errorf("expected answer untouched, got %q", got.CorrectAnswer)
		}
	})

	t.Run("drops repeated incorrect answers after trimming", func(t *testing.T) {
		c := Candidate{IncorrectAnswers: []string{"Ag", " Ag", "Go", "Ag "}}
		got := c.Normalized()
		want := []string{"Ag", "Go"}
		if !reflect.DeepEqual(got.IncorrectAnswers, want) {
			t.Errorf("expected %v, got %v", want, got.IncorrectAnswers)
		}
	})

	t.Run("does not alias the input slice", func(t *testing.T) {
		c := Candidate{IncorrectAnswers: []string{"a"}}
		got := c.Normalized()
		got.IncorrectAnswers[0] = "b"
		if c.IncorrectAnswers[0] != "a" {
			t.Error("expected input incorrect answers to be unchanged")
		}
	})
}

func TestCandidateAnswerTexts(t *testing.T) {
	c := Candidate{CorrectAnswer: "True", IncorrectAnswers: []string{"False"}}
	got := c.AnswerTexts()
	want := []string{"True", "False"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestTally(t *testing.T) {
	var batch Tally
	batch.Record(OutcomeStored)
	batch.Record(OutcomeSkipped)
	batch.Record(OutcomeDiverged)
	batch.RecordFailure()

	if batch.Processed != 4 {
		t.Errorf("expected 4 processed, got %d", batch.Processed)
	}
	if batch.Stored != 1 || batch.Skipped != 1 || batch.Diverged != 1 || batch.Failed != 1 {
		t.Errorf("unexpected tally %+v", batch)
	}

	var total Tally
	total.Add(batch)
	total.Add(batch)
	if total.Processed != 8 || total.Stored != 2 {
		t.Errorf("unexpected merged tally %+v", total)
	}
}
