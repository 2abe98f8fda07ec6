package codec

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"triviamirror/internal/domain"
)

func sampleBank() *domain.QuestionBank {
	return &domain.QuestionBank{Questions: []domain.Question{
		{
			ID:               7,
			Text:             "What is the capital of France?",
			Difficulty:       "easy",
			Category:         "Geography",
			Type:             "multiple",
			CorrectAnswer:    "Paris",
			IncorrectAnswers: []string{"Lyon", "Marseille", "Nice"},
		},
		{
			ID:               8,
			Text:             "The &quot;Mona Lisa&quot; hangs in the Louvre.",
			Difficulty:       "medium",
			Category:         "Art",
			Type:             "boolean",
			CorrectAnswer:    "True",
			IncorrectAnswers: []string{"False"},
		},
	}}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format  string
		want    string
		wantErr bool
	}{
		{"json", "json", false},
		{"yaml", "yaml", false},
		{"yml", "yaml", false},
		{"ansible", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			c, err := ForFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ForFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
			}
			if err == nil && c.Format() != tt.want {
				t.Errorf("Format() = %s, want %s", c.Format(), tt.want)
			}
		})
	}
}

func TestJSONCodec(t *testing.T) {
	c := NewJSONCodec()
	var buf bytes.Buffer
	if err := c.Export(sampleBank(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if !strings.Contains(buf.String(), `"question": "What is the capital of France?"`) {
		t.Errorf("unexpected JSON output:\n%s", buf.String())
	}

	bank, err := c.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if !reflect.DeepEqual(sampleBank(), bank) {
		t.Errorf("expected %+v, got %+v", sampleBank(), bank)
	}
}

func TestJSONCodecParseResultsEnvelope(t *testing.T) {
	input := `{"response_code":0,"results":[
		{"type":"boolean","difficulty":"easy","category":"Science &amp; Nature",
		 "question":"Is the sky blue?","correct_answer":"True","incorrect_answers":["False"]},
		{"type":"multiple","difficulty":"hard","category":"History",
		 "question":"Year of the Battle of Hastings?","correct_answer":"1066"}
	]}`
	bank, err := NewJSONCodec().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
	if q := bank.Questions[0]; q.Category != "Science &amp; Nature" || q.CorrectAnswer != "True" {
		t.Errorf("unexpected question %+v", q)
	}
	if got := bank.Questions[1].IncorrectAnswers; got == nil || len(got) != 0 {
		t.Errorf("missing incorrect answers should parse as empty, got %#v", got)
	}
}

func TestJSONCodecParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing text", `{"questions":[{"correct_answer":"x"}]}`},
		{"both lists", `{"questions":[{"question":"a"}],"results":[{"question":"b"}]}`},
		{"malformed", `{"questions":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewJSONCodec().Parse(strings.NewReader(tt.input)); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}

func TestJSONCodecExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONCodec().Export(&domain.QuestionBank{}, &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "{\n  \"questions\": []\n}" {
		t.Errorf("unexpected empty export %q", got)
	}
}

func TestYAMLCodecDropsIDs(t *testing.T) {
	c := NewYAMLCodec()
	var buf bytes.Buffer
	if err := c.Export(sampleBank(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "id:") {
		t.Errorf("YAML export should not carry ids:\n%s", out)
	}
	if !strings.Contains(out, "incorrect_answers: [Lyon, Marseille, Nice]") {
		t.Errorf("expected flow style answers:\n%s", out)
	}

	bank, err := c.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := sampleBank()
	for i := range want.Questions {
		want.Questions[i].ID = 0
	}
	if !reflect.DeepEqual(want, bank) {
		t.Errorf("expected %+v, got %+v", want, bank)
	}
}

func TestYAMLCodecParse(t *testing.T) {
	input := `
questions:
  - question: Is the sky blue?
    category: Science & Nature
    difficulty: easy
    type: boolean
    correct_answer: "True"
    incorrect_answers: ["False"]
`
	bank, err := NewYAMLCodec().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(bank.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(bank.Questions))
	}
	q := bank.Questions[0]
	if q.Category != "Science & Nature" || q.CorrectAnswer != "True" || len(q.IncorrectAnswers) != 1 {
		t.Errorf("unexpected question %+v", q)
	}
}

func TestYAMLCodecParseRejectsMissingText(t *testing.T) {
	input := "questions:\n  - correct_answer: x\n"
	if _, err := NewYAMLCodec().Parse(strings.NewReader(input)); err == nil {
		t.Error("expected error for question without text")
	}
}
