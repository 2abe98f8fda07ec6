package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"triviamirror/internal/domain"
)

// JSONCodec reads and writes question banks as JSON. Besides its own
// {"questions": [...]} document it imports a saved remote source response,
// whose questions sit under "results".
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Format() string {
	return "json"
}

func (c *JSONCodec) ContentType() string {
	return "application/json"
}

type jsonDocument struct {
	Questions []domain.Question `json:"questions"`
	Results   []domain.Question `json:"results,omitempty"`
}

// Parse imports a question bank from JSON
func (c *JSONCodec) Parse(r io.Reader) (*domain.QuestionBank, error) {
	var doc jsonDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	questions := doc.Questions
	switch {
	case questions == nil:
		questions = doc.Results
	case doc.Results != nil:
		return nil, fmt.Errorf("document has both questions and results")
	}

	bank := &domain.QuestionBank{Questions: make([]domain.Question, 0, len(questions))}
	for i, q := range questions {
		if err := checkImported(i, &q); err != nil {
			return nil, err
		}
		bank.Questions = append(bank.Questions, q)
	}
	return bank, nil
}

// Export writes the bank as indented JSON, ids included
func (c *JSONCodec) Export(bank *domain.QuestionBank, w io.Writer) error {
	questions := bank.Questions
	if questions == nil {
		questions = []domain.Question{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(jsonDocument{Questions: questions}); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// checkImported rejects a question without text and gives a missing
// incorrect answer list its empty form. i is the zero-based position.
func checkImported(i int, q *domain.Question) error {
	if q.Text == "" {
		return fmt.Errorf("question %d: missing question text", i+1)
	}
	if q.IncorrectAnswers == nil {
		q.IncorrectAnswers = []string{}
	}
	return nil
}
