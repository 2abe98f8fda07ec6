package codec

import (
	"fmt"
	"io"

	"triviamirror/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// ContentType returns the MIME type of exported documents
func (c *YAMLCodec) ContentType() string {
	return "application/yaml"
}

// yamlBank represents the YAML structure for a question bank.
// Stored ids are omitted; they are meaningless in another database.
type yamlBank struct {
	Questions []yamlQuestion `yaml:"questions"`
}

type yamlQuestion struct {
	Question         string   `yaml:"question"`
	Category         string   `yaml:"category,omitempty"`
	Difficulty       string   `yaml:"difficulty,omitempty"`
	Type             string   `yaml:"type,omitempty"`
	CorrectAnswer    string   `yaml:"correct_answer"`
	IncorrectAnswers []string `yaml:"incorrect_answers,flow"`
}

// Parse imports a question bank from YAML
func (c *YAMLCodec) Parse(r io.Reader) (*domain.QuestionBank, error) {
	var yb yamlBank
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&yb); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	bank := &domain.QuestionBank{Questions: make([]domain.Question, 0, len(yb.Questions))}
	for i, yq := range yb.Questions {
		q := domain.Question{
			Text:             yq.Question,
			Difficulty:       yq.Difficulty,
			Category:         yq.Category,
			Type:             yq.Type,
			CorrectAnswer:    yq.CorrectAnswer,
			IncorrectAnswers: yq.IncorrectAnswers,
		}
		if err := checkImported(i, &q); err != nil {
			return nil, err
		}
		bank.Questions = append(bank.Questions, q)
	}

	return bank, nil
}

// Export exports a question bank to YAML
func (c *YAMLCodec) Export(bank *domain.QuestionBank, w io.Writer) error {
	yb := yamlBank{Questions: make([]yamlQuestion, 0, len(bank.Questions))}
	for _, q := range bank.Questions {
		yb.Questions = append(yb.Questions, yamlQuestion{
			Question:         q.Text,
			Category:         q.Category,
			Difficulty:       q.Difficulty,
			Type:             q.Type,
			CorrectAnswer:    q.CorrectAnswer,
			IncorrectAnswers: q.IncorrectAnswers,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(yb); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
