package codec

import (
	"fmt"
	"io"

	"triviamirror/internal/domain"
)

// Importer interface for importing question banks from various formats
type Importer interface {
	Parse(r io.Reader) (*domain.QuestionBank, error)
	Format() string
}

// Exporter interface for exporting question banks to various formats
type Exporter interface {
	Export(bank *domain.QuestionBank, w io.Writer) error
	Format() string
	ContentType() string
}

// Codec both imports and exports one format
type Codec interface {
	Importer
	Exporter
}

// ForFormat returns the codec registered for a format name
func ForFormat(format string) (Codec, error) {
	switch format {
	case "json":
		return NewJSONCodec(), nil
	case "yaml", "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}
