package domain

// ReferenceKind names one of the three reference tables
type ReferenceKind string

const (
	ReferenceType       ReferenceKind = "type"
	ReferenceDifficulty ReferenceKind = "difficulty"
	ReferenceCategory   ReferenceKind = "category"
)

// Category is a question category mirrored from the remote source
type Category struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	RemoteID int    `json:"remote_id" yaml:"remote_id"`
}

// Type is a question format such as "multiple" or "boolean"
type Type struct {
	ID   int64  `json:"id" yaml:"id"`
	Type string `json:"type" yaml:"type"`
}

// Difficulty is a question difficulty level such as "easy"
type Difficulty struct {
	ID    int64  `json:"id" yaml:"id"`
	Level string `json:"level" yaml:"level"`
}

// Default remote sets for the kinds the remote source has no list endpoint for
var (
	DefaultTypes        = []string{"multiple", "boolean"}
	DefaultDifficulties = []string{"easy", "medium", "hard"}
)
